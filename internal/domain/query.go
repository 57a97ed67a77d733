package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// AllCouncils is the council value of a descriptor that is not limited to a
// single neighborhood council.
const AllCouncils = "ALL"

// ErrIncompleteRange is returned by BuildQuery when the date window is missing
// a bound or is inverted.
var ErrIncompleteRange = errors.New("incomplete range")

// QueryDescriptor is the canonical, validated form of a RangeSet. It is the
// only input to link formatting and report generation.
type QueryDescriptor struct {
	StartDate    time.Time `json:"-"`
	EndDate      time.Time `json:"-"`
	RequestTypes []string  `json:"requestTypes"`
	Council      string    `json:"council"`
}

// BuildQuery validates rs and derives its descriptor. Rules are checked in
// order and the first failure is returned:
//
//  1. ExplicitRange needs both dates with start <= end.
//  2. YearMonthRange needs a year and startMonth <= endMonth. Unset months
//     fall back to January and December.
//  3. An empty request-type selection stands for the whole catalog.
func BuildQuery(rs RangeSet, c Catalog) (QueryDescriptor, error) {
	start, end, err := resolveWindow(rs)
	if err != nil {
		return QueryDescriptor{}, err
	}

	types := rs.RequestTypes.IDs()
	if len(types) == 0 {
		types = c.IDs()
	}

	council := strings.TrimSpace(rs.CouncilID)
	if council == "" {
		council = AllCouncils
	}

	return QueryDescriptor{
		StartDate:    start,
		EndDate:      end,
		RequestTypes: types,
		Council:      council,
	}, nil
}

func resolveWindow(rs RangeSet) (time.Time, time.Time, error) {
	switch rs.Mode {
	case ExplicitRange:
		if rs.StartDate.IsZero() || rs.EndDate.IsZero() {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start and end date are required", ErrIncompleteRange)
		}
		start, end := truncateDay(rs.StartDate), truncateDay(rs.EndDate)
		if start.After(end) {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start date %s is after end date %s",
				ErrIncompleteRange, start.Format(DateLayout), end.Format(DateLayout))
		}
		return start, end, nil

	case YearMonthRange:
		if rs.Year == 0 {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: year is required", ErrIncompleteRange)
		}
		sm, em := rs.StartMonth, rs.EndMonth
		if sm == 0 {
			sm = firstMonth
		}
		if em == 0 {
			em = lastMonth
		}
		if sm < firstMonth || em > lastMonth || sm > em {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start month %d is after end month %d",
				ErrIncompleteRange, sm, em)
		}
		start := time.Date(rs.Year, time.Month(sm), 1, 0, 0, 0, 0, time.UTC)
		// Day 0 of the following month is the last day of em.
		end := time.Date(rs.Year, time.Month(em)+1, 0, 0, 0, 0, 0, time.UTC)
		return start, end, nil

	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown mode %d", ErrIncompleteRange, rs.Mode)
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Values encodes the descriptor as query parameters. The parameter names
// match the report backend's request payload.
func (q QueryDescriptor) Values() url.Values {
	return url.Values{
		"startDate":    {q.StartDate.Format(DateLayout)},
		"endDate":      {q.EndDate.Format(DateLayout)},
		"council":      {q.Council},
		"requestTypes": {strings.Join(q.RequestTypes, ",")},
	}
}

// CacheKey returns a stable key for the descriptor. Equal descriptors always
// share a key.
func (q QueryDescriptor) CacheKey() string {
	return q.Values().Encode()
}

// Equal reports whether two descriptors are identical.
func (q QueryDescriptor) Equal(o QueryDescriptor) bool {
	return q.CacheKey() == o.CacheKey()
}
