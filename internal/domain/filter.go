package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dimension names a single filter control.
type Dimension string

const (
	DimYear       Dimension = "year"
	DimStartMonth Dimension = "startMonth"
	DimEndMonth   Dimension = "endMonth"
	DimStartDate  Dimension = "startDate"
	DimEndDate    Dimension = "endDate"
	DimCouncilID  Dimension = "councilId"
)

// Dimensions lists every dimension accepted by ApplyUpdate.
var Dimensions = []Dimension{DimYear, DimStartMonth, DimEndMonth, DimStartDate, DimEndDate, DimCouncilID}

var (
	// ErrUnknownDimension is returned for a dimension outside Dimensions.
	ErrUnknownDimension = errors.New("unknown filter dimension")
	// ErrInvalidValue is returned when a form value cannot be parsed for its dimension.
	ErrInvalidValue = errors.New("invalid filter value")
)

const (
	firstMonth = 1
	lastMonth  = 12

	// Years below minDateYear are rejected; the zero time marks an unset date.
	minDateYear = 1000
)

// ApplyUpdate returns the RangeSet that results from setting dim to value.
// On error the input RangeSet is returned unchanged.
//
// Date dimensions force ExplicitRange and clear the year/month fields; year
// and month dimensions force YearMonthRange and clear the dates. Clearing a
// dimension of the inactive family is a no-op and never switches modes. When
// the year/month family goes from empty to populated, unset months default to
// January and December.
func ApplyUpdate(rs RangeSet, dim Dimension, value string) (RangeSet, error) {
	value = strings.TrimSpace(value)

	switch dim {
	case DimYear, DimStartMonth, DimEndMonth:
		n, err := parseIntField(dim, value)
		if err != nil {
			return rs, err
		}
		if n == 0 && rs.Mode != YearMonthRange {
			return rs, nil
		}
		return applyYearMonth(rs, dim, n), nil

	case DimStartDate, DimEndDate:
		d, err := parseDateField(dim, value)
		if err != nil {
			return rs, err
		}
		if d.IsZero() && rs.Mode != ExplicitRange {
			return rs, nil
		}
		return applyDate(rs, dim, d), nil

	case DimCouncilID:
		next := rs
		next.CouncilID = value
		return next, nil

	default:
		return rs, fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
	}
}

func applyYearMonth(rs RangeSet, dim Dimension, n int) RangeSet {
	next := rs
	if next.Mode != YearMonthRange {
		next.Mode = YearMonthRange
		next.StartDate = time.Time{}
		next.EndDate = time.Time{}
	}

	firstPopulation := !next.HasYearMonthFields() && n != 0

	switch dim {
	case DimYear:
		next.Year = n
	case DimStartMonth:
		next.StartMonth = n
	case DimEndMonth:
		next.EndMonth = n
	}

	if firstPopulation {
		if next.StartMonth == 0 {
			next.StartMonth = firstMonth
		}
		if next.EndMonth == 0 {
			next.EndMonth = lastMonth
		}
	}
	return next
}

func applyDate(rs RangeSet, dim Dimension, d time.Time) RangeSet {
	next := rs
	if next.Mode != ExplicitRange {
		next.Mode = ExplicitRange
		next.Year = 0
		next.StartMonth = 0
		next.EndMonth = 0
	}

	switch dim {
	case DimStartDate:
		next.StartDate = d
	case DimEndDate:
		next.EndDate = d
	}
	return next
}

// parseIntField parses a year or month. Empty clears the field.
func parseIntField(dim Dimension, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, dim, value)
	}

	switch dim {
	case DimYear:
		if n < 1 || n > 9999 {
			return 0, fmt.Errorf("%w: %s=%d out of range", ErrInvalidValue, dim, n)
		}
	default:
		if n < firstMonth || n > lastMonth {
			return 0, fmt.Errorf("%w: %s=%d not a month", ErrInvalidValue, dim, n)
		}
	}
	return n, nil
}

// parseDateField parses a YYYY-MM-DD date in UTC. Empty clears the field.
func parseDateField(dim Dimension, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s=%q", ErrInvalidValue, dim, value)
	}
	if d.Year() < minDateYear {
		return time.Time{}, fmt.Errorf("%w: %s=%q year before %d", ErrInvalidValue, dim, value, minDateYear)
	}
	return d, nil
}
