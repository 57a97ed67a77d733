package domain

import "time"

// Mode selects which date family of a RangeSet is active.
type Mode int

const (
	// YearMonthRange describes the window as a year plus start/end month.
	YearMonthRange Mode = iota
	// ExplicitRange describes the window as explicit start/end calendar dates.
	ExplicitRange
)

func (m Mode) String() string {
	switch m {
	case ExplicitRange:
		return "explicit_range"
	case YearMonthRange:
		return "year_month_range"
	default:
		return "unknown"
	}
}

// DateLayout is the form and wire format for calendar dates.
const DateLayout = "2006-01-02"

// RangeSet is the aggregate of all active filter dimensions. It is a value:
// updates produce a new RangeSet and never modify an existing one.
//
// Only the fields of the active Mode may be non-zero. A zero date, year or
// month means the dimension is unset; an empty CouncilID means all councils.
type RangeSet struct {
	Mode Mode

	StartDate time.Time
	EndDate   time.Time

	Year       int
	StartMonth int
	EndMonth   int

	RequestTypes TypeSet
	CouncilID    string
}

// DefaultRangeSet is the state a new session starts with: the year/month
// family with nothing picked yet and every catalog type selected.
func DefaultRangeSet(c Catalog) RangeSet {
	return RangeSet{
		Mode:         YearMonthRange,
		RequestTypes: c.All(),
	}
}

// HasExplicitFields reports whether any explicit-date field is set.
func (r RangeSet) HasExplicitFields() bool {
	return !r.StartDate.IsZero() || !r.EndDate.IsZero()
}

// HasYearMonthFields reports whether any year/month field is set.
func (r RangeSet) HasYearMonthFields() bool {
	return r.Year != 0 || r.StartMonth != 0 || r.EndMonth != 0
}

// Equal reports whether two snapshots describe the same filter state.
func (r RangeSet) Equal(o RangeSet) bool {
	return r.Mode == o.Mode &&
		r.StartDate.Equal(o.StartDate) &&
		r.EndDate.Equal(o.EndDate) &&
		r.Year == o.Year &&
		r.StartMonth == o.StartMonth &&
		r.EndMonth == o.EndMonth &&
		r.CouncilID == o.CouncilID &&
		r.RequestTypes.Equal(o.RequestTypes)
}
