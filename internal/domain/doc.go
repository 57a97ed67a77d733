// Package domain models the filter state behind a neighborhood 311 report.
//
// # Filter Dimensions
//
// A report query is assembled from independent form controls:
//
//	year, startMonth, endMonth   → year/month family (YearMonthRange)
//	startDate, endDate           → explicit family (ExplicitRange)
//	councilId                    → neighborhood council, empty means all councils
//	requestTypes                 → set of catalog ids (map layers)
//
// The two date families are mutually exclusive. Whichever family the user
// touched last wins, and the fields of the other family are cleared. This keeps
// a [RangeSet] describing exactly one date window at all times.
//
// Form values arrive as strings, the way a dropdown or date input delivers
// them:
//
//	year        "2022"
//	startMonth  "1"  … "12"
//	endMonth    "1"  … "12"
//	startDate   "2022-03-01" (YYYY-MM-DD, interpreted in UTC)
//	councilId   free-form council identifier, e.g. "SHERMAN OAKS NC"
//
// An empty string clears the dimension. Clearing a dimension of the inactive
// family leaves the RangeSet unchanged, so it never switches families.
// Dates before year 1000 are rejected.
//
// # Month Defaults
//
// The year/month form shows January as the first start option and December as
// the preselected end option. When the year/month family is first populated
// the unset bounds pick up those defaults, so choosing only a year yields the
// whole calendar year.
//
// # Request Types
//
// Request types come from a fixed [Catalog] (id → display name and legend
// color) supplied at startup. An empty selection is carried as-is in the
// [RangeSet] so the legend can render every layer as deselected, but
// [BuildQuery] treats it as "no filter" and substitutes the full catalog.
//
// # Query Descriptors
//
// [BuildQuery] validates a RangeSet and produces a [QueryDescriptor]: concrete
// first/last-of-month dates, sorted request-type ids and a council id or the
// [AllCouncils] sentinel. Sorting makes descriptors usable as cache keys and
// keeps generated links reproducible. [FormatLink] renders a descriptor as a
// URL.
//
// Everything in this package is a pure function over immutable values.
package domain
