// Command reportlink builds a report link from filter flags without starting
// the service. It applies the same filter rules and validation as a session,
// so its output matches what the API would produce for the same inputs.
//
// Usage:
//
//	go run ./cmd/reportlink -year 2022 -council "SHERMAN OAKS NC" \
//	  -types pothole,bulky_items -base https://reports.example.org/download
//
//	go run ./cmd/reportlink -start 2022-03-01 -end 2022-03-31 -json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/neighborhood-report-builder/internal/adapter/reportapi"
	"github.com/couchcryptid/neighborhood-report-builder/internal/catalog"
	"github.com/couchcryptid/neighborhood-report-builder/internal/domain"
	"github.com/couchcryptid/neighborhood-report-builder/internal/observability"
)

type output struct {
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	RequestTypes []string `json:"requestTypes"`
	Council      string   `json:"council"`
	Link         string   `json:"link"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("reportlink", flag.ContinueOnError)
	year := fs.String("year", "", "report year (year/month range)")
	startMonth := fs.String("start-month", "", "first month, 1-12")
	endMonth := fs.String("end-month", "", "last month, 1-12")
	start := fs.String("start", "", "start date YYYY-MM-DD (explicit range)")
	end := fs.String("end", "", "end date YYYY-MM-DD (explicit range)")
	council := fs.String("council", "", "neighborhood council; empty for all")
	types := fs.String("types", "", "comma-separated request type ids; empty for all")
	base := fs.String("base", "https://data.lacity.org/resource/myla311.csv", "download link base URL")
	api := fs.String("api", "", "report backend URL; overrides -base")
	catalogPath := fs.String("catalog", "", "catalog YAML; empty uses the built-in catalog")
	asJSON := fs.Bool("json", false, "print the descriptor and link as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cat, err := catalog.Load(*catalogPath)
	if err != nil {
		return err
	}

	rs := domain.DefaultRangeSet(cat)
	updates := []struct {
		dim   domain.Dimension
		value string
	}{
		{domain.DimYear, *year},
		{domain.DimStartMonth, *startMonth},
		{domain.DimEndMonth, *endMonth},
		{domain.DimStartDate, *start},
		{domain.DimEndDate, *end},
		{domain.DimCouncilID, *council},
	}
	for _, u := range updates {
		if u.value == "" {
			continue
		}
		if rs, err = domain.ApplyUpdate(rs, u.dim, u.value); err != nil {
			return err
		}
	}

	if *types != "" {
		selected := domain.DeselectAllTypes()
		for _, id := range strings.Split(*types, ",") {
			id = strings.TrimSpace(id)
			if id == "" || selected.Has(id) {
				continue
			}
			if selected, err = domain.ToggleType(cat, selected, id); err != nil {
				return err
			}
		}
		rs = domain.WithRequestTypes(rs, selected)
	}

	q, err := domain.BuildQuery(rs, cat)
	if err != nil {
		return err
	}

	var gen reportapi.Generator = reportapi.NewLinkGenerator(*base)
	if *api != "" {
		logger := observability.NewLogger("warn", "text")
		gen = reportapi.NewClient(*api, 30*time.Second, observability.NewMetricsForTesting(), logger)
	}
	link, err := gen.Generate(context.Background(), q)
	if err != nil {
		return err
	}

	if !*asJSON {
		_, err = fmt.Fprintln(stdout, link)
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output{
		StartDate:    q.StartDate.Format(domain.DateLayout),
		EndDate:      q.EndDate.Format(domain.DateLayout),
		RequestTypes: q.RequestTypes,
		Council:      q.Council,
		Link:         link,
	})
}
