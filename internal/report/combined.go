package report

import (
	"fmt"
	"io"

	"github.com/foundersandcoders/app-data/internal/pivot"
	"github.com/foundersandcoders/app-data/internal/records"
)

var majorRegions = []string{"London", "North West", "South East"}

// Short funding labels for the crossed rows; the long config labels
// would make "London (large employers (levy-funded))" style headers.
const (
	largeEmployers = "Large employers"
	smes           = "SMEs"
)

// Combined crosses the major regions with employer size: one row per
// (major region, funding type), pooled rows for the remaining regions,
// per-funding totals and a grand total.
func Combined(env Env, req Request, w io.Writer) error {
	path, err := env.resolveFile(req.InputFile, env.Config.UnderlyingPattern, "")
	if err != nil {
		return err
	}

	code := env.standardCode(req)
	cfg := env.Config
	f := cfg.Fields
	recs, standardName, err := loadStarts(path, f, func(row records.Row) bool {
		return row.Get(f.StandardCode) == code
	}, func(row records.Row) records.Key {
		return records.Key{
			Primary: row.Get(f.LearnerRegion),
			Secondary: fundingLabel(row.Get(f.FundingType), cfg.FundingLevyValue,
				cfg.FundingSMEValue, largeEmployers, smes),
		}
	})
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s %s starts by region and employer size", code, standardName)
	pol := pivot.Policy{
		Grouping:       pivot.GroupMajorSplit,
		Explode:        true,
		MajorPrimaries: majorRegions,
		SecondaryOrder: []string{largeEmployers, smes},
		PooledLabel:    "All other regions",
		TotalLabel:     "Grand Total",
	}
	table, err := pivot.Build(recs, title, "Region / Employer Size", pol)
	if err != nil {
		return err
	}
	return writeTable(w, table, req.Format)
}
