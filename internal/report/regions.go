package report

import (
	"fmt"
	"io"

	"github.com/foundersandcoders/app-data/internal/pivot"
	"github.com/foundersandcoders/app-data/internal/records"
)

// Regions tables starts by learner home region. Every region gets its
// own row; the most recent year is only exploded while it is still in
// progress, i.e. until Q4 data appears.
func Regions(env Env, req Request, w io.Writer) error {
	path, err := env.resolveFile(req.InputFile, env.Config.UnderlyingPattern, "")
	if err != nil {
		return err
	}

	code := env.standardCode(req)
	f := env.Config.Fields
	recs, standardName, err := loadStarts(path, f, func(row records.Row) bool {
		return row.Get(f.StandardCode) == code
	}, func(row records.Row) records.Key {
		return records.Key{Primary: row.Get(f.LearnerRegion)}
	})
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s %s starts by region", code, standardName)
	pol := pivot.Policy{
		Grouping:           pivot.GroupNone,
		Explode:            true,
		AnnualWhenComplete: true,
		TotalLeading:       true,
	}
	table, err := pivot.Build(recs, title, "Region", pol)
	if err != nil {
		return err
	}
	return writeTable(w, table, req.Format)
}
