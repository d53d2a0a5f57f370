package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/foundersandcoders/app-data/internal/pivot"
	"github.com/foundersandcoders/app-data/internal/records"
)

// academicMonths is the row order: the academic year runs Aug to Jul.
var academicMonths = []string{
	"Aug", "Sep", "Oct", "Nov", "Dec", "Jan",
	"Feb", "Mar", "Apr", "May", "Jun", "Jul",
}

// Monthly tables starts by calendar month with years as columns. No
// quarterly explosion; months missing from the data still get a row.
func Monthly(env Env, req Request, w io.Writer) error {
	path, err := env.resolveFile(req.InputFile, env.Config.MonthlyPattern, "")
	if err != nil {
		return err
	}

	code := env.standardCode(req)
	f := env.Config.Fields
	recs, standardName, err := loadStarts(path, f, func(row records.Row) bool {
		return row.Get(f.StandardCode) == code
	}, func(row records.Row) records.Key {
		return records.Key{Primary: monthName(row.Get(f.StartMonth))}
	})
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s %s monthly starts", code, standardName)
	pol := pivot.Policy{
		Grouping:    pivot.GroupFixed,
		Categories:  academicMonths,
		Fallback:    pivot.FallbackPool,
		PooledLabel: "Unknown",
	}
	table, err := pivot.Build(recs, title, "Month", pol)
	if err != nil {
		return err
	}
	return writeTable(w, table, req.Format)
}

// monthName reduces a start_month cell like "01 Aug" or "01-Aug" to the
// bare month token.
func monthName(raw string) string {
	fields := strings.Fields(strings.ReplaceAll(raw, "-", " "))
	if len(fields) == 0 {
		return "Unknown"
	}
	return fields[len(fields)-1]
}
