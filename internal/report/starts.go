package report

import (
	"fmt"
	"io"

	"github.com/foundersandcoders/app-data/internal/pivot"
	"github.com/foundersandcoders/app-data/internal/records"
)

// Starts is the provider league table: providers on rows, academic
// years on columns, the most recent year exploded into quarters.
// Request.LondonSME narrows the input to London SME rows.
func Starts(env Env, req Request, w io.Writer) error {
	path, err := env.resolveFile(req.InputFile, env.Config.StartsPattern, env.Config.StartsZipPattern)
	if err != nil {
		return err
	}

	code := env.standardCode(req)
	f := env.Config.Fields
	keep := func(row records.Row) bool {
		if row.Get(f.StandardCode) != code {
			return false
		}
		if !req.LondonSME {
			return true
		}
		return row.Get(f.LearnerRegion) == "London" &&
			row.Get(f.FundingType) == env.Config.FundingSMEValue
	}
	recs, standardName, err := loadStarts(path, f, keep, func(row records.Row) records.Key {
		return records.Key{Primary: records.CleanProviderName(row.Get(f.ProviderName))}
	})
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s %s starts", code, standardName)
	if req.LondonSME {
		title = fmt.Sprintf("%s %s starts (London SMEs only)", code, standardName)
	}
	pol := pivot.Policy{
		Grouping:     pivot.GroupThreshold,
		Explode:      true,
		MinRecent:    env.Config.StartsMinThreshold,
		AlwaysShow:   env.Config.AlwaysShowProviders,
		PooledLabel:  "All other providers",
		TotalLeading: true,
	}
	table, err := pivot.Build(recs, title, "Provider", pol)
	if err != nil {
		return err
	}
	return writeTable(w, table, req.Format)
}
