package report

import (
	"fmt"
	"io"

	"github.com/foundersandcoders/app-data/internal/pivot"
	"github.com/foundersandcoders/app-data/internal/records"
)

// LondonSME is the providers table restricted to London SME employers,
// with the configured manual corrections applied, rogue providers shown
// at the bottom outside every total, and the pinned provider first.
// A provider earns its own row by ever reaching the configured number
// of starts in a single year; the rest pool into "All other providers".
func LondonSME(env Env, req Request, w io.Writer) error {
	path, err := env.resolveFile(req.InputFile, env.Config.UnderlyingPattern, "")
	if err != nil {
		return err
	}

	code := env.standardCode(req)
	cfg := env.Config
	f := cfg.Fields
	recs, standardName, err := loadStarts(path, f, func(row records.Row) bool {
		return row.Get(f.StandardCode) == code &&
			row.Get(f.LearnerRegion) == "London" &&
			row.Get(f.FundingType) == cfg.FundingSMEValue
	}, func(row records.Row) records.Key {
		return records.Key{Primary: records.CleanProviderName(row.Get(f.ProviderName))}
	})
	if err != nil {
		return err
	}

	adjustments, err := configAdjustments(cfg.Adjustments)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s %s starts (London SMEs only)", code, standardName)
	pol := pivot.Policy{
		Grouping:        pivot.GroupThreshold,
		Explode:         true,
		MinRecent:       cfg.LondonSMEMinAnnual,
		OnMaxAnnual:     true,
		AlwaysShow:      cfg.AlwaysShowProviders,
		PooledLabel:     "All other providers",
		Adjustments:     adjustments,
		Exclusions:      cfg.ExcludedProviders,
		ExclusionSuffix: " (closed)",
		Pinned:          cfg.AlwaysShowProviders,
	}
	table, err := pivot.Build(recs, title, "Provider", pol)
	if err != nil {
		return err
	}
	return writeTable(w, table, req.Format)
}
