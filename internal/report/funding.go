package report

import (
	"fmt"
	"io"

	"github.com/foundersandcoders/app-data/internal/pivot"
	"github.com/foundersandcoders/app-data/internal/records"
)

// Funding tables starts by employer size: the levy-funded label, then
// the SME label, then any funding type the data introduces that the
// mapping does not know about.
func Funding(env Env, req Request, w io.Writer) error {
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
		return records.Key{Primary: fundingLabel(row.Get(f.FundingType), cfg.FundingLevyValue,
			cfg.FundingSMEValue, cfg.FundingLevyLabel, cfg.FundingSMELabel)}
	})
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s %s starts by employer size (funding type)", code, standardName)
	pol := pivot.Policy{
		Grouping:       pivot.GroupFixed,
		Explode:        true,
		Categories:     []string{cfg.FundingLevyLabel, cfg.FundingSMELabel},
		Fallback:       pivot.FallbackThreshold,
		FallbackByName: true,
		TotalLeading:   true,
	}
	table, err := pivot.Build(recs, title, "Funding Type", pol)
	if err != nil {
		return err
	}
	return writeTable(w, table, req.Format)
}

func fundingLabel(raw, levyValue, smeValue, levyLabel, smeLabel string) string {
	switch raw {
	case levyValue:
		return levyLabel
	case smeValue:
		return smeLabel
	}
	return raw
}
