package report

import (
	"fmt"
	"io"

	"github.com/foundersandcoders/app-data/internal/pivot"
	"github.com/foundersandcoders/app-data/internal/records"
)

// Provider tables one provider's starts by standard: standards on rows,
// years on columns, every standard itemized.
func Provider(env Env, req Request, w io.Writer) error {
	path, err := env.resolveFile(req.InputFile, env.Config.StartsPattern, env.Config.StartsZipPattern)
	if err != nil {
		return err
	}

	provider := req.Provider
	if provider == "" {
		provider = env.Config.DefaultProvider
	}
	target := records.CleanProviderName(provider)

	f := env.Config.Fields
	displayName := ""
	recs, _, err := loadStarts(path, f, func(row records.Row) bool {
		return records.CleanProviderName(row.Get(f.ProviderName)) == target
	}, func(row records.Row) records.Key {
		if displayName == "" {
			displayName = row.Get(f.ProviderName)
		}
		return records.Key{Primary: row.Get(f.StandardName)}
	})
	if err != nil {
		return err
	}
	if displayName == "" {
		displayName = provider
	}

	title := fmt.Sprintf("%s starts", displayName)
	pol := pivot.Policy{
		Grouping:           pivot.GroupNone,
		Explode:            true,
		AnnualWhenComplete: true,
		TotalLeading:       true,
	}
	table, err := pivot.Build(recs, title, "Standard", pol)
	if err != nil {
		return err
	}
	return writeTable(w, table, req.Format)
}
