// Package report wires file discovery, record normalization, the pivot
// engine and the renderers into the eight published league tables.
package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/foundersandcoders/app-data/internal/config"
	"github.com/foundersandcoders/app-data/internal/discover"
	"github.com/foundersandcoders/app-data/internal/pivot"
	"github.com/foundersandcoders/app-data/internal/records"
	"github.com/foundersandcoders/app-data/internal/render"
)

// Env is everything a report run needs beyond its request.
type Env struct {
	Config config.Config
	Log    *zap.Logger
}

func (e Env) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

// Request carries the per-invocation arguments a subcommand collects.
type Request struct {
	StandardCode string
	Provider     string
	InputFile    string
	LondonSME    bool
	Format       render.Format
}

// Runner produces one report on w.
type Runner func(Env, Request, io.Writer) error

// Registry maps report names to runners, for the CLI and watch mode.
func Registry() map[string]Runner {
	return map[string]Runner{
		"starts":     Starts,
		"regions":    Regions,
		"funding":    Funding,
		"combined":   Combined,
		"monthly":    Monthly,
		"provider":   Provider,
		"london-sme": LondonSME,
		"vacancies":  Vacancies,
	}
}

func (e Env) finder() discover.Finder {
	return discover.Finder{
		Root:         e.Config.DataDir,
		FolderPrefix: e.Config.FolderPrefix,
		Subfolder:    e.Config.Subfolder,
	}
}

// resolveFile picks the input: an explicit path wins, then the newest
// match of pattern, then the newest zip archive when one is given.
func (e Env) resolveFile(explicit, pattern, zipPattern string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	path, err := e.finder().Latest(pattern)
	if err == nil {
		e.logger().Debug("resolved input file", zap.String("path", path), zap.String("pattern", pattern))
		return path, nil
	}
	if zipPattern != "" && errors.Is(err, discover.ErrNotFound) {
		path, zipErr := e.finder().LatestZipCSV(zipPattern)
		if zipErr != nil {
			return "", zipErr
		}
		e.logger().Debug("extracted input from archive", zap.String("path", path))
		return path, nil
	}
	return "", err
}

func (e Env) standardCode(req Request) string {
	if req.StandardCode != "" {
		return req.StandardCode
	}
	return e.Config.DefaultStandardCode
}

// loadStarts reads a starts-style file into canonical records. The key
// function chooses the dimension; the standard name of the first kept
// row feeds the title.
func loadStarts(path string, f config.Fields, keep func(records.Row) bool,
	key func(records.Row) records.Key) ([]records.Record, string, error) {

	rows, err := records.ReadRows(path, keep)
	if err != nil {
		return nil, "", err
	}
	var recs []records.Record
	standardName := "Unknown Standard"
	for i, row := range rows {
		if i == 0 {
			if name := row.Get(f.StandardName); name != "" {
				standardName = name
			}
		}
		recs = append(recs, records.Record{
			Key:       key(row),
			Period:    records.FormatAcademicYear(row.Get(f.Year)),
			SubPeriod: records.ParseCount(row.Get(f.StartQuarter), 0),
			Measure:   records.ParseCount(row.Get(f.Starts), 0),
		})
	}
	return recs, standardName, nil
}

// configAdjustments converts the config's label-keyed corrections to
// pivot adjustments. Labels are "YYYY-YY" or "YYYY-YY Q<n>".
func configAdjustments(adj map[string]map[string]int) (pivot.Adjustments, error) {
	if len(adj) == 0 {
		return nil, nil
	}
	out := make(pivot.Adjustments, len(adj))
	for provider, periods := range adj {
		key := records.Key{Primary: provider}
		out[key] = make(map[pivot.PeriodKey]int, len(periods))
		for label, delta := range periods {
			pk, err := parsePeriodLabel(label)
			if err != nil {
				return nil, fmt.Errorf("adjustment for %q: %w", provider, err)
			}
			out[key][pk] = delta
		}
	}
	return out, nil
}

func parsePeriodLabel(label string) (pivot.PeriodKey, error) {
	base, quarter, found := strings.Cut(strings.TrimSpace(label), " Q")
	if !found {
		return pivot.PeriodKey{Base: base}, nil
	}
	n, err := strconv.Atoi(quarter)
	if err != nil || n < 1 || n > 4 {
		return pivot.PeriodKey{}, fmt.Errorf("bad period label %q", label)
	}
	return pivot.PeriodKey{Base: base, Sub: n}, nil
}

func writeTable(w io.Writer, t pivot.Table, f render.Format) error {
	return render.Write(w, t, f)
}
