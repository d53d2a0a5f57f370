// Package watch regenerates the configured reports whenever the source
// data files change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foundersandcoders/app-data/internal/render"
	"github.com/foundersandcoders/app-data/internal/report"
)

// Runner watches the data folders and rebuilds reports on change.
type Runner struct {
	env      report.Env
	registry map[string]report.Runner
	log      *zap.Logger
}

func New(env report.Env) *Runner {
	log := env.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{env: env, registry: report.Registry(), log: log}
}

// Run generates once, then blocks regenerating on every data change
// until the context is cancelled. Events are debounced so one download
// touching several files triggers one rebuild.
func (r *Runner) Run(ctx context.Context) error {
	cfg := r.env.Config
	format, err := render.ParseFormat(cfg.Watch.Format)
	if err != nil {
		return err
	}
	for _, name := range cfg.Watch.Reports {
		if r.registry[name] == nil {
			return fmt.Errorf("unknown report %q in watch config", name)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, dir := range r.watchDirs() {
		if err := watcher.Add(dir); err != nil {
			r.log.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	r.generate(ctx, format)

	debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt := <-watcher.Events:
			if !isDataFile(evt.Name) {
				continue
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			r.log.Debug("data change", zap.String("file", evt.Name), zap.String("op", evt.Op.String()))
			if pending {
				if !timer.Stop() {
					<-timer.C
				}
			}
			timer.Reset(debounce)
			pending = true
		case <-timer.C:
			pending = false
			r.generate(ctx, format)
		case err := <-watcher.Errors:
			r.log.Warn("watch error", zap.Error(err))
		}
	}
}

// watchDirs is the data dir plus every <prefix>_*/<subfolder> under it,
// the same places discovery looks.
func (r *Runner) watchDirs() []string {
	cfg := r.env.Config
	dirs := []string{cfg.DataDir}
	pattern := filepath.Join(cfg.DataDir, cfg.FolderPrefix+"_*", cfg.Subfolder)
	if matches, err := filepath.Glob(pattern); err == nil {
		dirs = append(dirs, matches...)
	}
	return dirs
}

func isDataFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".zip":
		return true
	}
	return false
}

// generate runs every configured report into the output directory. One
// failing report does not stop the rest.
func (r *Runner) generate(ctx context.Context, format render.Format) {
	cfg := r.env.Config
	runID := uuid.NewString()
	log := r.log.With(zap.String("run_id", runID))

	if err := os.MkdirAll(cfg.Watch.OutputDir, 0o755); err != nil {
		log.Error("cannot create output dir", zap.String("dir", cfg.Watch.OutputDir), zap.Error(err))
		return
	}

	for _, name := range cfg.Watch.Reports {
		if ctx.Err() != nil {
			return
		}
		started := time.Now()
		path := filepath.Join(cfg.Watch.OutputDir, name+formatExt(format))
		if err := r.writeReport(name, path, format); err != nil {
			log.Error("report failed", zap.String("report", name), zap.Error(err))
			continue
		}
		log.Info("report written",
			zap.String("report", name),
			zap.String("path", path),
			zap.Duration("took", time.Since(started)))
	}
}

func (r *Runner) writeReport(name, path string, format render.Format) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	runErr := r.registry[name](r.env, report.Request{Format: format}, out)
	if closeErr := out.Close(); runErr == nil {
		runErr = closeErr
	}
	return runErr
}

func formatExt(f render.Format) string {
	switch f {
	case render.CSV:
		return ".csv"
	case render.TSV:
		return ".tsv"
	case render.Markdown:
		return ".md"
	}
	return ".txt"
}
