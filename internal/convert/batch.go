package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/holotome/htconv/internal/apperr"
	"github.com/holotome/htconv/internal/ledger"
)

// Result is one folder's batch outcome.
type Result struct {
	Folder  string
	Err     error
	Skipped bool
}

// Report aggregates a batch run. One folder's failure never aborts its
// siblings; failures are collected and reported together.
type Report struct {
	Results []Result
}

// Failed returns the number of failed folders.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Multiple converts every immediate subfolder of topFolder, up to workers
// folders in parallel. Folders whose inputs are unchanged since a
// successful ledger entry are skipped.
func (p *Pipeline) Multiple(ctx context.Context, topFolder string, overall map[string]string, workers int) (Report, error) {
	dirEntries, err := os.ReadDir(topFolder)
	if err != nil {
		return Report{}, fmt.Errorf("convert: read top folder: %w", err)
	}
	var folders []string
	for _, de := range dirEntries {
		if de.IsDir() {
			folders = append(folders, filepath.Join(topFolder, de.Name()))
		}
	}
	sort.Strings(folders)

	if workers < 1 {
		workers = 1
	}
	results := make([]Result, len(folders))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, folder := range folders {
		i, folder := i, folder
		g.Go(func() error {
			if p.shouldSkip(folder) {
				p.logger.Info("skipping unchanged folder", slog.String("folder", folder))
				results[i] = Result{Folder: folder, Skipped: true}
				return nil
			}
			_, convErr := p.Folder(gCtx, folder, overall)
			if convErr != nil {
				p.logger.Error("folder conversion failed",
					slog.String("folder", folder),
					slog.String("error", convErr.Error()))
			}
			results[i] = Result{Folder: folder, Err: convErr}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{Results: results}, err
	}
	return Report{Results: results}, nil
}

// shouldSkip reports whether the folder has an ok ledger entry with an
// unchanged input checksum.
func (p *Pipeline) shouldSkip(folder string) bool {
	if p.ledger == nil {
		return false
	}
	r, err := p.ledger.Get(filepath.Clean(folder))
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			p.logger.Warn("ledger lookup failed",
				slog.String("folder", folder),
				slog.String("error", err.Error()))
		}
		return false
	}
	return r.Status == ledger.StatusOK && r.InputChecksum == InputChecksum(folder)
}
