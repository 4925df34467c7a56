// Package watch converts acquisition folders as they appear under a top
// folder. The acquisition software writes the timestamp file last, so its
// arrival marks a folder as complete.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/holotome/htconv/internal/convert"
	"github.com/holotome/htconv/internal/rawconf"
)

// debounce delays conversion after the completion marker appears so the
// acquisition software can finish closing its files.
const debounce = 500 * time.Millisecond

// Run watches topFolder and feeds completed acquisition subfolders through
// the pipeline until ctx is cancelled. Subfolders created at runtime are
// added to the watch list; conversion failures are logged and watching
// continues.
func Run(ctx context.Context, p *convert.Pipeline, topFolder string, overall map[string]string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(topFolder); err != nil {
		return err
	}
	dirEntries, err := os.ReadDir(topFolder)
	if err != nil {
		return err
	}
	for _, de := range dirEntries {
		if de.IsDir() {
			if err := w.Add(filepath.Join(topFolder, de.Name())); err != nil {
				logger.Warn("watch: add existing dir failed",
					slog.String("path", de.Name()),
					slog.String("error", err.Error()))
			}
		}
	}

	logger.Info("watch: started", slog.String("root", topFolder))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func(folder string) {
		pending[folder] = struct{}{}
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watch: stopped")
			return nil

		case <-timerCh:
			for folder := range pending {
				if _, convErr := p.Folder(ctx, folder, overall); convErr != nil {
					logger.Error("watch: conversion failed",
						slog.String("folder", folder),
						slog.String("error", convErr.Error()))
				}
			}
			pending = make(map[string]struct{})

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := w.Add(ev.Name); addErr != nil {
						logger.Warn("watch: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// The folder may already be complete.
					if _, err := os.Stat(filepath.Join(ev.Name, rawconf.TimestampFile)); err == nil {
						schedule(ev.Name)
					}
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && filepath.Base(ev.Name) == rawconf.TimestampFile {
				folder := filepath.Dir(ev.Name)
				if folder != filepath.Clean(topFolder) {
					logger.Debug("watch: acquisition complete", slog.String("folder", folder))
					schedule(folder)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch: error", slog.String("error", watchErr.Error()))
		}
	}
}
