package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/holotome/htconv/internal/api"
	"github.com/holotome/htconv/internal/convert"
	"github.com/holotome/htconv/internal/ledger"
	"github.com/holotome/htconv/internal/modality"
	"github.com/holotome/htconv/internal/omexml"
	"github.com/holotome/htconv/internal/rawconf"
	"github.com/holotome/htconv/internal/watch"
)

// newApp applies options and installs the default JSON logger.
func newApp(opts ...Option) (*application, *slog.Logger, error) {
	app := &application{writer: omexml.FileWriter{}}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

// pipeline builds the conversion pipeline and opens the ledger when one is
// configured. The returned cleanup func closes the ledger.
func (a *application) pipeline(logger *slog.Logger) (*convert.Pipeline, func(), error) {
	rules, err := modality.CompileRules(a.config.Convert.Rules)
	if err != nil {
		return nil, nil, err
	}
	if len(rules) == 0 {
		rules = nil // pipeline falls back to the built-in table
	}

	var led *ledger.DB
	cleanup := func() {}
	if a.config.Ledger.Path != "" {
		led, err = ledger.Open(a.config.Ledger.Path)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { led.Close() }
	}

	p := convert.New(convert.Options{
		IncludeMIP:          a.config.Convert.IncludeMIP,
		OutputXML:           a.config.Convert.OutputXML,
		DefaultUTCOffsetMin: a.config.Convert.DefaultUTCOffsetMin,
		Rules:               rules,
	}, a.writer, led, logger)
	return p, cleanup, nil
}

// RunParse converts a single acquisition folder.
func RunParse(ctx context.Context, folder, overallPath string, opts ...Option) error {
	app, logger, err := newApp(opts...)
	if err != nil {
		return err
	}
	overall, err := rawconf.ParseOverall(overallPath)
	if err != nil {
		return err
	}
	p, cleanup, err := app.pipeline(logger)
	if err != nil {
		return err
	}
	defer cleanup()

	_, err = p.Folder(ctx, folder, overall)
	return err
}

// RunParseMultiple converts every immediate subfolder of topFolder. One
// folder's failure does not abort its siblings; a summary error is
// returned when any folder failed.
func RunParseMultiple(ctx context.Context, topFolder, overallPath string, opts ...Option) error {
	app, logger, err := newApp(opts...)
	if err != nil {
		return err
	}
	overall, err := rawconf.ParseOverall(overallPath)
	if err != nil {
		return err
	}
	p, cleanup, err := app.pipeline(logger)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := p.Multiple(ctx, topFolder, overall, app.config.Convert.Workers)
	if err != nil {
		return err
	}
	for _, res := range report.Results {
		if res.Err != nil {
			logger.Error("failed folder",
				slog.String("folder", res.Folder),
				slog.String("error", res.Err.Error()))
		}
	}
	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d folders failed", failed, len(report.Results))
	}
	logger.Info("batch complete", slog.Int("folders", len(report.Results)))
	return nil
}

// RunWatch converts acquisition folders as they appear under topFolder
// until interrupted.
func RunWatch(ctx context.Context, topFolder, overallPath string, opts ...Option) error {
	app, logger, err := newApp(opts...)
	if err != nil {
		return err
	}
	overall, err := rawconf.ParseOverall(overallPath)
	if err != nil {
		return err
	}
	p, cleanup, err := app.pipeline(logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return watch.Run(ctx, p, topFolder, overall, logger)
}

// RunServe exposes the read-only conversion ledger API over HTTP.
func RunServe(ctx context.Context, topFolder string, opts ...Option) error {
	app, logger, err := newApp(opts...)
	if err != nil {
		return err
	}
	if app.config.Ledger.Path == "" {
		return fmt.Errorf("serve requires a ledger path")
	}
	led, err := ledger.Open(app.config.Ledger.Path)
	if err != nil {
		return err
	}
	defer led.Close()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/api", api.NewRouter(led, topFolder))

	addr := fmt.Sprintf(":%d", app.config.HTTP.Port)
	httpServer := &http.Server{Addr: addr, Handler: r}

	logger.Info("status server starting", slog.String("address", addr))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})
	return g.Wait()
}
