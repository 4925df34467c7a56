package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/holotome/htconv/internal"
	pkgconfig "github.com/holotome/htconv/pkg/config"
)

// loadConfig reads the config file and applies per-invocation flag
// overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	configPath := cmd.String("config")
	if configPath != "" {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if cmd.Bool("include-mip") {
		cfg.Convert.IncludeMIP = true
	}
	if cmd.Bool("output-xml") {
		cfg.Convert.OutputXML = true
	}
	if w := cmd.Int("workers"); w > 0 {
		cfg.Convert.Workers = int(w)
	}
	return cfg, nil
}

func convertFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "include-mip",
			Usage: "Keep derived maximum-intensity projections in the output",
		},
		&cli.BoolFlag{
			Name:  "output-xml",
			Usage: "Additionally export the standalone metadata XML",
		},
	}
}

func main() {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config file",
		Sources: cli.EnvVars("HTCONV_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "htconv",
		Usage: "Convert holotomography acquisition folders into combined image+metadata output",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:      "parse",
				Usage:     "Convert a single acquisition folder",
				ArgsUsage: "<folder> <overall-config-path>",
				Flags:     convertFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 2 {
						return fmt.Errorf("usage: parse <folder> <overall-config-path>")
					}
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunParse(ctx, cmd.Args().Get(0), cmd.Args().Get(1), internal.WithConfig(cfg))
				},
			},
			{
				Name:      "parse-multiple",
				Usage:     "Convert every immediate subfolder of a top folder",
				ArgsUsage: "<top-folder> <overall-config-path>",
				Flags: append(convertFlags(), &cli.IntFlag{
					Name:  "workers",
					Usage: "Maximum folders converted in parallel",
				}),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 2 {
						return fmt.Errorf("usage: parse-multiple <top-folder> <overall-config-path>")
					}
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunParseMultiple(ctx, cmd.Args().Get(0), cmd.Args().Get(1), internal.WithConfig(cfg))
				},
			},
			{
				Name:      "watch",
				Usage:     "Convert acquisition folders as they appear under a top folder",
				ArgsUsage: "<top-folder> <overall-config-path>",
				Flags:     convertFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 2 {
						return fmt.Errorf("usage: watch <top-folder> <overall-config-path>")
					}
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunWatch(ctx, cmd.Args().Get(0), cmd.Args().Get(1), internal.WithConfig(cfg))
				},
			},
			{
				Name:      "serve",
				Usage:     "Expose the conversion ledger over a read-only HTTP API",
				ArgsUsage: "<top-folder>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("usage: serve <top-folder>")
					}
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunServe(ctx, cmd.Args().Get(0), internal.WithConfig(cfg))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
