package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/propscope/internal"
	"github.com/starford/propscope/internal/catalog"
	"github.com/starford/propscope/internal/models"
	"github.com/starford/propscope/internal/status"
	pkgconfig "github.com/starford/propscope/pkg/config"
)

const defaultConfigPath = "config/config.yaml"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config"), defaultConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func datasetPath(cmd *cli.Command, cfg *internal.Config) string {
	if p := cmd.String("dataset"); p != "" {
		return p
	}
	return cfg.Dataset.Path
}

// rewriteImages replaces every property's image list with generated URLs.
func rewriteImages(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := datasetPath(cmd, cfg)

	doc, err := catalog.ReadDocument(path)
	if err != nil {
		return err
	}
	items, err := doc.Properties()
	if err != nil {
		return err
	}
	items = catalog.RewriteImages(items, cmd.Bool("picsum"))
	if err := doc.Apply(items, catalog.FieldImages); err != nil {
		return err
	}
	if err := doc.Write(path); err != nil {
		return err
	}
	slog.Info("images updated", slog.String("path", path), slog.Int("properties", len(items)), slog.Bool("picsum", cmd.Bool("picsum")))
	return nil
}

// redistribute prints the status mix the configured weights produce and,
// with --write, stores it in the dataset file.
func redistribute(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := datasetPath(cmd, cfg)

	doc, err := catalog.ReadDocument(path)
	if err != nil {
		return err
	}
	items, err := doc.Properties()
	if err != nil {
		return err
	}
	before := status.Tally(items)
	out, err := status.Redistribute(items, cfg.Status.Weights)
	if err != nil {
		return err
	}
	after := status.Tally(out)

	w := os.Stdout
	fmt.Fprintf(w, "%-11s %8s %8s\n", "status", "current", "target")
	for _, st := range models.Statuses {
		fmt.Fprintf(w, "%-11s %8d %8d\n", st, before[st], after[st])
	}
	fmt.Fprintf(w, "%-11s %8d %8d\n", "total", len(items), len(out))

	if !cmd.Bool("write") {
		return nil
	}
	if err := doc.Apply(out, catalog.FieldStatus); err != nil {
		return err
	}
	if err := doc.Write(path); err != nil {
		return err
	}
	slog.Info("statuses redistributed", slog.String("path", path), slog.Int("properties", len(out)))
	return nil
}

func main() {
	datasetFlag := &cli.StringFlag{
		Name:  "dataset",
		Usage: "Dataset file (defaults to dataset.path from the config)",
	}

	cmd := &cli.Command{
		Name:   "propscope",
		Usage:  "Commercial property explorer API with a trust-layer AI assistant",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigPath,
				Value:       defaultConfigPath,
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve catalog tools over MCP stdio",
				Action: serveMCP,
			},
			{
				Name:   "images",
				Usage:  "Regenerate property image URLs in the dataset file",
				Action: rewriteImages,
				Flags: []cli.Flag{
					datasetFlag,
					&cli.BoolFlag{Name: "picsum", Usage: "Use seeded Picsum photos instead of Unsplash keywords"},
				},
			},
			{
				Name:   "redistribute",
				Usage:  "Show (and optionally apply) the status mix the configured weights produce",
				Action: redistribute,
				Flags: []cli.Flag{
					datasetFlag,
					&cli.BoolFlag{Name: "write", Usage: "Write the relabeled statuses back to the dataset"},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
