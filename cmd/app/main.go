package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/gebo/internal"
	pkgconfig "github.com/starford/gebo/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfPresent(cmd.String("config"), cfg); err != nil {
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

func syncAll(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunSyncAll(ctx, internal.WithConfig(cfg))
}

func importAll(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunImportAll(ctx, cmd.StringSlice("type"), internal.WithConfig(cfg))
}

func mcpServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:  "gebo",
		Usage: "Bidirectional sync between a Markdown vault and a personal knowledge-graph API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the control-plane HTTP API and vault watcher",
				Action: serve,
			},
			{
				Name:   "sync",
				Usage:  "Push every synced vault document to the remote space and exit",
				Action: syncAll,
			},
			{
				Name:  "import",
				Usage: "Pull remote objects into the vault and exit",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "type",
						Usage: "Object type keys to import (repeatable; empty imports all types)",
					},
				},
				Action: importAll,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP sync tools over stdio",
				Action: mcpServe,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
