package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notebox/internal"
	pkgconfig "github.com/starford/notebox/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
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

func newApp() *cli.Command {
	return &cli.Command{
		Name:   "notebox",
		Usage:  "Note keeping with switchable preference-store and JSON-file storage",
		Action: serve,
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
			{Name: "serve", Usage: "Run the HTTP API with live events", Action: serve},
			{Name: "mcp", Usage: "Serve note tools over MCP stdio", Action: serveMCP},
			{Name: "add", Usage: "Create a note", ArgsUsage: "<title> <content>", Action: addNote},
			{Name: "list", Usage: "List notes of the active backend", Action: listNotes},
			{Name: "show", Usage: "Print a note", ArgsUsage: "<id>", Action: showNote},
			{Name: "edit", Usage: "Replace a note's title and content", ArgsUsage: "<id> <title> <content>", Action: editNote},
			{Name: "delete", Usage: "Delete a note", ArgsUsage: "<id>", Action: deleteNote},
			{
				Name:   "clear",
				Usage:  "Delete every note of the active backend",
				Action: clearNotes,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm deleting all notes"},
				},
			},
			{Name: "backend", Usage: "Show the active backend", Action: showBackend},
			{Name: "switch", Usage: "Switch to the other backend, migrating every note", Action: switchBackend},
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
