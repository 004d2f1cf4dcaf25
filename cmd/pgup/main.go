package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cybertec-postgresql/pgup/internal/cli"
	"github.com/cybertec-postgresql/pgup/internal/logger"
	"github.com/cybertec-postgresql/pgup/pkg/types"
	urfavecli "github.com/urfave/cli/v3"
)

const version = "1.0.0"

func main() {
	app := &urfavecli.Command{
		Name:    "pgup",
		Usage:   "PostgreSQL schema upgrade tool",
		Version: version,
		Commands: []*urfavecli.Command{
			{
				Name:      "upgrade",
				Usage:     "Apply pending scripts and record them in the journal",
				ArgsUsage: "[scripts-dir]",
				Action:    upgradeCommand,
				Flags:     databaseFlags(),
			},
			{
				Name:      "status",
				Usage:     "Show which scripts have been applied",
				ArgsUsage: "[scripts-dir]",
				Action:    statusCommand,
				Flags:     append(databaseFlags(), formatFlag()),
			},
			{
				Name:      "verify",
				Usage:     "Apply all scripts to a scratch database and drop it afterwards",
				ArgsUsage: "[scripts-dir]",
				Action:    verifyCommand,
				Flags:     databaseFlags(),
			},
			{
				Name:      "split",
				Usage:     "Print the statements a script splits into",
				ArgsUsage: "<script.sql>",
				Action:    splitCommand,
				Flags: []urfavecli.Flag{
					&urfavecli.StringFlag{
						Name:  "standard-conforming-strings",
						Usage: "Treat backslashes in plain string literals literally (on or off)",
						Value: "on",
					},
					formatFlag(),
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func formatFlag() urfavecli.Flag {
	return &urfavecli.StringFlag{
		Name:  "format",
		Usage: "Output format (text or json)",
		Value: "text",
	}
}

func databaseFlags() []urfavecli.Flag {
	return []urfavecli.Flag{
		&urfavecli.StringFlag{
			Name:    "connection",
			Aliases: []string{"c"},
			Usage:   "PostgreSQL connection string (URI or key=value format). Supports standard PG* environment variables.",
			Sources: urfavecli.EnvVars("PGUP_CONNECTION"),
		},
		&urfavecli.StringFlag{
			Name:    "config",
			Usage:   "YAML configuration file",
			Sources: urfavecli.EnvVars("PGUP_CONFIG"),
		},
		&urfavecli.StringFlag{
			Name:  "schema",
			Usage: "Schema holding the journal table (default: current schema)",
		},
		&urfavecli.StringFlag{
			Name:  "table",
			Usage: "Journal table name",
		},
		&urfavecli.StringFlag{
			Name:  "standard-conforming-strings",
			Usage: "Backslash handling in plain string literals (on, off or auto)",
		},
		&urfavecli.StringFlag{
			Name:  "transaction",
			Usage: "Transaction mode (none, per-script or single)",
		},
		&urfavecli.DurationFlag{
			Name:  "timeout",
			Usage: "Per-statement timeout",
		},
		&urfavecli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent script parsers",
		},
		&urfavecli.BoolFlag{
			Name:  "ensure-database",
			Usage: "Create the target database if it does not exist",
		},
		&urfavecli.StringFlag{
			Name:  "driver",
			Usage: "Connection backend (pgx or stdlib)",
		},
		&urfavecli.StringFlag{
			Name:  "log-format",
			Usage: "Log output format (console or json)",
		},
		&urfavecli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug output",
		},
	}
}

// loadConfig merges defaults, PG* variables, the config file and flags,
// in that order, and installs the default logger.
func loadConfig(cmd *urfavecli.Command) *cli.Config {
	config := cli.LoadConfig()

	if path := cmd.String("config"); path != "" {
		if err := cli.LoadFile(path, config); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
	}

	cli.ApplyFlagsToConfig(config, cli.Flags{
		Connection:                cmd.String("connection"),
		Schema:                    cmd.String("schema"),
		Table:                     cmd.String("table"),
		StandardConformingStrings: cmd.String("standard-conforming-strings"),
		Transaction:               cmd.String("transaction"),
		Driver:                    cmd.String("driver"),
		LogFormat:                 cmd.String("log-format"),
		Timeout:                   cmd.Duration("timeout"),
		Workers:                   cmd.Int("workers"),
		EnsureDatabase:            cmd.Bool("ensure-database"),
		Verbose:                   cmd.Bool("verbose"),
	})

	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	logger.SetDefault(logger.NewWithFormat(config.Verbose, config.LogFormat, os.Stderr))
	return config
}

func scriptsDir(cmd *urfavecli.Command) string {
	dir := cmd.Args().First()
	if dir == "" {
		dir = "."
	}
	return dir
}

// exitStatus turns a non-zero exit code into an error the cli package exits
// with once the action has returned and its deferred calls have run.
func exitStatus(code int) error {
	if code == 0 {
		return nil
	}
	return urfavecli.Exit("", code)
}

// upgradeCommand handles the 'pgup upgrade' command
func upgradeCommand(ctx context.Context, cmd *urfavecli.Command) error {
	config := loadConfig(cmd)
	defer func() { _ = logger.Default().Sync() }()

	exitCode, err := cli.Upgrade(ctx, config, scriptsDir(cmd), os.Stdout)
	if err != nil {
		return err
	}
	return exitStatus(exitCode)
}

// statusCommand handles the 'pgup status' command
func statusCommand(ctx context.Context, cmd *urfavecli.Command) error {
	config := loadConfig(cmd)
	defer func() { _ = logger.Default().Sync() }()

	return cli.Status(ctx, config, scriptsDir(cmd), cmd.String("format"), os.Stdout)
}

// verifyCommand handles the 'pgup verify' command
func verifyCommand(ctx context.Context, cmd *urfavecli.Command) error {
	config := loadConfig(cmd)
	defer func() { _ = logger.Default().Sync() }()

	exitCode, err := cli.Verify(ctx, config, scriptsDir(cmd), os.Stdout)
	if err != nil {
		return err
	}
	return exitStatus(exitCode)
}

// splitCommand handles the 'pgup split' command
func splitCommand(_ context.Context, cmd *urfavecli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: script path is required")
		os.Exit(2)
	}

	mode := types.StringMode(cmd.String("standard-conforming-strings"))
	if mode != types.StringsOn && mode != types.StringsOff {
		fmt.Fprintf(os.Stderr, "Error: standard-conforming-strings must be on or off, got %q\n", mode)
		os.Exit(2)
	}

	return cli.Split(path, mode == types.StringsOn, cmd.String("format"), os.Stdout)
}
