package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cybertec-postgresql/pgup/internal/database"
	"github.com/cybertec-postgresql/pgup/internal/discovery"
	"github.com/cybertec-postgresql/pgup/internal/journal"
	"github.com/cybertec-postgresql/pgup/internal/logger"
	"github.com/cybertec-postgresql/pgup/internal/parser"
	"github.com/cybertec-postgresql/pgup/internal/report"
	"github.com/cybertec-postgresql/pgup/internal/runner"
	"github.com/cybertec-postgresql/pgup/pkg/types"
)

// Upgrade applies the pending scripts found under dir and prints a summary.
// A failing script yields exit code 1 and no error; the failure is part of
// the printed report.
func Upgrade(ctx context.Context, config *Config, dir string, out io.Writer) (int, error) {
	log := logger.Default()

	files, err := discovery.Discover(dir)
	if err != nil {
		return 1, fmt.Errorf("failed to discover scripts: %w", err)
	}
	log.Debug("Found %d script(s) in %s", len(files), dir)

	if config.EnsureDatabase {
		if _, err := database.EnsureDatabase(ctx, config, log); err != nil {
			return 1, fmt.Errorf("failed to ensure database: %w", err)
		}
	}

	conn, err := database.Open(ctx, config, log)
	if err != nil {
		return 1, fmt.Errorf("database connection failed: %w", err)
	}
	defer conn.Close()

	return apply(ctx, config, conn, files, out)
}

// Status prints whether each script under dir has been applied
func Status(ctx context.Context, config *Config, dir string, format string, out io.Writer) error {
	formatter, err := report.GetFormatter(report.FormatType(format))
	if err != nil {
		return err
	}

	files, err := discovery.Discover(dir)
	if err != nil {
		return fmt.Errorf("failed to discover scripts: %w", err)
	}

	conn, err := database.Open(ctx, config, logger.Default())
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer conn.Close()

	executor := newExecutor(config, conn, true)
	statuses, err := executor.Status(ctx, files)
	if err != nil {
		return err
	}
	return formatter.FormatStatus(statuses, out)
}

// Split prints the statements a script file splits into, without a database
func Split(path string, scs bool, format string, out io.Writer) error {
	if !report.ValidFormat(format) {
		return fmt.Errorf("unsupported format: %s (supported: %v)", format, report.SupportedFormats())
	}
	formatter, err := report.GetFormatter(report.FormatType(format))
	if err != nil {
		return err
	}

	parsed, err := parser.ParseFile(path, scs)
	if err != nil {
		return err
	}
	return formatter.FormatStatements(path, parsed.Statements, out)
}

// Verify applies every script under dir to a scratch database created next
// to the configured one, then drops it.
func Verify(ctx context.Context, config *Config, dir string, out io.Writer) (int, error) {
	log := logger.Default()

	files, err := discovery.Discover(dir)
	if err != nil {
		return 1, fmt.Errorf("failed to discover scripts: %w", err)
	}

	admin, err := database.NewPool(ctx, config, log)
	if err != nil {
		return 1, fmt.Errorf("database connection failed: %w", err)
	}
	defer admin.Close()

	scratch, info, err := database.CreateTempDatabase(ctx, admin)
	if err != nil {
		return 1, err
	}
	log.Infow("Created scratch database", "database", info.Name)
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := database.DestroyTempDatabase(cleanupCtx, admin, scratch); err != nil {
			log.Errorw("Failed to drop scratch database", "database", info.Name, "error", err)
		}
	}()

	return apply(ctx, config, scratch, files, out)
}

func apply(ctx context.Context, config *Config, conn database.Conn, files []discovery.DiscoveredFile, out io.Writer) (int, error) {
	scs, err := resolveStrings(ctx, config, conn)
	if err != nil {
		return 1, err
	}

	result, err := newExecutor(config, conn, scs).Upgrade(ctx, files)
	if result == nil {
		return 1, err
	}

	if ferr := report.NewTextReporter().FormatUpgrade(result, out); ferr != nil {
		return 1, ferr
	}
	if err != nil && result.Failed == nil {
		return 1, err
	}
	return result.ExitCode(), nil
}

func newExecutor(config *Config, conn database.Conn, scs bool) *runner.Executor {
	return runner.NewExecutor(conn, journal.New(config.Schema, config.JournalTable), logger.Default(), config, scs)
}

// resolveStrings returns the standard_conforming_strings flag used to split
// scripts, asking the server in auto mode.
func resolveStrings(ctx context.Context, config *Config, db database.Execer) (bool, error) {
	switch config.StandardConformingStrings {
	case types.StringsOff:
		return false, nil
	case types.StringsAuto:
		scs, err := database.StandardConformingStrings(ctx, db)
		if err != nil {
			return false, err
		}
		logger.Debug("Server reports standard_conforming_strings=%v", scs)
		return scs, nil
	default:
		return true, nil
	}
}
