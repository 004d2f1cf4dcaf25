package database

import (
	"context"
	"fmt"

	"github.com/cybertec-postgresql/pgup/internal/errors"
	"github.com/cybertec-postgresql/pgup/internal/logger"
	"github.com/cybertec-postgresql/pgup/pkg/types"
	"github.com/jackc/pgx/v5"
)

const defaultMaintenanceDatabase = "postgres"

// EnsureDatabase creates the target database when it does not exist yet.
// It connects to the maintenance database of the same server to do so.
func EnsureDatabase(ctx context.Context, config *types.Config, log *logger.Logger) (bool, error) {
	connString := BuildConnString(config)
	connConfig, err := pgx.ParseConfig(connString)
	if err != nil {
		return false, &errors.ConnectionError{
			Message:    fmt.Sprintf("invalid connection configuration: %v", err),
			Suggestion: "Check your PostgreSQL connection string format",
		}
	}

	target := connConfig.Database
	if target == "" {
		return false, &types.ConfigError{Field: "database", Message: "target database name is required to ensure it exists"}
	}

	maintenance := config.MaintenanceDatabase
	if maintenance == "" {
		maintenance = defaultMaintenanceDatabase
	}
	if target == maintenance {
		return false, nil
	}
	connConfig.Database = maintenance
	connConfig.RuntimeParams["application_name"] = applicationName

	log.Infow("Connecting to maintenance database",
		"database", maintenance,
		"connection", MaskPassword(connString))

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		connErr := errors.NewConnectionError(connConfig.Host, int(connConfig.Port),
			fmt.Sprintf("maintenance database %q: %v", maintenance, err))
		connErr.Suggestion = "Set maintenance_database to a database the user may connect to"
		return false, connErr
	}
	defer func() { _ = conn.Close(ctx) }()

	var exists bool
	err = conn.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", target).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check database %q: %w", target, err)
	}
	if exists {
		log.Debug("Database %s exists", target)
		return false, nil
	}

	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{target}.Sanitize()); err != nil {
		return false, fmt.Errorf("failed to create database %q: %w", target, err)
	}
	log.Infow("Created database", "database", target)
	return true, nil
}
