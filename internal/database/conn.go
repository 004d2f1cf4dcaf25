package database

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cybertec-postgresql/pgup/internal/errors"
	"github.com/cybertec-postgresql/pgup/internal/logger"
	"github.com/cybertec-postgresql/pgup/internal/parser"
	"github.com/cybertec-postgresql/pgup/pkg/types"
)

// minServerVersion is the oldest supported server_version_num
const minServerVersion = 120000

// Execer runs statements and simple single-column queries
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) error
	QueryStrings(ctx context.Context, sql string, args ...any) ([]string, error)
}

// Conn is a database handle that can start transactions
type Conn interface {
	Execer
	Begin(ctx context.Context) (Tx, error)
	Acquire(ctx context.Context) (Session, error)
	Close()
}

// Session is one connection held until Release. Session state such as
// search_path, SET ROLE or temporary tables persists between its calls.
type Session interface {
	Execer
	Begin(ctx context.Context) (Tx, error)
	Release()
}

// Tx is an open transaction
type Tx interface {
	Execer
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Open connects using the backend selected by cfg.Driver
func Open(ctx context.Context, cfg *types.Config, log *logger.Logger) (Conn, error) {
	switch cfg.Driver {
	case "", "pgx":
		pool, err := NewPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return pool, nil
	case "stdlib":
		db, err := OpenDB(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, &types.ConfigError{Field: "driver", Value: cfg.Driver, Message: "must be pgx or stdlib"}
	}
}

// StandardConformingStrings asks the server whether backslashes in ordinary
// string literals are literal characters.
func StandardConformingStrings(ctx context.Context, db Execer) (bool, error) {
	values, err := db.QueryStrings(ctx, "SHOW standard_conforming_strings")
	if err != nil {
		return false, fmt.Errorf("failed to query standard_conforming_strings: %w", err)
	}
	if len(values) != 1 {
		return false, fmt.Errorf("unexpected standard_conforming_strings result: %v", values)
	}
	return parser.ParseSetting(values[0])
}

func checkServerVersion(ctx context.Context, db Execer) error {
	values, err := db.QueryStrings(ctx, "SHOW server_version_num")
	if err != nil {
		return &errors.ConnectionError{
			Message: fmt.Sprintf("failed to query PostgreSQL version: %v", err),
		}
	}
	if len(values) != 1 {
		return &errors.ConnectionError{Message: "failed to query PostgreSQL version: no rows"}
	}

	version, err := strconv.Atoi(values[0])
	if err != nil {
		return &errors.ConnectionError{
			Message: fmt.Sprintf("failed to parse PostgreSQL version '%s': %v", values[0], err),
		}
	}

	if version < minServerVersion {
		return &errors.ConnectionError{
			Message:    fmt.Sprintf("PostgreSQL version %d is not supported (need 12+)", version/10000),
			Suggestion: "Upgrade to PostgreSQL 12 or later",
		}
	}
	return nil
}
