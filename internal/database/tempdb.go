package database

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/cybertec-postgresql/pgup/pkg/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CreateTempDatabase creates a scratch database and returns a pool connected to it.
// The admin pool's settings (sslmode, notices, client certificates) carry over.
func CreateTempDatabase(ctx context.Context, adminPool *Pool) (*Pool, *types.TempDatabase, error) {
	now := time.Now()
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, nil, fmt.Errorf("failed to generate random suffix: %w", err)
	}
	dbName := fmt.Sprintf("pgup_verify_%s_%s", now.Format("20060102_150405"), hex.EncodeToString(randomBytes))

	if err := adminPool.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		return nil, nil, fmt.Errorf("failed to create temporary database: %w", err)
	}

	config := adminPool.pool.Config()
	config.ConnConfig.Database = dbName

	tempPool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		_ = adminPool.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{dbName}.Sanitize())
		return nil, nil, fmt.Errorf("failed to connect to temp database: %w", err)
	}

	info := &types.TempDatabase{
		Name:      dbName,
		CreatedAt: now,
	}
	return &Pool{pool: tempPool}, info, nil
}

// DestroyTempDatabase closes the temp pool and drops its underlying database.
func DestroyTempDatabase(ctx context.Context, adminPool *Pool, tempPool *Pool) error {
	if tempPool == nil {
		return nil
	}
	dbName := tempPool.pool.Config().ConnConfig.Database
	tempPool.Close()
	return adminPool.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE)", pgx.Identifier{dbName}.Sanitize()))
}
