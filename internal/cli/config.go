package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cybertec-postgresql/pgup/internal/journal"
	"github.com/cybertec-postgresql/pgup/pkg/types"
	"gopkg.in/yaml.v3"
)

// Config is an alias for the shared Config type
type Config = types.Config

// ConfigError is an alias for the shared ConfigError type
type ConfigError = types.ConfigError

// DefaultConfig provides default configuration values
var DefaultConfig = Config{
	PGHost:                    "localhost",
	PGPort:                    5432,
	PGDatabase:                "postgres",
	Driver:                    "pgx",
	JournalTable:              journal.DefaultTable,
	StandardConformingStrings: types.StringsOn,
	TransactionMode:           types.TransactionPerScript,
	Timeout:                   30 * time.Second,
	Workers:                   4,
	MaintenanceDatabase:       "postgres",
	LogFormat:                 "console",
}

// LoadConfig returns the defaults overridden by the standard PG* environment variables
func LoadConfig() *Config {
	c := DefaultConfig

	if v := os.Getenv("PGHOST"); v != "" {
		c.PGHost = v
	}
	if v := os.Getenv("PGPORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PGPort = port
		}
	}
	if v := os.Getenv("PGUSER"); v != "" {
		c.PGUser = v
	}
	if v := os.Getenv("PGPASSWORD"); v != "" {
		c.PGPassword = v
	}
	if v := os.Getenv("PGDATABASE"); v != "" {
		c.PGDatabase = v
	}

	return &c
}

// LoadFile merges a YAML configuration file into c. Keys missing from the
// file keep their current values.
func LoadFile(path string, c *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &ConfigError{Field: "config", Value: path, Message: err.Error()}
	}
	return nil
}

// Flags holds command-line values; zero values leave the configuration unchanged
type Flags struct {
	Connection                string
	Schema                    string
	Table                     string
	StandardConformingStrings string
	Transaction               string
	Driver                    string
	LogFormat                 string
	Timeout                   time.Duration
	Workers                   int
	EnsureDatabase            bool
	Verbose                   bool
}

// ApplyFlagsToConfig applies command-line flag values to configuration
func ApplyFlagsToConfig(c *Config, f Flags) {
	if f.Connection != "" {
		c.ConnectionString = f.Connection
	}
	if f.Schema != "" {
		c.Schema = f.Schema
	}
	if f.Table != "" {
		c.JournalTable = f.Table
	}
	if f.StandardConformingStrings != "" {
		c.StandardConformingStrings = types.StringMode(f.StandardConformingStrings)
	}
	if f.Transaction != "" {
		c.TransactionMode = types.TransactionMode(f.Transaction)
	}
	if f.Driver != "" {
		c.Driver = f.Driver
	}
	if f.LogFormat != "" {
		c.LogFormat = f.LogFormat
	}
	if f.Timeout != 0 {
		c.Timeout = f.Timeout
	}
	if f.Workers != 0 {
		c.Workers = f.Workers
	}
	if f.EnsureDatabase {
		c.EnsureDatabase = true
	}
	if f.Verbose {
		c.Verbose = true
	}
}
