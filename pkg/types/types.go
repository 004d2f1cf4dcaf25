package types

import (
	"fmt"
	"time"
)

// TransactionMode controls how script statements are grouped into transactions
type TransactionMode string

const (
	TransactionNone      TransactionMode = "none"       // Statements autocommit one by one
	TransactionPerScript TransactionMode = "per-script" // One transaction per script, journal row included
	TransactionSingle    TransactionMode = "single"     // All pending scripts in one transaction
)

// Valid reports whether m is a known transaction mode
func (m TransactionMode) Valid() bool {
	switch m {
	case TransactionNone, TransactionPerScript, TransactionSingle:
		return true
	}
	return false
}

// StringMode is the configured standard_conforming_strings handling
type StringMode string

const (
	StringsOn   StringMode = "on"
	StringsOff  StringMode = "off"
	StringsAuto StringMode = "auto" // Ask the server
)

// Config holds runtime configuration combining flags, environment variables, a config file and defaults
type Config struct {
	// PostgreSQL connection
	ConnectionString string `yaml:"connection"`
	PGHost           string `yaml:"host"`
	PGPort           int    `yaml:"port"`
	PGUser           string `yaml:"user"`
	PGPassword       string `yaml:"password"`
	PGDatabase       string `yaml:"database"`
	Driver           string `yaml:"driver"` // "pgx" (pool) or "stdlib" (database/sql)

	// TLS client authentication
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
	RootCert   string `yaml:"root_cert"`

	// Journal
	Schema       string `yaml:"schema"`
	JournalTable string `yaml:"table"`

	// Execution
	StandardConformingStrings StringMode      `yaml:"standard_conforming_strings"`
	TransactionMode           TransactionMode `yaml:"transaction"`
	Timeout                   time.Duration   `yaml:"timeout"` // Per-statement timeout, 0 disables
	Workers                   int             `yaml:"workers"` // Concurrent script readers
	EnsureDatabase            bool            `yaml:"ensure_database"`
	MaintenanceDatabase       string          `yaml:"maintenance_database"`

	// Output
	Verbose   bool   `yaml:"verbose"`
	LogFormat string `yaml:"log_format"` // "console" or "json"
}

// Validate checks field values and returns a *ConfigError for the first invalid one
func (c *Config) Validate() error {
	if c.ConnectionString == "" {
		if c.PGHost == "" {
			return &ConfigError{
				Field:      "host",
				Message:    "no PostgreSQL host configured",
				Suggestion: "Use --connection or set PGHOST.",
			}
		}
		if c.PGPort < 1 || c.PGPort > 65535 {
			return &ConfigError{
				Field:      "port",
				Value:      c.PGPort,
				Message:    fmt.Sprintf("invalid port number: %d", c.PGPort),
				Suggestion: "Port must be between 1 and 65535.",
			}
		}
		if c.PGDatabase == "" {
			return &ConfigError{
				Field:      "database",
				Message:    "no database configured",
				Suggestion: "Use --connection or set PGDATABASE.",
			}
		}
	}
	switch c.Driver {
	case "", "pgx", "stdlib":
	default:
		return &ConfigError{
			Field:      "driver",
			Value:      c.Driver,
			Message:    fmt.Sprintf("unknown driver: %s", c.Driver),
			Suggestion: "Use pgx or stdlib.",
		}
	}
	switch c.StandardConformingStrings {
	case StringsOn, StringsOff, StringsAuto:
	default:
		return &ConfigError{
			Field:      "standard-conforming-strings",
			Value:      c.StandardConformingStrings,
			Message:    fmt.Sprintf("invalid value: %s", c.StandardConformingStrings),
			Suggestion: "Use on, off or auto.",
		}
	}
	if !c.TransactionMode.Valid() {
		return &ConfigError{
			Field:      "transaction",
			Value:      c.TransactionMode,
			Message:    fmt.Sprintf("invalid transaction mode: %s", c.TransactionMode),
			Suggestion: "Use none, per-script or single.",
		}
	}
	if c.Timeout < 0 {
		return &ConfigError{
			Field:      "timeout",
			Value:      c.Timeout,
			Message:    fmt.Sprintf("timeout must not be negative: %v", c.Timeout),
			Suggestion: "Use 0 to disable the statement timeout.",
		}
	}
	if c.Workers < 1 || c.Workers > 64 {
		return &ConfigError{
			Field:      "workers",
			Value:      c.Workers,
			Message:    fmt.Sprintf("invalid worker count: %d", c.Workers),
			Suggestion: "Workers must be between 1 and 64.",
		}
	}
	if c.JournalTable == "" {
		return &ConfigError{
			Field:      "table",
			Message:    "journal table name is empty",
			Suggestion: "Omit --table to use schemaversions.",
		}
	}
	if (c.ClientCert == "") != (c.ClientKey == "") {
		return &ConfigError{
			Field:      "client-cert",
			Message:    "client certificate and key must be set together",
			Suggestion: "Set both client_cert and client_key in the config file.",
		}
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return &ConfigError{
			Field:      "log-format",
			Value:      c.LogFormat,
			Message:    fmt.Sprintf("unknown log format: %s", c.LogFormat),
			Suggestion: "Use console or json.",
		}
	}
	return nil
}

// ConfigError reports an invalid configuration value
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("invalid configuration (%s): %s", e.Field, e.Message)
	if e.Suggestion != "" {
		msg += "\n  Suggestion: " + e.Suggestion
	}
	return msg
}

// TempDatabase represents a scratch PostgreSQL database used by verify
type TempDatabase struct {
	Name      string // e.g., "pgup_verify_20260105_a3f9c2b1"
	CreatedAt time.Time
}
