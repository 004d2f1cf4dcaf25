package report

import (
	"fmt"
	"io"

	"github.com/cybertec-postgresql/pgup/internal/parser"
	"github.com/cybertec-postgresql/pgup/internal/runner"
)

// Formatter renders command output
type Formatter interface {
	// FormatStatements writes the statements a script splits into
	FormatStatements(file string, stmts []*parser.Statement, writer io.Writer) error

	// FormatStatus writes the journal state of each script
	FormatStatus(statuses []runner.ScriptStatus, writer io.Writer) error

	// FormatUpgrade writes the outcome of an upgrade run
	FormatUpgrade(result *runner.UpgradeResult, writer io.Writer) error

	// Name returns the name of this formatter
	Name() string
}

// FormatType represents supported output formats
type FormatType string

const (
	FormatText FormatType = "text"
	FormatJSON FormatType = "json"
)

// GetFormatter returns a formatter for the specified format type
func GetFormatter(format FormatType) (Formatter, error) {
	switch format {
	case FormatText, "":
		return NewTextReporter(), nil
	case FormatJSON:
		return NewJSONReporter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: text, json)", format)
	}
}

// ValidFormat checks if a format string is valid
func ValidFormat(format string) bool {
	switch FormatType(format) {
	case FormatText, FormatJSON:
		return true
	default:
		return false
	}
}

// SupportedFormats returns a list of supported format names
func SupportedFormats() []string {
	return []string{string(FormatText), string(FormatJSON)}
}
