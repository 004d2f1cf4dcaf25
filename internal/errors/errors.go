package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ConnectionError represents PostgreSQL connection failure
type ConnectionError struct {
	Host       string
	Port       int
	Message    string
	Suggestion string
}

func (e *ConnectionError) Error() string {
	msg := e.Message
	if e.Host != "" {
		msg = fmt.Sprintf("failed to connect to %s:%d: %s", e.Host, e.Port, e.Message)
	}
	if e.Suggestion != "" {
		msg += "\n  Suggestion: " + e.Suggestion
	}
	return msg
}

// NewConnectionError creates a new ConnectionError
func NewConnectionError(host string, port int, message string) *ConnectionError {
	return &ConnectionError{
		Host:    host,
		Port:    port,
		Message: message,
	}
}

// ScriptError represents the failure of one statement of a script
type ScriptError struct {
	Script    string // Journal name of the script
	Statement int    // 0-based statement index within the script
	Line      int    // Script line of the failing statement, or of the server position when known
	SQL       string

	// Server details, populated when the cause is a *pgconn.PgError
	Code     string
	Position int
	Err      error
}

func (e *ScriptError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("script %s failed at statement %d (line %d): [%s] %s",
			e.Script, e.Statement, e.Line, e.Code, e.message())
	}
	return fmt.Sprintf("script %s failed at statement %d (line %d): %v", e.Script, e.Statement, e.Line, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

func (e *ScriptError) message() string {
	var pgErr *pgconn.PgError
	if stderrors.As(e.Err, &pgErr) {
		return pgErr.Message
	}
	return fmt.Sprint(e.Err)
}

// NewScriptError creates a new ScriptError, extracting SQLSTATE and position
// from a server error.
func NewScriptError(script string, statement, line int, sql string, err error) *ScriptError {
	se := &ScriptError{
		Script:    script,
		Statement: statement,
		Line:      line,
		SQL:       sql,
		Err:       err,
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		se.Code = pgErr.Code
		se.Position = int(pgErr.Position)
	}
	return se
}

// JournalError represents a failure reading or writing the journal table
type JournalError struct {
	Table string
	Op    string
	Err   error
}

func (e *JournalError) Error() string {
	return fmt.Sprintf("journal %s: %s failed: %v", e.Table, e.Op, e.Err)
}

func (e *JournalError) Unwrap() error {
	return e.Err
}

// NewJournalError creates a new JournalError
func NewJournalError(table, op string, err error) *JournalError {
	return &JournalError{
		Table: table,
		Op:    op,
		Err:   err,
	}
}
