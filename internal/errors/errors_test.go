package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestScriptError_FromPgError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P01", Message: `relation "nope" does not exist`, Position: 15}
	err := NewScriptError("001_init.sql", 2, 7, "SELECT * FROM nope", fmt.Errorf("exec: %w", pgErr))

	assert.Equal(t, "42P01", err.Code)
	assert.Equal(t, 15, err.Position)
	assert.Equal(t, `script 001_init.sql failed at statement 2 (line 7): [42P01] relation "nope" does not exist`, err.Error())

	var target *pgconn.PgError
	assert.True(t, stderrors.As(err, &target))
	assert.Same(t, pgErr, target)
}

func TestScriptError_PlainCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewScriptError("a.sql", 0, 1, "SELECT 1", cause)

	assert.Empty(t, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "script a.sql failed at statement 0 (line 1): connection reset", err.Error())
}

func TestConnectionError(t *testing.T) {
	err := NewConnectionError("localhost", 5432, "refused")
	assert.Equal(t, "failed to connect to localhost:5432: refused", err.Error())

	err.Suggestion = "check that PostgreSQL is running"
	assert.Contains(t, err.Error(), "Suggestion: check that PostgreSQL is running")

	bare := &ConnectionError{Message: "invalid connection string"}
	assert.Equal(t, "invalid connection string", bare.Error())
}

func TestJournalError(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := NewJournalError(`"schemaversions"`, "create", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, `journal "schemaversions": create failed: permission denied`, err.Error())
}
