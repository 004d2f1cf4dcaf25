package journal

import (
	"context"
	stderrors "errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cybertec-postgresql/pgup/internal/database"
	"github.com/cybertec-postgresql/pgup/internal/discovery"
	"github.com/cybertec-postgresql/pgup/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return database.NewDB(sqlDB), mock
}

func TestJournal_TableName(t *testing.T) {
	assert.Equal(t, `"schemaversions"`, New("", "").TableName())
	assert.Equal(t, `"app"."Versions"`, New("app", "Versions").TableName())
	assert.Equal(t, `"we""ird"`, New("", `we"ird`).TableName())
}

func TestJournal_EnsureTable(t *testing.T) {
	db, mock := newMockDB(t)
	j := New("app", "")

	mock.ExpectExec(regexp.QuoteMeta(`CREATE SCHEMA IF NOT EXISTS "app"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "app"."schemaversions" (schemaversionsid serial NOT NULL CONSTRAINT "PK_schemaversions_Id" PRIMARY KEY`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, j.EnsureTable(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_EnsureTable_NoSchema(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "schemaversions"`)).
		WillReturnError(stderrors.New("permission denied"))

	err := New("", "").EnsureTable(context.Background(), db)
	var jErr *errors.JournalError
	require.ErrorAs(t, err, &jErr)
	assert.Equal(t, "create table", jErr.Op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_AppliedScripts(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT scriptname FROM "schemaversions" ORDER BY applied, schemaversionsid`)).
		WillReturnRows(sqlmock.NewRows([]string{"scriptname"}).
			AddRow("001_init.sql").
			AddRow("002_users.sql"))

	names, err := New("", "").AppliedScripts(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_users.sql"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_Exists(t *testing.T) {
	tests := []struct {
		count string
		want  bool
	}{
		{"1", true},
		{"0", false},
	}
	for _, tt := range tests {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*)::text FROM information_schema.tables WHERE table_name = $1 AND table_schema = coalesce(nullif($2, ''), current_schema())`)).
			WithArgs("schemaversions", "app").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.count))

		got, err := New("app", "").Exists(context.Background(), db)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	}
}

func TestJournal_Record(t *testing.T) {
	db, mock := newMockDB(t)
	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	mock.ExpectExec(`INSERT INTO "schemaversions" \(scriptname,applied\) VALUES \(\$1,\$2\)`).
		WithArgs("sub/003.sql", at.UTC()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, New("", "").Record(context.Background(), db, "sub/003.sql", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPending(t *testing.T) {
	all := []discovery.DiscoveredFile{
		{Name: "001_init.sql", Type: discovery.FileTypeScript},
		{Name: "001_init_down.sql", Type: discovery.FileTypeRollback},
		{Name: "002_users.sql", Type: discovery.FileTypeScript},
		{Name: "003_orders.sql", Type: discovery.FileTypeScript},
	}

	pending := Pending(all, []string{"002_users.sql", "gone.sql"})

	names := make([]string, 0, len(pending))
	for _, f := range pending {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"001_init.sql", "003_orders.sql"}, names)
	assert.Empty(t, Pending(all[:1], []string{"001_init.sql"}))
}
