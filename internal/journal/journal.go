// Package journal records which scripts have been applied to a database.
//
// The journal is a table with one row per applied script:
//
//	schemaversionsid serial PRIMARY KEY
//	scriptname       varchar(255) NOT NULL
//	applied          timestamp NOT NULL
package journal

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/cybertec-postgresql/pgup/internal/database"
	"github.com/cybertec-postgresql/pgup/internal/discovery"
	"github.com/cybertec-postgresql/pgup/internal/errors"
	"github.com/jackc/pgx/v5"
)

// DefaultTable is the journal table name used when none is configured
const DefaultTable = "schemaversions"

// Journal reads and writes the applied-scripts table
type Journal struct {
	schema string
	table  string
	qb     squirrel.StatementBuilderType
}

// New creates a journal for schema.table. An empty schema uses the search_path.
func New(schema, table string) *Journal {
	if table == "" {
		table = DefaultTable
	}
	return &Journal{
		schema: schema,
		table:  table,
		qb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// TableName returns the quoted, schema-qualified table name
func (j *Journal) TableName() string {
	if j.schema == "" {
		return pgx.Identifier{j.table}.Sanitize()
	}
	return pgx.Identifier{j.schema, j.table}.Sanitize()
}

// EnsureTable creates the schema and journal table if they do not exist
func (j *Journal) EnsureTable(ctx context.Context, db database.Execer) error {
	if j.schema != "" {
		if err := db.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{j.schema}.Sanitize()); err != nil {
			return errors.NewJournalError(j.TableName(), "create schema", err)
		}
	}

	pk := pgx.Identifier{"PK_" + j.table + "_Id"}.Sanitize()
	ddl := "CREATE TABLE IF NOT EXISTS " + j.TableName() + " (" +
		"schemaversionsid serial NOT NULL CONSTRAINT " + pk + " PRIMARY KEY, " +
		"scriptname character varying(255) NOT NULL, " +
		"applied timestamp without time zone NOT NULL)"
	if err := db.Exec(ctx, ddl); err != nil {
		return errors.NewJournalError(j.TableName(), "create table", err)
	}
	return nil
}

// Exists reports whether the journal table has been created
func (j *Journal) Exists(ctx context.Context, db database.Execer) (bool, error) {
	query, args, err := j.qb.Select("count(*)::text").
		From("information_schema.tables").
		Where(squirrel.Eq{"table_name": j.table}).
		Where("table_schema = coalesce(nullif(?, ''), current_schema())", j.schema).
		ToSql()
	if err != nil {
		return false, errors.NewJournalError(j.TableName(), "build query", err)
	}

	counts, err := db.QueryStrings(ctx, query, args...)
	if err != nil {
		return false, errors.NewJournalError(j.TableName(), "lookup", err)
	}
	return len(counts) == 1 && counts[0] != "0", nil
}

// AppliedScripts returns the names of applied scripts in the order they ran
func (j *Journal) AppliedScripts(ctx context.Context, db database.Execer) ([]string, error) {
	query, args, err := j.qb.Select("scriptname").
		From(j.TableName()).
		OrderBy("applied", "schemaversionsid").
		ToSql()
	if err != nil {
		return nil, errors.NewJournalError(j.TableName(), "build query", err)
	}

	names, err := db.QueryStrings(ctx, query, args...)
	if err != nil {
		return nil, errors.NewJournalError(j.TableName(), "read", err)
	}
	return names, nil
}

// Record inserts a journal row for a script applied at the given time
func (j *Journal) Record(ctx context.Context, db database.Execer, name string, at time.Time) error {
	query, args, err := j.qb.Insert(j.TableName()).
		Columns("scriptname", "applied").
		Values(name, at.UTC()).
		ToSql()
	if err != nil {
		return errors.NewJournalError(j.TableName(), "build insert", err)
	}

	if err := db.Exec(ctx, query, args...); err != nil {
		return errors.NewJournalError(j.TableName(), "record "+name, err)
	}
	return nil
}

// Pending returns the forward scripts not yet in applied, keeping the order of all
func Pending(all []discovery.DiscoveredFile, applied []string) []discovery.DiscoveredFile {
	done := make(map[string]struct{}, len(applied))
	for _, name := range applied {
		done[name] = struct{}{}
	}

	var pending []discovery.DiscoveredFile
	for _, file := range all {
		if file.Type != discovery.FileTypeScript {
			continue
		}
		if _, ok := done[file.Name]; ok {
			continue
		}
		pending = append(pending, file)
	}
	return pending
}
