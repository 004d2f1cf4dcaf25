package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCommands(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			name: "newline separated",
			sql:  "SELECT 1\n;\nSELECT 2",
			want: []string{"SELECT 1", "SELECT 2"},
		},
		{
			name: "leading semicolons",
			sql:  ";;SELECT 1",
			want: []string{"SELECT 1"},
		},
		{
			name: "trailing semicolon",
			sql:  "SELECT 1;",
			want: []string{"SELECT 1"},
		},
		{
			name: "empty script",
			sql:  "",
			want: nil,
		},
		{
			name: "semicolon inside parentheses",
			sql:  "CREATE OR REPLACE RULE test AS ON UPDATE TO test DO (SELECT 1; SELECT 1)",
			want: []string{"CREATE OR REPLACE RULE test AS ON UPDATE TO test DO (SELECT 1; SELECT 1)"},
		},
		{
			name: "semicolon after closing parenthesis",
			sql:  "CREATE OR REPLACE RULE test AS ON UPDATE TO test DO (SELECT 1); SELECT 2",
			want: []string{"CREATE OR REPLACE RULE test AS ON UPDATE TO test DO (SELECT 1)", "SELECT 2"},
		},
		{
			name: "block comment",
			sql:  "SELECT 1 /* block comment; */",
			want: []string{"SELECT 1 /* block comment; */"},
		},
		{
			name: "line comment",
			sql:  "SELECT 1;\n-- Line comment; with semicolon\nSELECT 2;",
			want: []string{"SELECT 1", "-- Line comment; with semicolon\nSELECT 2"},
		},
		{
			name: "string literal",
			sql:  "SELECT 'string with; semicolon'",
			want: []string{"SELECT 'string with; semicolon'"},
		},
		{
			name: "doubled quote",
			sql:  "SELECT 'string with'' quote and; semicolon'",
			want: []string{"SELECT 'string with'' quote and; semicolon'"},
		},
		{
			name: "quoted identifier",
			sql:  `SELECT 1 as "QUOTED;IDENT"`,
			want: []string{`SELECT 1 as "QUOTED;IDENT"`},
		},
		{
			name: "doubled double quote",
			sql:  `SELECT 1 as "a"";b"; SELECT 2`,
			want: []string{`SELECT 1 as "a"";b"`, "SELECT 2"},
		},
		{
			name: "escape string",
			sql:  `SELECT E'\041'; SELECT '1'`,
			want: []string{`SELECT E'\041'`, "SELECT '1'"},
		},
		{
			name: "escape string with escaped quote",
			sql:  `SELECT E'it\'s; fine'; SELECT 2`,
			want: []string{`SELECT E'it\'s; fine'`, "SELECT 2"},
		},
		{
			name: "adjacent literals",
			sql:  "SELECT 'some'\n'text';\nSELECT '1'",
			want: []string{"SELECT 'some'\n'text'", "SELECT '1'"},
		},
		{
			name: "nested block comment",
			sql:  "SELECT 1 /* outer /* inner; */ still; */; SELECT 2",
			want: []string{"SELECT 1 /* outer /* inner; */ still; */", "SELECT 2"},
		},
		{
			name: "empty dollar tag",
			sql:  "DO $$ BEGIN PERFORM 1; END $$; SELECT 2",
			want: []string{"DO $$ BEGIN PERFORM 1; END $$", "SELECT 2"},
		},
		{
			name: "dollar tag needs exact match",
			sql:  "SELECT $a$ x; $$ ; $b$ ; $A$ ; $a$; SELECT 2",
			want: []string{"SELECT $a$ x; $$ ; $b$ ; $A$ ; $a$", "SELECT 2"},
		},
		{
			name: "positional parameter",
			sql:  "PREPARE p AS SELECT $1; SELECT 2",
			want: []string{"PREPARE p AS SELECT $1", "SELECT 2"},
		},
		{
			name: "dollar inside identifier",
			sql:  "SELECT a$b$c; SELECT 2",
			want: []string{"SELECT a$b$c", "SELECT 2"},
		},
		{
			name: "identifier ending in e before quote",
			sql:  `SELECT some'a\'; SELECT 2`,
			want: []string{`SELECT some'a\'`, "SELECT 2"},
		},
		{
			name: "stray closing parenthesis",
			sql:  "SELECT ); SELECT 2",
			want: []string{"SELECT )", "SELECT 2"},
		},
		{
			name: "whitespace and comment only statement",
			sql:  "SELECT 1;   ;\n\t; SELECT 2",
			want: []string{"SELECT 1", "SELECT 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitCommands(tt.sql, true))
		})
	}
}

func TestSplitCommands_FunctionBody(t *testing.T) {
	sql := `CREATE FUNCTION TXT()
LANGUAGE PLPGSQL AS
$BODY$
BEGIN
    SELECT 'string with'' quote and; semicolon';
END
$BODY$`

	got := SplitCommands(sql, true)
	require.Len(t, got, 1)
	assert.Equal(t, sql, got[0])
}

func TestSplitCommands_DollarBlocksInTransaction(t *testing.T) {
	sql := `START TRANSACTION;

DO $EF$
BEGIN
    INSERT INTO "AspNetUsers" ("Id", "UserName")
    VALUES ('65fe2157-3214-4de5-8664-2648b67c530e', 'John');
END $EF$;

DO $EF$
BEGIN
    INSERT INTO "AspNetUsers" ("Id", "UserName")
    VALUES ('7cc03149-09e9-42eb-9554-d3ce3bed15bd', 'Jane');
END $EF$;

COMMIT;
`

	got := SplitCommands(sql, true)
	require.Len(t, got, 4)
	assert.Equal(t, "START TRANSACTION", got[0])
	assert.True(t, strings.HasPrefix(got[1], "DO $EF$"))
	assert.True(t, strings.HasSuffix(got[1], "END $EF$"))
	assert.Contains(t, got[2], "'Jane'")
	assert.Equal(t, "COMMIT", got[3])
}

func TestSplitCommands_NonStandardConformingStrings(t *testing.T) {
	sql := `SELECT 'string with\' quote and; semicolon'`

	got := SplitCommands(sql, false)
	require.Len(t, got, 1)
	assert.Equal(t, sql, got[0])

	// With standard strings the backslash is literal, so the quote closes
	// the literal and the semicolon splits.
	assert.Len(t, SplitCommands(sql, true), 2)
}

func TestSplitCommands_Unterminated(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"single quote", "SELECT 1; SELECT 'abc; SELECT 3"},
		{"double quote", `SELECT 1; SELECT "abc; SELECT 3`},
		{"block comment", "SELECT 1; SELECT /* abc; SELECT 3"},
		{"nested block comment", "SELECT 1; SELECT /* a /* b */ c; SELECT 3"},
		{"dollar quote", "SELECT 1; SELECT $x$ abc; SELECT 3 $y$"},
		{"parenthesis", "SELECT 1; SELECT (abc; SELECT 3"},
		{"escape string", `SELECT 1; SELECT E'abc\'; SELECT 3`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitCommands(tt.sql, true)
			require.Len(t, got, 2)
			assert.Equal(t, "SELECT 1", got[0])
			assert.Equal(t, strings.TrimPrefix(tt.sql, "SELECT 1; "), got[1])
		})
	}
}

func TestSplit_KeepsRawSegments(t *testing.T) {
	assert.Equal(t, []string{"", "", "SELECT 1"}, Split(";;SELECT 1", true))
	assert.Equal(t, []string{" SELECT 1 ", "\n"}, Split(" SELECT 1 ;\n", true))
	assert.Empty(t, Split("", true))
	assert.Equal(t, []string{"SELECT 1"}, Split("SELECT 1;", true))
}

func TestSegments_Offsets(t *testing.T) {
	sql := "SELECT 1; SELECT 'a;b'"
	segs := Segments(sql, true)
	require.Len(t, segs, 2)

	assert.Equal(t, Segment{Text: "SELECT 1", Start: 0, End: 8, Terminated: true}, segs[0])
	assert.Equal(t, Segment{Text: " SELECT 'a;b'", Start: 9, End: len(sql), Terminated: false}, segs[1])
}

func TestLexState_String(t *testing.T) {
	assert.Equal(t, "normal", StateNormal.String())
	assert.Equal(t, "dollar-quote", StateDollarQuote.String())
	assert.Equal(t, "unknown", LexState(99).String())
}
