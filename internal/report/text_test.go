package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cybertec-postgresql/pgup/internal/parser"
	"github.com/cybertec-postgresql/pgup/internal/runner"
)

func TestTextReporter_FormatStatementsResplits(t *testing.T) {
	script := "CREATE FUNCTION f() RETURNS int AS $$ SELECT 1; $$ LANGUAGE sql;\nSELECT 'a;b';"
	stmts := parser.ParseStatements(script, true)

	var buf bytes.Buffer
	if err := NewTextReporter().FormatStatements("f.sql", stmts, &buf); err != nil {
		t.Fatalf("FormatStatements failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "-- f.sql: 2 statement(s)\n") {
		t.Errorf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "-- [2] lines 2-2\nSELECT 'a;b';\n") {
		t.Errorf("missing second statement in %q", out)
	}

	again := parser.SplitCommands(out, true)
	if len(again) != 2 {
		t.Fatalf("re-splitting output gave %d statements: %q", len(again), again)
	}
}

func TestTextReporter_FormatStatus(t *testing.T) {
	statuses := []runner.ScriptStatus{
		{Name: "001_init.sql", State: runner.StateApplied},
		{Name: "002.sql", State: runner.StatePending},
	}

	var buf bytes.Buffer
	if err := NewTextReporter().FormatStatus(statuses, &buf); err != nil {
		t.Fatalf("FormatStatus failed: %v", err)
	}

	want := "SCRIPT        STATE\n" +
		"001_init.sql  applied\n" +
		"002.sql       pending\n" +
		"\n2 script(s), 1 pending\n"
	if buf.String() != want {
		t.Errorf("FormatStatus() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestTextReporter_FormatUpgrade(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextReporter().FormatUpgrade(sampleResult(), &buf); err != nil {
		t.Fatalf("FormatUpgrade failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"[OK] 004_a.sql (2 statement(s), 250ms)",
		"[FAIL] 005_b.sql (1 statement(s), 1s)\n    boom",
		"Scripts: 1 applied, 1 failed, 0 skipped, 0 rolled back (3 already applied) in 1.5s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
