package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/cybertec-postgresql/pgup/internal/parser"
	"github.com/cybertec-postgresql/pgup/internal/runner"
)

// TextReporter formats output for terminals
type TextReporter struct{}

// NewTextReporter creates a new text reporter
func NewTextReporter() *TextReporter {
	return &TextReporter{}
}

// Name returns the name of this formatter
func (r *TextReporter) Name() string {
	return string(FormatText)
}

// FormatStatements writes each statement preceded by a location comment,
// producing a script that splits back into the same statements.
func (r *TextReporter) FormatStatements(file string, stmts []*parser.Statement, writer io.Writer) error {
	if _, err := fmt.Fprintf(writer, "-- %s: %d statement(s)\n", file, len(stmts)); err != nil {
		return err
	}
	for _, s := range stmts {
		if _, err := fmt.Fprintf(writer, "\n-- [%d] lines %d-%d\n%s;\n", s.Index+1, s.StartLine, s.EndLine, s.RawSQL); err != nil {
			return err
		}
	}
	return nil
}

// FormatStatus writes a two-column table of scripts and their state
func (r *TextReporter) FormatStatus(statuses []runner.ScriptStatus, writer io.Writer) error {
	tw := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCRIPT\tSTATE")

	pending := 0
	for _, s := range statuses {
		if s.State == runner.StatePending {
			pending++
		}
		fmt.Fprintf(tw, "%s\t%s\n", s.Name, s.State)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(writer, "\n%d script(s), %d pending\n", len(statuses), pending)
	return err
}

// FormatUpgrade writes one line per script followed by a summary
func (r *TextReporter) FormatUpgrade(result *runner.UpgradeResult, writer io.Writer) error {
	for _, run := range result.Runs {
		line := fmt.Sprintf("[%s] %s (%d statement(s), %v)", statusLabel(run.Status), run.Script.Name, run.Statements, run.Duration().Round(time.Millisecond))
		if run.Error != nil {
			line += "\n    " + run.Error.Error()
		}
		if _, err := fmt.Fprintln(writer, line); err != nil {
			return err
		}
	}

	s := result.Summary()
	_, err := fmt.Fprintf(writer,
		"\nScripts: %d applied, %d failed, %d skipped, %d rolled back (%d already applied) in %v\n",
		s.Applied, s.Failed, s.Skipped, s.RolledBack, s.AlreadyApplied, s.TotalDuration.Round(time.Millisecond))
	return err
}

func statusLabel(status runner.RunStatus) string {
	switch status {
	case runner.RunApplied:
		return "OK"
	case runner.RunFailed:
		return "FAIL"
	case runner.RunSkipped:
		return "SKIP"
	case runner.RunRolledBack:
		return "UNDO"
	default:
		return "----"
	}
}
