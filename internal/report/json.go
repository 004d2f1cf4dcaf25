package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cybertec-postgresql/pgup/internal/parser"
	"github.com/cybertec-postgresql/pgup/internal/runner"
)

// JSONReporter formats output as indented JSON documents
type JSONReporter struct{}

// NewJSONReporter creates a new JSON reporter
func NewJSONReporter() *JSONReporter {
	return &JSONReporter{}
}

// Name returns the name of this formatter
func (r *JSONReporter) Name() string {
	return string(FormatJSON)
}

type jsonStatement struct {
	Index     int    `json:"index"`
	Keyword   string `json:"keyword"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	SQL       string `json:"sql"`
}

type jsonStatements struct {
	File       string          `json:"file"`
	Statements []jsonStatement `json:"statements"`
}

// FormatStatements writes the split statements of a script
func (r *JSONReporter) FormatStatements(file string, stmts []*parser.Statement, writer io.Writer) error {
	doc := jsonStatements{File: file, Statements: make([]jsonStatement, 0, len(stmts))}
	for _, s := range stmts {
		doc.Statements = append(doc.Statements, jsonStatement{
			Index:     s.Index,
			Keyword:   s.Keyword(),
			StartLine: s.StartLine,
			EndLine:   s.EndLine,
			SQL:       s.RawSQL,
		})
	}
	return writeJSON(doc, writer)
}

type jsonStatus struct {
	Scripts []runner.ScriptStatus `json:"scripts"`
	Applied int                   `json:"applied"`
	Pending int                   `json:"pending"`
}

// FormatStatus writes the journal state of each script
func (r *JSONReporter) FormatStatus(statuses []runner.ScriptStatus, writer io.Writer) error {
	doc := jsonStatus{Scripts: statuses}
	if doc.Scripts == nil {
		doc.Scripts = []runner.ScriptStatus{}
	}
	for _, s := range statuses {
		switch s.State {
		case runner.StateApplied:
			doc.Applied++
		case runner.StatePending:
			doc.Pending++
		}
	}
	return writeJSON(doc, writer)
}

type jsonRun struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Statements int    `json:"statements"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

type jsonUpgrade struct {
	Successful                bool      `json:"successful"`
	AlreadyApplied            int       `json:"already_applied"`
	StandardConformingStrings bool      `json:"standard_conforming_strings"`
	DurationMS                int64     `json:"duration_ms"`
	Scripts                   []jsonRun `json:"scripts"`
}

// FormatUpgrade writes the outcome of an upgrade run
func (r *JSONReporter) FormatUpgrade(result *runner.UpgradeResult, writer io.Writer) error {
	doc := jsonUpgrade{
		Successful:                result.Successful(),
		AlreadyApplied:            result.AlreadyApplied,
		StandardConformingStrings: result.StandardConformingStrings,
		DurationMS:                result.EndTime.Sub(result.StartTime).Milliseconds(),
		Scripts:                   make([]jsonRun, 0, len(result.Runs)),
	}
	for _, run := range result.Runs {
		jr := jsonRun{
			Name:       run.Script.Name,
			Status:     run.Status.String(),
			Statements: run.Statements,
			DurationMS: run.Duration().Milliseconds(),
		}
		if run.Error != nil {
			jr.Error = run.Error.Error()
		}
		doc.Scripts = append(doc.Scripts, jr)
	}
	return writeJSON(doc, writer)
}

func writeJSON(v any, writer io.Writer) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	data = append(data, '\n')
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}
