package runner

import (
	"time"

	"github.com/cybertec-postgresql/pgup/internal/discovery"
)

// ScriptRun represents the execution of a single script
type ScriptRun struct {
	Script     *discovery.DiscoveredFile
	Statements int // Number of statements the script split into
	StartTime  time.Time
	EndTime    time.Time
	Status     RunStatus
	Error      error // Non-nil if the script failed
}

// RunStatus represents the current state of a script execution
type RunStatus int

const (
	RunPending RunStatus = iota
	RunApplied
	RunFailed
	RunSkipped    // Not reached because an earlier script failed
	RunRolledBack // Applied, then undone with the surrounding transaction
)

// String returns a string representation of RunStatus
func (rs RunStatus) String() string {
	switch rs {
	case RunPending:
		return "pending"
	case RunApplied:
		return "applied"
	case RunFailed:
		return "failed"
	case RunSkipped:
		return "skipped"
	case RunRolledBack:
		return "rolled back"
	default:
		return "unknown"
	}
}

// Duration returns the script execution duration
func (sr *ScriptRun) Duration() time.Duration {
	if sr.StartTime.IsZero() {
		return 0
	}
	if sr.EndTime.IsZero() {
		return time.Since(sr.StartTime)
	}
	return sr.EndTime.Sub(sr.StartTime)
}

// UpgradeResult is the outcome of an upgrade run
type UpgradeResult struct {
	Runs                      []*ScriptRun // Pending scripts in execution order
	AlreadyApplied            int          // Journal entries found before the run
	Failed                    *ScriptRun   // First failing script, nil on success
	StandardConformingStrings bool
	StartTime                 time.Time
	EndTime                   time.Time
}

// Successful returns true if every pending script was applied
func (r *UpgradeResult) Successful() bool {
	return r.Failed == nil && r.Summary().AllApplied()
}

// Summary counts the runs by status
func (r *UpgradeResult) Summary() *UpgradeSummary {
	summary := &UpgradeSummary{
		TotalScripts:   len(r.Runs),
		AlreadyApplied: r.AlreadyApplied,
		TotalDuration:  r.EndTime.Sub(r.StartTime),
	}
	for _, run := range r.Runs {
		switch run.Status {
		case RunApplied:
			summary.Applied++
		case RunFailed:
			summary.Failed++
		case RunSkipped:
			summary.Skipped++
		case RunRolledBack:
			summary.RolledBack++
		}
	}
	return summary
}

// ExitCode returns the process exit code for the run
func (r *UpgradeResult) ExitCode() int {
	return r.Summary().ExitCode()
}

// UpgradeSummary summarizes an upgrade run
type UpgradeSummary struct {
	TotalScripts   int
	AlreadyApplied int
	Applied        int
	Failed         int
	Skipped        int
	RolledBack     int
	TotalDuration  time.Duration
}

// AllApplied returns true if every pending script was applied
func (s *UpgradeSummary) AllApplied() bool {
	return s.Failed == 0 && s.Skipped == 0 && s.RolledBack == 0
}

// ExitCode returns the appropriate exit code based on the results
func (s *UpgradeSummary) ExitCode() int {
	if s.AllApplied() {
		return 0
	}
	return 1
}

// ScriptState is the journal state of one script file
type ScriptState string

const (
	StateApplied  ScriptState = "applied"
	StatePending  ScriptState = "pending"
	StateRollback ScriptState = "rollback" // Rollback script, never applied
	StateOrphaned ScriptState = "orphaned" // Journaled, but no file exists
)

// ScriptStatus reports whether a script has been applied
type ScriptStatus struct {
	Name  string      `json:"name"`
	State ScriptState `json:"state"`
}
