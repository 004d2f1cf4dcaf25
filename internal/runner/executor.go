package runner

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/cybertec-postgresql/pgup/internal/database"
	"github.com/cybertec-postgresql/pgup/internal/discovery"
	"github.com/cybertec-postgresql/pgup/internal/errors"
	"github.com/cybertec-postgresql/pgup/internal/journal"
	"github.com/cybertec-postgresql/pgup/internal/logger"
	"github.com/cybertec-postgresql/pgup/internal/parser"
	"github.com/cybertec-postgresql/pgup/pkg/types"
	"github.com/jackc/pgx/v5/pgconn"
)

// Executor applies scripts statement by statement and journals them
type Executor struct {
	conn    database.Conn
	journal *journal.Journal
	log     *logger.Logger
	timeout time.Duration
	mode    types.TransactionMode
	scs     bool
	workers int
	now     func() time.Time
}

// NewExecutor creates a new script executor. scs is the resolved
// standard_conforming_strings setting used to split scripts.
func NewExecutor(conn database.Conn, j *journal.Journal, log *logger.Logger, config *types.Config, scs bool) *Executor {
	mode := config.TransactionMode
	if mode == "" {
		mode = types.TransactionPerScript
	}
	return &Executor{
		conn:    conn,
		journal: j,
		log:     log,
		timeout: config.Timeout,
		mode:    mode,
		scs:     scs,
		workers: config.Workers,
		now:     time.Now,
	}
}

// Upgrade applies every script of files that is not in the journal yet.
// Execution stops at the first failing script; the returned error is then
// that script's *errors.ScriptError and the result is still populated.
func (e *Executor) Upgrade(ctx context.Context, files []discovery.DiscoveredFile) (*UpgradeResult, error) {
	result := &UpgradeResult{
		StandardConformingStrings: e.scs,
		StartTime:                 e.now(),
	}
	defer func() { result.EndTime = e.now() }()

	e.log.Info("Beginning database upgrade")

	// Session state set by a script must reach its later statements and
	// the journal insert.
	session, err := e.conn.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer session.Release()

	if err := e.journal.EnsureTable(ctx, session); err != nil {
		return nil, err
	}
	applied, err := e.journal.AppliedScripts(ctx, session)
	if err != nil {
		return nil, err
	}
	result.AlreadyApplied = len(applied)

	pending := journal.Pending(files, applied)
	if len(pending) == 0 {
		e.log.Info("No new scripts need to be executed - completing.")
		return result, nil
	}

	scripts, err := PrepareScripts(ctx, pending, e.scs, e.workers)
	if err != nil {
		return nil, err
	}
	for _, script := range scripts {
		result.Runs = append(result.Runs, &ScriptRun{
			Script:     script.File,
			Statements: len(script.Statements),
			Status:     RunPending,
		})
	}

	if e.mode == types.TransactionSingle {
		err = e.upgradeSingle(ctx, session, scripts, result)
	} else {
		err = e.upgradeEach(ctx, session, scripts, result)
	}

	if err != nil {
		e.log.Errorw("Upgrade failed", "error", err)
		return result, err
	}
	e.log.Info("Upgrade successful")
	return result, nil
}

func (e *Executor) upgradeEach(ctx context.Context, session database.Session, scripts []*parser.ParsedScript, result *UpgradeResult) error {
	for i, script := range scripts {
		run := result.Runs[i]
		if err := e.execute(ctx, session, script, run); err != nil {
			result.Failed = run
			markRemaining(result.Runs[i+1:], RunSkipped)
			return err
		}
	}
	return nil
}

func (e *Executor) upgradeSingle(ctx context.Context, session database.Session, scripts []*parser.ParsedScript, result *UpgradeResult) error {
	e.log.Info("Beginning transaction")
	tx, err := session.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for i, script := range scripts {
		run := result.Runs[i]
		if err := e.applyRun(ctx, tx, script, run); err != nil {
			result.Failed = run
			markRemaining(result.Runs[:i], RunRolledBack)
			markRemaining(result.Runs[i+1:], RunSkipped)
			e.rollback(tx)
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		markRemaining(result.Runs, RunRolledBack)
		result.Failed = result.Runs[len(result.Runs)-1]
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ExecuteScript applies one script and journals it. Under the per-script
// transaction mode the statements and the journal row commit together.
func (e *Executor) ExecuteScript(ctx context.Context, script *parser.ParsedScript) (*ScriptRun, error) {
	run := &ScriptRun{
		Script:     script.File,
		Statements: len(script.Statements),
		Status:     RunPending,
	}
	session, err := e.conn.Acquire(ctx)
	if err != nil {
		run.Status = RunFailed
		run.Error = fmt.Errorf("failed to acquire connection: %w", err)
		return run, run.Error
	}
	defer session.Release()
	return run, e.execute(ctx, session, script, run)
}

func (e *Executor) execute(ctx context.Context, session database.Session, script *parser.ParsedScript, run *ScriptRun) error {
	if e.mode == types.TransactionNone {
		return e.applyRun(ctx, session, script, run)
	}

	tx, err := session.Begin(ctx)
	if err != nil {
		run.Status = RunFailed
		run.Error = fmt.Errorf("failed to begin transaction: %w", err)
		return run.Error
	}
	if err := e.applyRun(ctx, tx, script, run); err != nil {
		e.rollback(tx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		run.Status = RunFailed
		run.Error = fmt.Errorf("failed to commit %s: %w", script.File.Name, err)
		return run.Error
	}
	return nil
}

// applyRun runs the statements of a script on db and records it in the journal
func (e *Executor) applyRun(ctx context.Context, db database.Execer, script *parser.ParsedScript, run *ScriptRun) error {
	run.StartTime = e.now()
	defer func() { run.EndTime = e.now() }()

	e.log.Infow(fmt.Sprintf("Executing Database Server script '%s'", script.File.Name),
		"statements", len(script.Statements))

	err := e.runStatements(ctx, db, script, e.log.With("script", script.File.Name))
	if err == nil {
		err = e.journal.Record(ctx, db, script.File.Name, e.now())
	}
	if err != nil {
		run.Status = RunFailed
		run.Error = err
		return err
	}
	run.Status = RunApplied
	return nil
}

func (e *Executor) runStatements(ctx context.Context, db database.Execer, script *parser.ParsedScript, log *logger.Logger) error {
	for _, stmt := range script.Statements {
		log.Debugw("Executing statement",
			"statement", stmt.Index,
			"line", stmt.StartLine,
			"keyword", stmt.Keyword())

		stmtCtx, cancel := e.statementContext(ctx)
		err := db.Exec(stmtCtx, stmt.RawSQL)
		cancel()
		if err != nil {
			return e.statementError(script, stmt, err)
		}
	}
	return nil
}

func (e *Executor) statementContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return context.WithCancel(ctx)
}

// statementError attributes a failed statement to its script location and logs it
func (e *Executor) statementError(script *parser.ParsedScript, stmt *parser.Statement, err error) *errors.ScriptError {
	line := stmt.StartLine
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Position > 0 {
		line = stmt.LineOfPosition(int(pgErr.Position))
	}

	scriptErr := errors.NewScriptError(script.File.Name, stmt.Index, line, stmt.RawSQL, err)

	e.log.Error("Script block number: %d; Block line %d; Position: %d; Message: %s",
		stmt.Index, line-stmt.StartLine+1, scriptErr.Position, err)
	e.log.Errorw("Failed statement",
		"script", script.File.Name,
		"line", line,
		"sqlstate", scriptErr.Code,
		"sql", stmt.Preview(200))
	return scriptErr
}

func (e *Executor) rollback(tx database.Tx) {
	// The statement context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tx.Rollback(ctx); err != nil {
		e.log.Errorw("Rollback failed", "error", err)
		return
	}
	e.log.Info("Transaction rolled back")
}

// Status reports the journal state of every file
func (e *Executor) Status(ctx context.Context, files []discovery.DiscoveredFile) ([]ScriptStatus, error) {
	exists, err := e.journal.Exists(ctx, e.conn)
	if err != nil {
		return nil, err
	}

	var applied []string
	if exists {
		if applied, err = e.journal.AppliedScripts(ctx, e.conn); err != nil {
			return nil, err
		}
	}

	done := make(map[string]bool, len(applied))
	for _, name := range applied {
		done[name] = true
	}

	statuses := make([]ScriptStatus, 0, len(files))
	known := make(map[string]bool, len(files))
	for _, file := range files {
		known[file.Name] = true
		state := StatePending
		switch {
		case file.Type == discovery.FileTypeRollback:
			state = StateRollback
		case done[file.Name]:
			state = StateApplied
		}
		statuses = append(statuses, ScriptStatus{Name: file.Name, State: state})
	}
	for _, name := range applied {
		if !known[name] {
			statuses = append(statuses, ScriptStatus{Name: name, State: StateOrphaned})
		}
	}
	return statuses, nil
}

func markRemaining(runs []*ScriptRun, status RunStatus) {
	for _, run := range runs {
		run.Status = status
	}
}
