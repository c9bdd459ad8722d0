package report

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"rpy/internal/evaluator"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS test_runs (
		id VARCHAR(36) PRIMARY KEY,
		program VARCHAR(1024) NOT NULL,
		started_at VARCHAR(32) NOT NULL,
		passed INTEGER NOT NULL,
		failed INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS test_results (
		run_id VARCHAR(36) NOT NULL,
		name VARCHAR(512) NOT NULL,
		status VARCHAR(16) NOT NULL,
		detail TEXT NOT NULL,
		PRIMARY KEY (run_id, name)
	)`,
}

// Run is one recorded ExecuteTests invocation.
type Run struct {
	ID        uuid.UUID
	Program   string
	StartedAt time.Time
	Passed    int
	Failed    int
}

// Store records test runs in a SQL database. Supported drivers are sqlite3,
// mysql and postgres.
type Store struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case "sqlite3", "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported report driver '%s'", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	slog.Debug("report store opened", slog.String("driver", driver))
	return &Store{db: db, driver: driver, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var out strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			out.WriteString("$" + strconv.Itoa(n))
			continue
		}
		out.WriteRune(c)
	}
	return out.String()
}

// Migrate creates the tables when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate failed: %w", err)
		}
	}
	return nil
}

func NewRunID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

// SaveRun stores results under runID in one transaction.
func (s *Store) SaveRun(ctx context.Context, runID uuid.UUID, program string, results *evaluator.TestResults) (Run, error) {
	run := Run{
		ID:        runID,
		Program:   program,
		StartedAt: s.now().UTC(),
		Passed:    results.Count(evaluator.Passed),
		Failed:    results.Count(evaluator.Failed),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("begin failed: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		s.rebind("INSERT INTO test_runs (id, program, started_at, passed, failed) VALUES (?, ?, ?, ?, ?)"),
		run.ID.String(), run.Program, run.StartedAt.Format(timeLayout), run.Passed, run.Failed)
	if err != nil {
		return Run{}, fmt.Errorf("insert run failed: %w", err)
	}

	insert := s.rebind("INSERT INTO test_results (run_id, name, status, detail) VALUES (?, ?, ?, ?)")
	for _, res := range results.All() {
		if _, err := tx.ExecContext(ctx, insert, run.ID.String(), res.Name, string(res.Status), res.Detail); err != nil {
			return Run{}, fmt.Errorf("insert result %s failed: %w", res.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit failed: %w", err)
	}
	slog.Info("test run recorded",
		slog.String("run", run.ID.String()),
		slog.Int("passed", run.Passed),
		slog.Int("failed", run.Failed))
	return run, nil
}

// Runs lists every recorded run, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, program, started_at, passed, failed FROM test_runs ORDER BY started_at, id")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			id        string
			startedAt string
		)
		if err := rows.Scan(&id, &run.Program, &startedAt, &run.Passed, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("bad run id '%s': %w", id, err)
		}
		if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("bad timestamp '%s': %w", startedAt, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Results returns the results of one run in name order.
func (s *Store) Results(ctx context.Context, runID uuid.UUID) (*evaluator.TestResults, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind("SELECT name, status, detail FROM test_results WHERE run_id = ?"),
		runID.String())
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	results := evaluator.NewTestResults()
	for rows.Next() {
		var res evaluator.TestResult
		var status string
		if err := rows.Scan(&res.Name, &status, &res.Detail); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		res.Status = evaluator.TestStatus(status)
		results.Add(res)
	}
	return results, rows.Err()
}
