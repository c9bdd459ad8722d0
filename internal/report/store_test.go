package report

import (
	"context"
	"path/filepath"
	"rpy/internal/evaluator"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("sqlite3", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func sampleResults() *evaluator.TestResults {
	results := evaluator.NewTestResults()
	results.Add(evaluator.TestResult{Name: "math::test_wrong", Status: evaluator.Failed, Detail: "1 + 1 is not 3"})
	results.Add(evaluator.TestResult{Name: "math::test_add", Status: evaluator.Passed})
	return results
}

func TestSaveAndLoadRun(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	store.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 5, time.UTC) }

	id, err := NewRunID()
	require.NoError(t, err)

	run, err := store.SaveRun(ctx, id, "math.json", sampleResults())
	require.NoError(t, err)
	require.Equal(t, 1, run.Passed)
	require.Equal(t, 1, run.Failed)

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, id, runs[0].ID)
	require.Equal(t, "math.json", runs[0].Program)
	require.True(t, runs[0].StartedAt.Equal(store.now()))

	results, err := store.Results(ctx, id)
	require.NoError(t, err)
	require.Equal(t, sampleResults().All(), results.All())
}

func TestRunsAreOrdered(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		at := start.Add(time.Duration(2-i) * time.Hour)
		store.now = func() time.Time { return at }
		id, err := NewRunID()
		require.NoError(t, err)
		_, err = store.SaveRun(ctx, id, "p.json", evaluator.NewTestResults())
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	require.Equal(t, ids[2], runs[0].ID)
	require.Equal(t, ids[1], runs[1].ID)
	require.Equal(t, ids[0], runs[2].ID)
}

func TestResultsOfUnknownRun(t *testing.T) {
	store := openStore(t)
	results, err := store.Results(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Equal(t, 0, results.Len())
}

func TestDuplicateRunIsRejected(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	id := uuid.New()

	_, err := store.SaveRun(ctx, id, "p.json", sampleResults())
	require.NoError(t, err)
	_, err = store.SaveRun(ctx, id, "p.json", sampleResults())
	require.Error(t, err)

	results, err := store.Results(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 2, results.Len())
}

func TestMigrateTwice(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: "postgres"}
	require.Equal(t, "VALUES ($1, $2, $3)", pg.rebind("VALUES (?, ?, ?)"))

	lite := &Store{driver: "sqlite3"}
	require.Equal(t, "VALUES (?, ?)", lite.rebind("VALUES (?, ?)"))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	require.ErrorContains(t, err, "unsupported report driver")
}
