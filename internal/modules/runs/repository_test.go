package runs

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aristath/thalia/internal/domain"
	testingpkg "github.com/aristath/thalia/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "runs")
	t.Cleanup(cleanup)
	return NewRepository(db.Conn(), zerolog.Nop())
}

func sampleRun() Run {
	return Run{
		Strategy:    "pso",
		Topology:    domain.Topology{Assets: 6, Lags: 3, Neurons: 10},
		Omega:       2,
		Particles:   20,
		Iterations:  100,
		Seed:        7,
		BestLoss:    -1.5,
		Evaluations: 2000,
		WeightsPath: "out/best.msgpack",
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepository(t)

	id, err := repo.Create(sampleRun())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	run, err := repo.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, "pso", run.Strategy)
	assert.Equal(t, domain.Topology{Assets: 6, Lags: 3, Neurons: 10}, run.Topology)
	assert.Equal(t, -1.5, run.BestLoss)
	assert.Equal(t, int64(7), run.Seed)
	assert.WithinDuration(t, time.Now(), run.CreatedAt, time.Minute)

	_, err = repo.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRepository_Latest(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Latest()
	assert.True(t, errors.Is(err, ErrNotFound))

	older := sampleRun()
	older.CreatedAt = time.Now().Add(-time.Hour)
	_, err = repo.Create(older)
	require.NoError(t, err)

	newer := sampleRun()
	newer.Strategy = "cmaes"
	newID, err := repo.Create(newer)
	require.NoError(t, err)

	latest, err := repo.Latest()
	require.NoError(t, err)
	assert.Equal(t, newID, latest.ID)
}

func TestRepository_InfiniteLossIsStored(t *testing.T) {
	repo := newTestRepository(t)
	run := sampleRun()
	run.BestLoss = math.Inf(1)

	id, err := repo.Create(run)
	require.NoError(t, err)
	got, err := repo.Get(id)
	require.NoError(t, err)
	assert.Equal(t, math.MaxFloat64, got.BestLoss)
}

func TestRepository_SegmentResults(t *testing.T) {
	repo := newTestRepository(t)
	id, err := repo.Create(sampleRun())
	require.NoError(t, err)

	err = repo.AddSegmentResults([]SegmentResult{
		{RunID: id, Segment: 1, Role: "validation", Rows: 40, Metric: 0.4, FinalCash: 104, MaxDrawdown: 0.1},
		{RunID: id, Segment: 0, Role: "train", Rows: 40, Metric: 1.2, FinalCash: 130, MaxDrawdown: 0.05},
		{RunID: id, Segment: 2, Role: "out_of_sample", Rows: 80, Metric: math.NaN(), FinalCash: 100, Degenerate: true},
	})
	require.NoError(t, err)

	results, err := repo.ListSegmentResults(id)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "train", results[0].Role)
	assert.Equal(t, 1.2, results[0].Metric)
	assert.Equal(t, 0.05, results[0].MaxDrawdown)
	assert.Equal(t, "validation", results[1].Role)
	assert.True(t, results[2].Degenerate)
	assert.True(t, math.IsNaN(results[2].Metric))
}

func TestRepository_SegmentResultsAreAtomic(t *testing.T) {
	repo := newTestRepository(t)
	id, err := repo.Create(sampleRun())
	require.NoError(t, err)

	err = repo.AddSegmentResults([]SegmentResult{
		{RunID: id, Segment: 0, Role: "train", Rows: 10, Metric: 1, FinalCash: 101},
		{RunID: id, Segment: 0, Role: "train", Rows: 10, Metric: 1, FinalCash: 101}, // duplicate key
	})
	require.Error(t, err)

	results, err := repo.ListSegmentResults(id)
	require.NoError(t, err)
	assert.Empty(t, results)

	err = repo.AddSegmentResults([]SegmentResult{{RunID: "unknown", Segment: 0, Role: "train"}})
	assert.Error(t, err, "foreign key must reject unknown runs")
}

func TestRepository_AddSegmentResult(t *testing.T) {
	repo := newTestRepository(t)
	id, err := repo.Create(sampleRun())
	require.NoError(t, err)

	require.NoError(t, repo.AddSegmentResult(SegmentResult{RunID: id, Segment: 0, Role: "train", Rows: 12, Metric: 0.8, FinalCash: 110}))

	results, err := repo.ListSegmentResults(id)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 12, results[0].Rows)
}

func TestRepository_CreateKeepsGivenID(t *testing.T) {
	repo := newTestRepository(t)
	run := sampleRun()
	run.ID = NewID()

	id, err := repo.Create(run)
	require.NoError(t, err)
	assert.Equal(t, run.ID, id)
	assert.NotEqual(t, id, NewID())
}
