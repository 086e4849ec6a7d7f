package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/thalia/internal/config"
	"github.com/aristath/thalia/internal/database"
	"github.com/aristath/thalia/internal/modules/report"
	"github.com/aristath/thalia/internal/modules/runs"
	"github.com/aristath/thalia/internal/modules/weights"
	testingpkg "github.com/aristath/thalia/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrices(t *testing.T, dir string, rows int) string {
	t.Helper()
	path := filepath.Join(dir, "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(testingpkg.PricesCSV(testingpkg.WavePrices(rows))), 0644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		DataDir:      dir,
		Input:        writePrices(t, dir, 60),
		WeightsPath:  filepath.Join(dir, "best.json"),
		DatabasePath: filepath.Join(dir, "runs.db"),
		Experiment: config.Experiment{
			Lags:        2,
			Neurons:     3,
			Omega:       2,
			ReportOmega: 1,
			Strategy:    "pso",
			Preset:      "cheap",
			Particles:   8,
			Iterations:  5,
			Seed:        3,
			Workers:     2,
			Splits:      3,
		},
	}
}

func TestTrain_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.Validate())

	reports, err := train(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, report.RoleTrain, reports[0].Segment.Role)
	assert.Equal(t, 20, reports[0].Rows)
	assert.Equal(t, 40, reports[2].Rows)

	stored, err := weights.Load(cfg.WeightsPath)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Topology.Assets)
	assert.Len(t, stored.Weights, stored.Topology.Dimensions())
	assert.NotEmpty(t, stored.RunID)

	db, err := database.New(database.Config{Path: cfg.DatabasePath, Name: "runs"})
	require.NoError(t, err)
	defer db.Close()
	repo := runs.NewRepository(db.Conn(), zerolog.Nop())

	run, err := repo.Latest()
	require.NoError(t, err)
	assert.Equal(t, stored.RunID, run.ID)
	assert.Equal(t, 5, run.Iterations)
	assert.Equal(t, 40, run.Evaluations)

	results, err := repo.ListSegmentResults(run.ID)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	// report mode reproduces the stored evaluation
	again, err := evaluateStored(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, again, 3)
	for i := range again {
		assert.Equal(t, reports[i].FinalCash, again[i].FinalCash)
	}

	var out bytes.Buffer
	printSummary(&out, again)
	assert.Contains(t, out.String(), "out_of_sample")
}

func TestPrepare_AssetCountMismatch(t *testing.T) {
	cfg := testConfig(t)
	cfg.Experiment.Assets = 6

	_, _, err := prepare(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestTrain_FailedWeightSaveLeavesNoRun(t *testing.T) {
	cfg := testConfig(t)
	// the weights directory would have to be created under a regular file
	blocker := filepath.Join(cfg.DataDir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	cfg.WeightsPath = filepath.Join(blocker, "best.json")

	_, err := train(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)

	db, err := database.New(database.Config{Path: cfg.DatabasePath, Name: "runs"})
	require.NoError(t, err)
	defer db.Close()

	_, err = runs.NewRepository(db.Conn(), zerolog.Nop()).Latest()
	assert.ErrorIs(t, err, runs.ErrNotFound)
}
