// Package main is the entry point for thalia, which trains a small allocation
// network with a particle swarm and backtests it on held-out data.
//
// Usage:
//
//	optimizer [train|report]
//
// train (the default) splits the price file, searches weights on the first
// segment, stores them and reports every segment. report reloads stored
// weights and only evaluates.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/aristath/thalia/internal/config"
	"github.com/aristath/thalia/internal/database"
	"github.com/aristath/thalia/internal/domain"
	"github.com/aristath/thalia/internal/modules/dataset"
	"github.com/aristath/thalia/internal/modules/features"
	"github.com/aristath/thalia/internal/modules/optimization"
	"github.com/aristath/thalia/internal/modules/report"
	"github.com/aristath/thalia/internal/modules/runs"
	"github.com/aristath/thalia/internal/modules/weights"
	"github.com/aristath/thalia/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	mode := "train"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	// Interrupting a search keeps the best weights found so far
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reports []report.SegmentReport
	switch mode {
	case "train":
		reports, err = train(ctx, cfg, log)
	case "report":
		reports, err = evaluateStored(ctx, cfg, log)
	default:
		err = fmt.Errorf("unknown command %q (want train or report)", mode)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", mode).Msg("Run failed")
	}

	printSummary(os.Stdout, reports)
}

// prepare loads the price file, fixes the topology and splits the table
func prepare(cfg *config.Config, log zerolog.Logger) ([]*domain.PriceTable, domain.Topology, error) {
	pt, err := dataset.LoadCSVFile(cfg.Input, dataset.LoadOptions{
		DateColumn:   cfg.DateColumn,
		DecimalComma: cfg.DecimalComma,
	})
	if err != nil {
		return nil, domain.Topology{}, err
	}

	topo := domain.Topology{
		Assets:  cfg.Experiment.Assets,
		Lags:    cfg.Experiment.Lags,
		Neurons: cfg.Experiment.Neurons,
	}
	if topo.Assets == 0 {
		topo.Assets = pt.NumAssets()
	}
	if topo.Assets != pt.NumAssets() {
		return nil, topo, &domain.DimensionMismatchError{What: "n_actions against price columns", Got: topo.Assets, Expected: pt.NumAssets()}
	}
	if err := topo.Validate(); err != nil {
		return nil, topo, err
	}

	parts, err := dataset.Split(pt, cfg.Experiment.Splits)
	if err != nil {
		return nil, topo, err
	}

	log.Info().
		Str("input", cfg.Input).
		Int("rows", pt.Len()).
		Strs("assets", pt.Assets).
		Int("segments", len(parts)).
		Msg("Prices loaded")
	return parts, topo, nil
}

func train(ctx context.Context, cfg *config.Config, log zerolog.Logger) ([]report.SegmentReport, error) {
	parts, topo, err := prepare(cfg, log)
	if err != nil {
		return nil, err
	}

	ft, err := features.LagVariables(parts[0], topo.Lags)
	if err != nil {
		return nil, fmt.Errorf("failed to build training features: %w", err)
	}

	swarmCfg, err := cfg.SwarmConfig()
	if err != nil {
		return nil, err
	}
	opt, err := optimization.NewOptimizer(cfg.Experiment.Strategy, swarmCfg)
	if err != nil {
		return nil, err
	}

	driver := optimization.NewDriver(opt, log,
		optimization.WithWorkers(cfg.Experiment.Workers),
		optimization.WithBenchmark(cfg.Experiment.Benchmark),
	)
	res, err := driver.Search(ctx, ft, parts[0], topo, cfg.Experiment.Omega)
	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		return nil, err
	}
	if res == nil || len(res.BestPosition) != topo.Dimensions() {
		if err != nil {
			return nil, fmt.Errorf("search stopped before producing weights: %w", err)
		}
		return nil, fmt.Errorf("search produced no weights")
	}

	db, err := openRunStore(context.WithoutCancel(ctx), cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	repo := runs.NewRepository(db.Conn(), log)

	// weights go to disk before the run row so a stored run always has its file
	runID := runs.NewID()
	if err := weights.Save(cfg.WeightsPath, &weights.File{
		Topology:  topo,
		Weights:   res.BestPosition,
		Loss:      res.BestLoss,
		Omega:     cfg.Experiment.Omega,
		RunID:     runID,
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, err
	}

	if _, err := repo.Create(runs.Run{
		ID:          runID,
		Strategy:    cfg.Experiment.Strategy,
		Topology:    topo,
		Omega:       cfg.Experiment.Omega,
		Particles:   swarmCfg.ParticleCount,
		Iterations:  res.Iterations,
		Seed:        swarmCfg.Seed,
		BestLoss:    res.BestLoss,
		Evaluations: res.Evaluations,
		WeightsPath: cfg.WeightsPath,
	}); err != nil {
		return nil, err
	}
	log.Info().Str("run_id", runID).Str("path", cfg.WeightsPath).Bool("interrupted", interrupted).Msg("Best weights saved")

	// reporting is quick and still runs after an interrupted search
	reports, err := evaluate(context.WithoutCancel(ctx), cfg, parts, res.BestPosition, topo)
	if err != nil {
		return nil, err
	}
	if err := repo.AddSegmentResults(segmentResults(runID, reports)); err != nil {
		return nil, err
	}
	return reports, nil
}

func evaluateStored(ctx context.Context, cfg *config.Config, log zerolog.Logger) ([]report.SegmentReport, error) {
	stored, err := weights.Load(cfg.WeightsPath)
	if err != nil {
		return nil, err
	}

	// the stored topology is authoritative for the network shape
	cfg.Experiment.Assets = stored.Topology.Assets
	cfg.Experiment.Lags = stored.Topology.Lags
	cfg.Experiment.Neurons = stored.Topology.Neurons

	parts, topo, err := prepare(cfg, log)
	if err != nil {
		return nil, err
	}
	log.Info().Str("run_id", stored.RunID).Float64("loss", stored.Loss).Msg("Stored weights loaded")
	return evaluate(ctx, cfg, parts, stored.Weights, topo)
}

func evaluate(ctx context.Context, cfg *config.Config, parts []*domain.PriceTable, w domain.WeightVector, topo domain.Topology) ([]report.SegmentReport, error) {
	segments, err := report.DefaultSegments(parts)
	if err != nil {
		return nil, err
	}
	return report.Evaluate(ctx, segments, w, topo, cfg.Experiment.ReportOmega,
		report.WithBenchmark(cfg.Experiment.Benchmark),
		report.WithConcurrency(cfg.Experiment.Workers),
	)
}

func openRunStore(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath,
		Profile: database.ProfileStandard,
		Name:    "runs",
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func segmentResults(runID string, reports []report.SegmentReport) []runs.SegmentResult {
	out := make([]runs.SegmentResult, 0, len(reports))
	for _, r := range reports {
		out = append(out, runs.SegmentResult{
			RunID:       runID,
			Segment:     r.Segment.Index,
			Role:        r.Segment.Role,
			Rows:        r.Rows,
			Metric:      r.Metric,
			FinalCash:   r.FinalCash,
			MaxDrawdown: r.MaxDrawdown,
			Degenerate:  r.Degenerate,
		})
	}
	return out
}

func printSummary(w io.Writer, reports []report.SegmentReport) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEGMENT\tROLE\tROWS\tMETRIC\tFINAL CASH\tMAX DRAWDOWN")
	for _, r := range reports {
		metric := fmt.Sprintf("%.4f", r.Metric)
		if r.Degenerate {
			metric = "degenerate"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%.2f\t%.2f%%\n",
			r.Segment.Index, r.Segment.Role, r.Rows, metric, r.FinalCash, r.MaxDrawdown*100)
	}
	tw.Flush()
}
