// Package runs records search runs and their segment evaluations in SQLite.
package runs

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aristath/thalia/internal/database"
	"github.com/aristath/thalia/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a run id is unknown
var ErrNotFound = errors.New("run not found")

// Run is a stored search run
type Run struct {
	ID          string
	Strategy    string
	Topology    domain.Topology
	Omega       float64
	Particles   int
	Iterations  int
	Seed        int64
	BestLoss    float64
	Evaluations int
	WeightsPath string
	CreatedAt   time.Time
}

// SegmentResult is the backtest of a run's best weights on one segment
type SegmentResult struct {
	RunID       string
	Segment     int
	Role        string // "train", "validation", "out_of_sample"
	Rows        int
	Metric      float64 // NaN when degenerate
	FinalCash   float64
	MaxDrawdown float64
	Degenerate  bool
}

// Repository handles run persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a run repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "runs").Logger(),
	}
}

// NewID returns a fresh run id
func NewID() string {
	return uuid.New().String()
}

// Create stores a run, assigning a new id and timestamp when unset
func (r *Repository) Create(run Run) (string, error) {
	if run.ID == "" {
		run.ID = NewID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO runs (id, strategy, assets, lags, neurons, omega, particles, iterations,
			seed, best_loss, evaluations, weights_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Strategy, run.Topology.Assets, run.Topology.Lags, run.Topology.Neurons,
		run.Omega, run.Particles, run.Iterations, run.Seed, finiteOrMax(run.BestLoss),
		run.Evaluations, run.WeightsPath, run.CreatedAt.Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	r.log.Debug().Str("run_id", run.ID).Float64("best_loss", run.BestLoss).Msg("Run stored")
	return run.ID, nil
}

// AddSegmentResult stores a single segment result
func (r *Repository) AddSegmentResult(res SegmentResult) error {
	return r.AddSegmentResults([]SegmentResult{res})
}

// AddSegmentResults stores segment results atomically
func (r *Repository) AddSegmentResults(results []SegmentResult) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		for _, res := range results {
			var metric sql.NullFloat64
			if !res.Degenerate && !math.IsNaN(res.Metric) && !math.IsInf(res.Metric, 0) {
				metric = sql.NullFloat64{Float64: res.Metric, Valid: true}
			}
			_, err := tx.Exec(`
				INSERT INTO segment_results (run_id, segment, role, rows, metric, final_cash, max_drawdown, degenerate)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				res.RunID, res.Segment, res.Role, res.Rows, metric, res.FinalCash, res.MaxDrawdown, boolToInt(res.Degenerate),
			)
			if err != nil {
				return fmt.Errorf("failed to insert segment %d of run %s: %w", res.Segment, res.RunID, err)
			}
		}
		return nil
	})
}

const runColumns = `id, strategy, assets, lags, neurons, omega, particles, iterations,
	seed, best_loss, evaluations, weights_path, created_at`

// Get returns a run by id
func (r *Repository) Get(id string) (*Run, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// Latest returns the most recently created run
func (r *Repository) Latest() (*Run, error) {
	row := r.db.QueryRow(`SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	return scanRun(row)
}

// ListSegmentResults returns a run's segment results ordered by segment
func (r *Repository) ListSegmentResults(runID string) ([]SegmentResult, error) {
	rows, err := r.db.Query(`
		SELECT run_id, segment, role, rows, metric, final_cash, max_drawdown, degenerate
		FROM segment_results WHERE run_id = ? ORDER BY segment`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segment results: %w", err)
	}
	defer rows.Close()

	var out []SegmentResult
	for rows.Next() {
		var res SegmentResult
		var metric sql.NullFloat64
		var degenerate int
		if err := rows.Scan(&res.RunID, &res.Segment, &res.Role, &res.Rows, &metric,
			&res.FinalCash, &res.MaxDrawdown, &degenerate); err != nil {
			return nil, fmt.Errorf("failed to scan segment result: %w", err)
		}
		res.Metric = math.NaN()
		if metric.Valid {
			res.Metric = metric.Float64
		}
		res.Degenerate = degenerate != 0
		out = append(out, res)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var createdAt int64
	err := row.Scan(&run.ID, &run.Strategy, &run.Topology.Assets, &run.Topology.Lags, &run.Topology.Neurons,
		&run.Omega, &run.Particles, &run.Iterations, &run.Seed, &run.BestLoss, &run.Evaluations,
		&run.WeightsPath, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.CreatedAt = time.Unix(createdAt, 0)
	return &run, nil
}

// finiteOrMax keeps +Inf losses (every candidate failed) storable
func finiteOrMax(v float64) float64 {
	if math.IsInf(v, 1) || math.IsNaN(v) {
		return math.MaxFloat64
	}
	if math.IsInf(v, -1) {
		return -math.MaxFloat64
	}
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
