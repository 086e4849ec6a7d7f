package optimization

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

// SwarmConfig configures the global-best particle swarm
type SwarmConfig struct {
	ParticleCount  int     `yaml:"particles"`
	Iterations     int     `yaml:"iterations"`
	PersonalWeight float64 `yaml:"c1"` // attraction to each particle's best position
	GlobalWeight   float64 `yaml:"c2"` // attraction to the swarm's best position
	InertiaWeight  float64 `yaml:"w"`  // momentum kept from the previous velocity
	InitLow        float64 `yaml:"init_low"`
	InitHigh       float64 `yaml:"init_high"`
	Bounds         *Box    `yaml:"bounds"` // nil leaves motion unbounded
	Seed           int64   `yaml:"seed"`
}

// DefaultSwarmConfig returns c1=0.5, c2=0.3, w=0.9 with 20 particles for 100
// iterations, initialized uniformly in [0, 1)
func DefaultSwarmConfig() SwarmConfig {
	return SwarmConfig{
		ParticleCount:  20,
		Iterations:     100,
		PersonalWeight: 0.5,
		GlobalWeight:   0.3,
		InertiaWeight:  0.9,
		InitLow:        0,
		InitHigh:       1,
		Seed:           1,
	}
}

// Validate checks the swarm configuration
func (c SwarmConfig) Validate() error {
	switch {
	case c.ParticleCount < 1:
		return fmt.Errorf("particle count must be positive, got %d", c.ParticleCount)
	case c.Iterations < 1:
		return fmt.Errorf("iteration count must be positive, got %d", c.Iterations)
	case c.InitHigh <= c.InitLow:
		return fmt.Errorf("init interval [%v, %v) is empty", c.InitLow, c.InitHigh)
	case c.Bounds != nil && c.Bounds.Upper <= c.Bounds.Lower:
		return fmt.Errorf("bounds [%v, %v] are empty", c.Bounds.Lower, c.Bounds.Upper)
	}
	return nil
}

// GlobalBestPSO is a star-topology particle swarm. With the same seed and a
// deterministic objective it produces the same result regardless of how the
// objective parallelizes a batch.
type GlobalBestPSO struct {
	Config SwarmConfig
}

// NewGlobalBestPSO creates a swarm optimizer
func NewGlobalBestPSO(cfg SwarmConfig) *GlobalBestPSO {
	return &GlobalBestPSO{Config: cfg}
}

// Minimize runs Config.Iterations iterations. Each iteration scores the whole
// swarm before any particle moves. On cancellation the best result so far is
// returned together with the context error.
func (p *GlobalBestPSO) Minimize(ctx context.Context, objective BatchObjective, dims int) (*Result, error) {
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dims < 1 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dims)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	span := cfg.InitHigh - cfg.InitLow

	positions := make([][]float64, cfg.ParticleCount)
	velocities := make([][]float64, cfg.ParticleCount)
	personalBest := make([][]float64, cfg.ParticleCount)
	personalCost := make([]float64, cfg.ParticleCount)
	for i := range positions {
		positions[i] = make([]float64, dims)
		velocities[i] = make([]float64, dims)
		for d := 0; d < dims; d++ {
			positions[i][d] = cfg.InitLow + rng.Float64()*span
			if cfg.Bounds != nil {
				positions[i][d] = cfg.Bounds.Clamp(positions[i][d])
			}
			velocities[i][d] = rng.Float64() * span
		}
		personalBest[i] = append([]float64(nil), positions[i]...)
		personalCost[i] = math.Inf(1)
	}

	res := &Result{
		BestLoss: math.Inf(1),
		History:  make([]float64, 0, cfg.Iterations),
	}
	globalIdx := -1

	for iter := 0; iter < cfg.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("swarm stopped after %d iterations: %w", iter, err)
		}

		costs := objective.EvaluateBatch(ctx, positions)
		if len(costs) != len(positions) {
			return nil, fmt.Errorf("objective returned %d losses for %d particles", len(costs), len(positions))
		}
		res.Evaluations += len(costs)

		for i, c := range costs {
			if c < personalCost[i] {
				personalCost[i] = c
				copy(personalBest[i], positions[i])
			}
			if personalCost[i] < res.BestLoss {
				res.BestLoss = personalCost[i]
				globalIdx = i
			}
		}
		if globalIdx >= 0 {
			res.BestPosition = append(res.BestPosition[:0], personalBest[globalIdx]...)
		}
		res.History = append(res.History, res.BestLoss)
		res.Iterations = iter + 1

		if iter == cfg.Iterations-1 {
			continue
		}
		globalBest := res.BestPosition
		if globalIdx < 0 {
			// nothing has scored yet; particle 0 stands in for the swarm best
			globalBest = personalBest[0]
		}
		p.move(rng, positions, velocities, personalBest, globalBest)
	}

	if res.BestPosition == nil {
		// every evaluation failed; report the first particle
		res.BestPosition = append([]float64(nil), positions[0]...)
	}
	return res, nil
}

// move applies v = w·v + c1·r1·(pbest-x) + c2·r2·(gbest-x), x += v
func (p *GlobalBestPSO) move(rng *rand.Rand, positions, velocities, personalBest [][]float64, globalBest []float64) {
	cfg := p.Config
	for i := range positions {
		x, v, pb := positions[i], velocities[i], personalBest[i]
		for d := range x {
			r1, r2 := rng.Float64(), rng.Float64()
			v[d] = cfg.InertiaWeight*v[d] +
				cfg.PersonalWeight*r1*(pb[d]-x[d]) +
				cfg.GlobalWeight*r2*(globalBest[d]-x[d])
			x[d] += v[d]
			if cfg.Bounds != nil {
				clamped := cfg.Bounds.Clamp(x[d])
				if clamped != x[d] {
					x[d] = clamped
					v[d] = 0
				}
			}
		}
	}
}
