package optimization

import (
	"fmt"
	"strconv"
	"strings"
)

// Preset trades particle count against iteration count
type Preset struct {
	Name       string
	Particles  int
	Iterations int
}

// Presets are ordered from cheapest to most thorough. Their positions are the
// numeric method codes 0..3.
var Presets = []Preset{
	{Name: "cheap", Particles: 20, Iterations: 50},
	{Name: "default", Particles: 20, Iterations: 100},
	{Name: "thorough", Particles: 100, Iterations: 100},
	{Name: "exhaustive", Particles: 100, Iterations: 200},
}

// LookupPreset finds a preset by name or numeric code
func LookupPreset(name string) (Preset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "default"
	}
	if code, err := strconv.Atoi(key); err == nil {
		if code < 0 || code >= len(Presets) {
			return Preset{}, fmt.Errorf("unknown search preset %d", code)
		}
		return Presets[code], nil
	}
	for _, p := range Presets {
		if p.Name == key {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("unknown search preset %q", name)
}

// PresetConfig returns the default swarm hyperparameters sized by a preset
func PresetConfig(name string) (SwarmConfig, error) {
	p, err := LookupPreset(name)
	if err != nil {
		return SwarmConfig{}, err
	}
	cfg := DefaultSwarmConfig()
	cfg.ParticleCount = p.Particles
	cfg.Iterations = p.Iterations
	return cfg, nil
}

// Strategy names accepted by NewOptimizer
const (
	StrategySwarm = "pso"
	StrategyCMAES = "cmaes"
)

// NewOptimizer builds the named search strategy from a swarm configuration
func NewOptimizer(strategy string, cfg SwarmConfig) (Optimizer, error) {
	switch strings.ToLower(strategy) {
	case "", StrategySwarm:
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return NewGlobalBestPSO(cfg), nil
	case StrategyCMAES:
		return NewCMAES(cfg), nil
	default:
		return nil, fmt.Errorf("unknown search strategy %q", strategy)
	}
}
