package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupPreset(t *testing.T) {
	tests := []struct {
		name       string
		particles  int
		iterations int
		wantErr    bool
	}{
		{"cheap", 20, 50, false},
		{"default", 20, 100, false},
		{"", 20, 100, false},
		{"Thorough", 100, 100, false},
		{"exhaustive", 100, 200, false},
		{"0", 20, 50, false},
		{"3", 100, 200, false},
		{"4", 0, 0, true},
		{"-1", 0, 0, true},
		{"turbo", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LookupPreset(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.particles, p.Particles)
			assert.Equal(t, tt.iterations, p.Iterations)
		})
	}
}

func TestPresetConfig_KeepsDefaultHyperparameters(t *testing.T) {
	cfg, err := PresetConfig("thorough")
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.ParticleCount)
	assert.Equal(t, 100, cfg.Iterations)
	assert.Equal(t, 0.5, cfg.PersonalWeight)
	assert.Equal(t, 0.3, cfg.GlobalWeight)
	assert.Equal(t, 0.9, cfg.InertiaWeight)
}

func TestNewOptimizer(t *testing.T) {
	cfg := DefaultSwarmConfig()

	opt, err := NewOptimizer("pso", cfg)
	require.NoError(t, err)
	assert.IsType(t, &GlobalBestPSO{}, opt)

	opt, err = NewOptimizer("", cfg)
	require.NoError(t, err)
	assert.IsType(t, &GlobalBestPSO{}, opt)

	opt, err = NewOptimizer("CMAES", cfg)
	require.NoError(t, err)
	assert.IsType(t, &CMAES{}, opt)

	_, err = NewOptimizer("annealing", cfg)
	assert.Error(t, err)

	cfg.ParticleCount = 0
	_, err = NewOptimizer("pso", cfg)
	assert.Error(t, err)
}
