// Package scorer provides speech probability scorers for the vad engine
package scorer

import (
	"fmt"

	"github.com/lexiqai/realtime-vad/internal/audio"
	"github.com/lexiqai/realtime-vad/internal/vad"
)

// EnergyConfig holds configuration for the energy scorer
type EnergyConfig struct {
	FloorDBFS   float64 // Level at or below which a frame scores 0
	CeilingDBFS float64 // Level at or above which a frame scores 1
}

// DefaultEnergyConfig returns a default energy scorer configuration
func DefaultEnergyConfig() EnergyConfig {
	return EnergyConfig{
		FloorDBFS:   -55.0, // quiet room
		CeilingDBFS: -25.0, // normal speech close to the mic
	}
}

// Energy scores a frame by its RMS level: a linear ramp in dBFS between
// FloorDBFS and CeilingDBFS. It is stateless and needs no model
type Energy struct {
	config EnergyConfig
}

// NewEnergy creates a new energy scorer
func NewEnergy(config EnergyConfig) (*Energy, error) {
	if config.CeilingDBFS <= config.FloorDBFS {
		return nil, fmt.Errorf("energy scorer: ceiling %.1f dBFS must be above floor %.1f dBFS", config.CeilingDBFS, config.FloorDBFS)
	}
	return &Energy{config: config}, nil
}

// Score implements vad.Scorer
func (e *Energy) Score(frame []float32, _ vad.SampleRate, _ vad.ModelVersion) (float64, error) {
	if len(frame) == 0 {
		return 0, fmt.Errorf("energy scorer: empty frame")
	}

	db := audio.RMSToDBFS(audio.CalculateRMS(frame))
	switch {
	case db <= e.config.FloorDBFS:
		return 0, nil
	case db >= e.config.CeilingDBFS:
		return 1, nil
	}
	return (db - e.config.FloorDBFS) / (e.config.CeilingDBFS - e.config.FloorDBFS), nil
}

var _ vad.Scorer = (*Energy)(nil)
