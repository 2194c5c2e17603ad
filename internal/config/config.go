package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/lexiqai/realtime-vad/internal/scorer"
	"github.com/lexiqai/realtime-vad/internal/vad"
)

// Config holds all configuration for the realtime VAD service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Detector configuration; defaults suit 16 kHz input with the v5 model
	VADSampleRate      int     `envconfig:"VAD_SAMPLE_RATE" default:"16000"`   // 8000, 16000, 24000 or 48000
	VADModelVersion    string  `envconfig:"VAD_MODEL_VERSION" default:"v5"`    // v4 (64ms frames) or v5 (32ms frames)
	VADStartThreshold  float64 `envconfig:"VAD_START_THRESHOLD" default:"0.7"` // Idle frame is speech when p >= this
	VADEndThreshold    float64 `envconfig:"VAD_END_THRESHOLD" default:"0.7"`   // Active frame is non-speech when p <= this
	VADStartTrueRatio  float64 `envconfig:"VAD_START_TRUE_RATIO" default:"0.8"`
	VADEndFalseRatio   float64 `envconfig:"VAD_END_FALSE_RATIO" default:"0.95"`
	VADStartFrameCount int     `envconfig:"VAD_START_FRAME_COUNT" default:"10"`
	VADEndFrameCount   int     `envconfig:"VAD_END_FRAME_COUNT" default:"57"`

	// Scorer configuration
	Scorer              string  `envconfig:"SCORER" default:"energy"` // energy or webrtc
	ScorerEnergyFloor   float64 `envconfig:"SCORER_ENERGY_FLOOR" default:"-55"`
	ScorerEnergyCeiling float64 `envconfig:"SCORER_ENERGY_CEILING" default:"-25"`
	ScorerWebRTCMode    int     `envconfig:"SCORER_WEBRTC_MODE" default:"2"` // 0 (least aggressive) to 3

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Consecutive scoring failures before opening
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if _, err := cfg.VADConfig(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}
	if cfg.CircuitBreakerMaxFailures < 1 {
		return nil, fmt.Errorf("CIRCUIT_BREAKER_MAX_FAILURES must be at least 1")
	}

	return &cfg, nil
}

// VADConfig converts the detector settings into a validated vad.Config
func (c *Config) VADConfig() (vad.Config, error) {
	rate, err := vad.ParseSampleRate(c.VADSampleRate)
	if err != nil {
		return vad.Config{}, err
	}
	version, err := vad.ParseModelVersion(c.VADModelVersion)
	if err != nil {
		return vad.Config{}, err
	}

	cfg := vad.Config{
		SampleRate:      rate,
		ModelVersion:    version,
		StartThreshold:  c.VADStartThreshold,
		EndThreshold:    c.VADEndThreshold,
		StartTrueRatio:  c.VADStartTrueRatio,
		EndFalseRatio:   c.VADEndFalseRatio,
		StartFrameCount: c.VADStartFrameCount,
		EndFrameCount:   c.VADEndFrameCount,
	}
	if err := cfg.Validate(); err != nil {
		return vad.Config{}, err
	}
	return cfg, nil
}

// ScorerOptions returns the options for scorer.New
func (c *Config) ScorerOptions() scorer.Options {
	return scorer.Options{
		Kind: c.Scorer,
		Energy: scorer.EnergyConfig{
			FloorDBFS:   c.ScorerEnergyFloor,
			CeilingDBFS: c.ScorerEnergyCeiling,
		},
		WebRTCMode: c.ScorerWebRTCMode,
	}
}

// ResetTimeout returns the circuit breaker recovery delay
func (c *Config) ResetTimeout() time.Duration {
	return time.Duration(c.CircuitBreakerResetTimeout) * time.Second
}
