package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/lexiqai/realtime-vad/internal/scorer"
	"github.com/lexiqai/realtime-vad/internal/vad"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}

	if cfg.VADSampleRate != 16000 {
		t.Errorf("Expected default VADSampleRate 16000, got %d", cfg.VADSampleRate)
	}

	if cfg.VADModelVersion != "v5" {
		t.Errorf("Expected default VADModelVersion 'v5', got '%s'", cfg.VADModelVersion)
	}

	if cfg.Scorer != scorer.KindEnergy {
		t.Errorf("Expected default Scorer 'energy', got '%s'", cfg.Scorer)
	}
}

func TestVADConfig_DefaultsMatchDetectorDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	got, err := cfg.VADConfig()
	if err != nil {
		t.Fatalf("VADConfig() failed: %v", err)
	}

	if want := vad.DefaultConfig(); got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("VAD_SAMPLE_RATE", "8000")
	t.Setenv("VAD_MODEL_VERSION", "v4")
	t.Setenv("VAD_START_FRAME_COUNT", "4")
	t.Setenv("SCORER", "webrtc")
	t.Setenv("SCORER_WEBRTC_MODE", "3")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	vc, err := cfg.VADConfig()
	if err != nil {
		t.Fatalf("VADConfig() failed: %v", err)
	}

	if vc.SampleRate != vad.SampleRate8k {
		t.Errorf("Expected 8000 Hz, got %d", vc.SampleRate)
	}
	if vc.ModelVersion != vad.ModelV4 {
		t.Errorf("Expected v4, got %s", vc.ModelVersion)
	}
	if vc.FrameSize() != 512 {
		t.Errorf("Expected frame size 512, got %d", vc.FrameSize())
	}
	if vc.StartFrameCount != 4 {
		t.Errorf("Expected start frame count 4, got %d", vc.StartFrameCount)
	}

	opts := cfg.ScorerOptions()
	if opts.Kind != scorer.KindWebRTC || opts.WebRTCMode != 3 {
		t.Errorf("Unexpected scorer options %+v", opts)
	}
}

func TestLoad_InvalidDetectorConfig(t *testing.T) {
	t.Setenv("VAD_SAMPLE_RATE", "44100")

	_, err := LoadFromEnv()
	if err == nil {
		t.Fatal("Expected error for unsupported sample rate")
	}
	if !errors.Is(err, vad.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestLoad_InvalidRatio(t *testing.T) {
	t.Setenv("VAD_END_FALSE_RATIO", "0")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error for zero end ratio")
	}
}

func TestLoad_InvalidBreaker(t *testing.T) {
	t.Setenv("CIRCUIT_BREAKER_MAX_FAILURES", "0")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error for zero breaker failures")
	}
}

func TestConfig_ResilienceDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.CircuitBreakerMaxFailures != 5 {
		t.Errorf("Expected default CircuitBreakerMaxFailures 5, got %d", cfg.CircuitBreakerMaxFailures)
	}

	if cfg.ResetTimeout() != 30*time.Second {
		t.Errorf("Expected default reset timeout 30s, got %s", cfg.ResetTimeout())
	}
}

func TestConfig_ObservabilityDefaults(t *testing.T) {
	// Clear LOG_LEVEL to ensure we get the default
	os.Unsetenv("LOG_LEVEL")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.LogPretty {
		t.Error("Expected default LogPretty false, got true")
	}

	if !cfg.MetricsEnabled {
		t.Error("Expected default MetricsEnabled true, got false")
	}
}
