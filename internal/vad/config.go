package vad

import (
	"fmt"
	"math"
	"time"
)

// SampleRate is one of the input rates the engine accepts
type SampleRate int

const (
	SampleRate8k  SampleRate = 8000
	SampleRate16k SampleRate = 16000
	SampleRate24k SampleRate = 24000
	SampleRate48k SampleRate = 48000
)

// Valid reports whether r is one of the supported rates
func (r SampleRate) Valid() bool {
	switch r {
	case SampleRate8k, SampleRate16k, SampleRate24k, SampleRate48k:
		return true
	}
	return false
}

// ParseSampleRate maps a rate in Hz to a SampleRate
func ParseSampleRate(hz int) (SampleRate, error) {
	r := SampleRate(hz)
	if !r.Valid() {
		return 0, &ConfigError{Field: "sample_rate", Reason: fmt.Sprintf("unsupported rate %d Hz (want 8000, 16000, 24000 or 48000)", hz)}
	}
	return r, nil
}

// ModelVersion selects the scorer variant. It only changes the frame duration
type ModelVersion int

const (
	ModelV4 ModelVersion = iota
	ModelV5
)

func (v ModelVersion) String() string {
	switch v {
	case ModelV4:
		return "v4"
	case ModelV5:
		return "v5"
	}
	return fmt.Sprintf("ModelVersion(%d)", int(v))
}

// Valid reports whether v is a known model version
func (v ModelVersion) Valid() bool {
	return v == ModelV4 || v == ModelV5
}

// FrameDuration is the audio duration the scorer consumes per frame
func (v ModelVersion) FrameDuration() time.Duration {
	if v == ModelV4 {
		return 64 * time.Millisecond
	}
	return 32 * time.Millisecond
}

// ParseModelVersion accepts "v4" or "v5"
func ParseModelVersion(s string) (ModelVersion, error) {
	switch s {
	case "v4":
		return ModelV4, nil
	case "v5":
		return ModelV5, nil
	}
	return 0, &ConfigError{Field: "model_version", Reason: fmt.Sprintf("unknown model version %q (want v4 or v5)", s)}
}

// Config holds the engine configuration. It is treated as an immutable value:
// replace it as a whole through Engine.Configure
type Config struct {
	SampleRate   SampleRate
	ModelVersion ModelVersion

	// StartThreshold: an idle frame counts as speech when p >= StartThreshold
	StartThreshold float64
	// EndThreshold: an active frame counts as non-speech when p <= EndThreshold
	EndThreshold float64

	// StartTrueRatio is the share of speech frames in the start window that triggers START
	StartTrueRatio float64
	// EndFalseRatio is the share of non-speech frames in the end window that triggers END
	EndFalseRatio float64

	StartFrameCount int
	EndFrameCount   int
}

// DefaultConfig returns the recommended tuning for 16 kHz input with the v5 model
func DefaultConfig() Config {
	return Config{
		SampleRate:      SampleRate16k,
		ModelVersion:    ModelV5,
		StartThreshold:  0.7,
		EndThreshold:    0.7,
		StartTrueRatio:  0.8,
		EndFalseRatio:   0.95,
		StartFrameCount: 10,
		EndFrameCount:   57,
	}
}

// FrameSize is the number of samples in one scored frame
func (c Config) FrameSize() int {
	return int(c.SampleRate) * int(c.ModelVersion.FrameDuration()/time.Millisecond) / 1000
}

// Validate checks every invariant and returns a *ConfigError for the first violation
func (c Config) Validate() error {
	if !c.SampleRate.Valid() {
		return &ConfigError{Field: "sample_rate", Reason: fmt.Sprintf("unsupported rate %d Hz", int(c.SampleRate))}
	}
	if !c.ModelVersion.Valid() {
		return &ConfigError{Field: "model_version", Reason: fmt.Sprintf("unknown model version %d", int(c.ModelVersion))}
	}
	if err := checkUnit("start_threshold", c.StartThreshold, true); err != nil {
		return err
	}
	if err := checkUnit("end_threshold", c.EndThreshold, true); err != nil {
		return err
	}
	if err := checkUnit("start_true_ratio", c.StartTrueRatio, false); err != nil {
		return err
	}
	if err := checkUnit("end_false_ratio", c.EndFalseRatio, false); err != nil {
		return err
	}
	if c.StartFrameCount < 1 {
		return &ConfigError{Field: "start_frame_count", Reason: fmt.Sprintf("must be >= 1, got %d", c.StartFrameCount)}
	}
	if c.EndFrameCount < 1 {
		return &ConfigError{Field: "end_frame_count", Reason: fmt.Sprintf("must be >= 1, got %d", c.EndFrameCount)}
	}
	return nil
}

// checkUnit accepts [0,1] when zeroOK, (0,1] otherwise
func checkUnit(field string, v float64, zeroOK bool) error {
	if math.IsNaN(v) || v > 1 || v < 0 || (!zeroOK && v == 0) {
		if zeroOK {
			return &ConfigError{Field: field, Reason: fmt.Sprintf("must be in [0,1], got %v", v)}
		}
		return &ConfigError{Field: field, Reason: fmt.Sprintf("must be in (0,1], got %v", v)}
	}
	return nil
}

// sameGeometry reports whether two configs cut frames identically
func (c Config) sameGeometry(o Config) bool {
	return c.SampleRate == o.SampleRate && c.ModelVersion == o.ModelVersion
}
