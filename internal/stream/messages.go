package stream

import (
	"github.com/lexiqai/realtime-vad/internal/vad"
)

// Client events
const (
	EventConfigure = "configure"
	EventReset     = "reset"
	EventStop      = "stop"
)

// Server events
const (
	EventReady        = "ready"
	EventConfigured   = "configured"
	EventVoiceStarted = "voice_started"
	EventVoiceEnded   = "voice_ended"
	EventError        = "error"
)

// Error codes carried by EventError
const (
	CodeInvalidConfiguration = "invalid_configuration"
	CodeScoringFailure       = "scoring_failure"
	CodeBadMessage           = "bad_message"
)

// ClientMessage is a text control message from the client. Audio travels in
// binary messages as little-endian float32 samples
type ClientMessage struct {
	Event  string         `json:"event"`
	Config *ConfigPayload `json:"config,omitempty"`
}

// ConfigPayload carries a partial engine configuration. Omitted fields keep
// their current values
type ConfigPayload struct {
	SampleRate      *int     `json:"sample_rate,omitempty"`
	ModelVersion    *string  `json:"model_version,omitempty"`
	StartThreshold  *float64 `json:"start_threshold,omitempty"`
	EndThreshold    *float64 `json:"end_threshold,omitempty"`
	StartTrueRatio  *float64 `json:"start_true_ratio,omitempty"`
	EndFalseRatio   *float64 `json:"end_false_ratio,omitempty"`
	StartFrameCount *int     `json:"start_frame_count,omitempty"`
	EndFrameCount   *int     `json:"end_frame_count,omitempty"`
}

// Apply overlays the payload on cur. Validation is left to Engine.Configure,
// except for values that cannot be represented at all
func (p *ConfigPayload) Apply(cur vad.Config) (vad.Config, error) {
	cfg := cur
	if p == nil {
		return cfg, nil
	}
	if p.SampleRate != nil {
		rate, err := vad.ParseSampleRate(*p.SampleRate)
		if err != nil {
			return cur, err
		}
		cfg.SampleRate = rate
	}
	if p.ModelVersion != nil {
		version, err := vad.ParseModelVersion(*p.ModelVersion)
		if err != nil {
			return cur, err
		}
		cfg.ModelVersion = version
	}
	if p.StartThreshold != nil {
		cfg.StartThreshold = *p.StartThreshold
	}
	if p.EndThreshold != nil {
		cfg.EndThreshold = *p.EndThreshold
	}
	if p.StartTrueRatio != nil {
		cfg.StartTrueRatio = *p.StartTrueRatio
	}
	if p.EndFalseRatio != nil {
		cfg.EndFalseRatio = *p.EndFalseRatio
	}
	if p.StartFrameCount != nil {
		cfg.StartFrameCount = *p.StartFrameCount
	}
	if p.EndFrameCount != nil {
		cfg.EndFrameCount = *p.EndFrameCount
	}
	return cfg, nil
}

// ServerMessage is every text message the server sends
type ServerMessage struct {
	Event     string `json:"event"`
	SessionID string `json:"session_id,omitempty"`
	FrameSize int    `json:"frame_size,omitempty"`

	// voice_ended payload
	SampleRate int    `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	BitDepth   int    `json:"bit_depth,omitempty"`
	Samples    int    `json:"samples,omitempty"`
	Audio      string `json:"audio,omitempty"` // Base64 encoded WAV

	// error payload
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
