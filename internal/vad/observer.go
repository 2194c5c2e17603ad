package vad

import "math"

// Scorer maps one frame to a speech probability in [0,1]. Implementations are
// called synchronously from Engine.ProcessAudio and may fail
type Scorer interface {
	Score(frame []float32, rate SampleRate, version ModelVersion) (float64, error)
}

// Resetter is optionally implemented by a Scorer that adapts to the audio it
// has scored. The engine calls Reset whenever its own stream state is reset,
// so a replay after Reset scores like the first pass
type Resetter interface {
	Reset() error
}

// ValidProbability reports whether p is a usable score, i.e. in [0,1] and not NaN
func ValidProbability(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p <= 1
}

// ScorerFunc adapts a function to Scorer
type ScorerFunc func(frame []float32, rate SampleRate, version ModelVersion) (float64, error)

// Score calls f
func (f ScorerFunc) Score(frame []float32, rate SampleRate, version ModelVersion) (float64, error) {
	return f(frame, rate, version)
}

// Observer receives utterance boundaries in stream order
type Observer interface {
	VoiceStarted()
	VoiceEnded(w *Waveform)
}

// ContinuationObserver is optionally implemented by an Observer that wants
// each active frame as it is appended, resampled to 16 kHz
type ContinuationObserver interface {
	VoiceContinued(pcm16k []float32)
}

// ContinuationRate is the sample rate of VoiceContinued payloads
const ContinuationRate = 16000

// ObserverFuncs adapts plain functions to Observer and ContinuationObserver.
// Nil fields are skipped
type ObserverFuncs struct {
	OnStarted   func()
	OnEnded     func(w *Waveform)
	OnContinued func(pcm16k []float32)
}

func (o ObserverFuncs) VoiceStarted() {
	if o.OnStarted != nil {
		o.OnStarted()
	}
}

func (o ObserverFuncs) VoiceEnded(w *Waveform) {
	if o.OnEnded != nil {
		o.OnEnded(w)
	}
}

func (o ObserverFuncs) VoiceContinued(pcm16k []float32) {
	if o.OnContinued != nil {
		o.OnContinued(pcm16k)
	}
}

var (
	_ Observer             = ObserverFuncs{}
	_ ContinuationObserver = ObserverFuncs{}
)
