// Package vad is a streaming voice activity detector. It cuts incoming audio
// into frames, scores each frame with a pluggable Scorer, smooths the scores
// with a windowed hysteresis state machine and hands every detected utterance
// to an Observer as a WAV-ready Waveform.
//
// An Engine holds no locks. All calls on one Engine must come from a single
// goroutine or be serialised by the caller
package vad

import (
	"errors"
	"fmt"

	"github.com/lexiqai/realtime-vad/internal/audio"
	"github.com/rs/zerolog"
)

// Engine drives framing, scoring, detection and utterance collection
type Engine struct {
	cfg      Config
	scorer   Scorer
	observer Observer
	cont     ContinuationObserver
	logger   zerolog.Logger

	frames   *FrameBuffer
	detector *HysteresisDetector
	acc      *UtteranceAccumulator

	// frameIndex counts frames cut since the last reset, scored or not
	frameIndex int64
}

// Option customises an Engine
type Option func(*Engine)

// WithLogger sets the logger used for transition tracing at debug level
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an idle Engine. It returns an ErrInvalidConfiguration error if
// cfg is invalid
func New(cfg Config, scorer Scorer, observer Observer, opts ...Option) (*Engine, error) {
	if scorer == nil {
		return nil, errors.New("vad: nil scorer")
	}
	if observer == nil {
		return nil, errors.New("vad: nil observer")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		scorer:   scorer,
		observer: observer,
		logger:   zerolog.Nop(),
	}
	if c, ok := observer.(ContinuationObserver); ok {
		e.cont = c
	}
	switch f := observer.(type) {
	case ObserverFuncs:
		if f.OnContinued == nil {
			e.cont = nil
		}
	case *ObserverFuncs:
		if f == nil || f.OnContinued == nil {
			e.cont = nil
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	// a fresh scorer needs no reset
	e.resetStream()
	return e, nil
}

// ProcessAudio feeds a chunk of mono samples. Every complete frame is scored
// and run through the detector before ProcessAudio returns. Empty input is a
// no-op. Frames the scorer fails on are skipped by the detector and reported
// as *ScoringError values joined into the returned error; the remaining
// frames of the chunk are still processed
func (e *Engine) ProcessAudio(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}
	e.frames.Push(samples)

	var errs []error
	for {
		frame, ok := e.frames.TakeFrame()
		if !ok {
			break
		}
		if err := e.processFrame(frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) processFrame(frame []float32) error {
	idx := e.frameIndex
	e.frameIndex++

	prob, err := e.scorer.Score(frame, e.cfg.SampleRate, e.cfg.ModelVersion)
	if err == nil && !ValidProbability(prob) {
		err = fmt.Errorf("probability %v outside [0,1]", prob)
	}
	if err != nil {
		// The detector never sees this frame, but an open utterance keeps its audio
		if e.detector.State() == Active {
			e.appendActive(frame)
		}
		e.logger.Warn().Err(err).Int64("frame", idx).Msg("Frame scoring failed, dropping frame")
		return &ScoringError{Frame: idx, Err: err}
	}

	switch e.detector.Observe(prob) {
	case Start:
		e.acc.Open()
		e.logger.Debug().Int64("frame", idx).Float64("probability", prob).Msg("Voice started")
		e.observer.VoiceStarted()
		e.appendActive(frame)
	case End:
		e.appendActive(frame)
		w := e.acc.Close()
		e.logger.Debug().
			Int64("frame", idx).
			Float64("probability", prob).
			Int("samples", w.SampleCount()).
			Dur("duration", w.Duration()).
			Msg("Voice ended")
		e.observer.VoiceEnded(w)
	default:
		if e.detector.State() == Active {
			e.appendActive(frame)
		}
	}
	return nil
}

func (e *Engine) appendActive(frame []float32) {
	e.acc.Append(frame)
	if e.cont != nil {
		e.cont.VoiceContinued(audio.Resample(frame, int(e.cfg.SampleRate), ContinuationRate))
	}
}

// Configure validates and installs cfg. On error the previous configuration
// stays in effect. A change of sample rate or model version changes the frame
// geometry and resets the stream; other changes apply from the next frame
func (e *Engine) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	prev := e.cfg
	e.cfg = cfg
	if !prev.sameGeometry(cfg) {
		e.logger.Debug().
			Int("sample_rate", int(cfg.SampleRate)).
			Str("model_version", cfg.ModelVersion.String()).
			Msg("Frame geometry changed, resetting stream")
		e.reset()
		return nil
	}
	e.detector.SetConfig(cfg)
	return nil
}

// SetSampleRate replaces only the sample rate
func (e *Engine) SetSampleRate(r SampleRate) error {
	cfg := e.cfg
	cfg.SampleRate = r
	return e.Configure(cfg)
}

// SetModelVersion replaces only the model version
func (e *Engine) SetModelVersion(v ModelVersion) error {
	cfg := e.cfg
	cfg.ModelVersion = v
	return e.Configure(cfg)
}

// SetThresholds replaces the six tuning parameters together
func (e *Engine) SetThresholds(startThreshold, endThreshold, startTrueRatio, endFalseRatio float64, startFrameCount, endFrameCount int) error {
	cfg := e.cfg
	cfg.StartThreshold = startThreshold
	cfg.EndThreshold = endThreshold
	cfg.StartTrueRatio = startTrueRatio
	cfg.EndFalseRatio = endFalseRatio
	cfg.StartFrameCount = startFrameCount
	cfg.EndFrameCount = endFrameCount
	return e.Configure(cfg)
}

// Reset discards buffered samples, detector history and any open utterance
// without notifying the observer. A scorer implementing Resetter is reset too
func (e *Engine) Reset() {
	e.reset()
}

// Flush ends the stream. An open utterance is closed and delivered through
// VoiceEnded, then the engine is reset. Buffered partial-frame samples are dropped
func (e *Engine) Flush() {
	if e.detector.State() == Active {
		w := e.acc.Close()
		e.logger.Debug().Int("samples", w.SampleCount()).Msg("Voice ended by flush")
		e.observer.VoiceEnded(w)
	}
	e.reset()
}

func (e *Engine) reset() {
	e.resetStream()
	if r, ok := e.scorer.(Resetter); ok {
		if err := r.Reset(); err != nil {
			e.logger.Warn().Err(err).Msg("Scorer reset failed")
		}
	}
}

func (e *Engine) resetStream() {
	e.frames = NewFrameBuffer(e.cfg.FrameSize())
	e.detector = NewHysteresisDetector(e.cfg)
	e.acc = NewUtteranceAccumulator(int(e.cfg.SampleRate))
	e.frameIndex = 0
}

// State returns Idle or Active
func (e *Engine) State() State {
	return e.detector.State()
}

// Config returns the configuration in effect
func (e *Engine) Config() Config {
	return e.cfg
}

// FrameSize returns the number of samples per scored frame
func (e *Engine) FrameSize() int {
	return e.frames.FrameSize()
}

// Pending returns the number of buffered samples waiting for a full frame
func (e *Engine) Pending() int {
	return e.frames.Len()
}
