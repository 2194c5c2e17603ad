package scorer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hackers365/go-webrtcvad"
	"github.com/lexiqai/realtime-vad/internal/audio"
	"github.com/lexiqai/realtime-vad/internal/vad"
)

const (
	// DefaultWebRTCMode is the libwebrtc aggressiveness (0: least, 3: most aggressive)
	DefaultWebRTCMode = 2

	// subFrameMs is the libwebrtc analysis unit; 10, 20 and 30 ms are accepted
	subFrameMs = 10
)

// ErrScorerClosed is returned by Score after Close
var ErrScorerClosed = errors.New("scorer closed")

// WebRTC scores a frame with the libwebrtc VAD. libwebrtc only gives a binary
// decision per 10 ms, so the probability is the fraction of 10 ms sub-frames
// classified as speech. Input at 24 kHz is resampled to 16 kHz first.
//
// The libwebrtc instance adapts to the audio it has seen and holds speech for
// a few sub-frames after it stops, so one WebRTC serves one stream
type WebRTC struct {
	mu   sync.Mutex
	inst *webrtcvad.VAD
	mode int
}

// NewWebRTC creates a libwebrtc-backed scorer. Close must be called to free it
func NewWebRTC(mode int) (*WebRTC, error) {
	if mode < 0 || mode > 3 {
		return nil, fmt.Errorf("webrtc scorer: mode must be 0-3, got %d", mode)
	}

	inst, err := newInstance(mode)
	if err != nil {
		return nil, err
	}
	return &WebRTC{inst: inst, mode: mode}, nil
}

func newInstance(mode int) (*webrtcvad.VAD, error) {
	inst, err := webrtcvad.New()
	if err != nil || inst == nil {
		return nil, fmt.Errorf("webrtc scorer: create instance: %w", err)
	}
	if err := inst.SetMode(mode); err != nil {
		webrtcvad.Free(inst)
		return nil, fmt.Errorf("webrtc scorer: set mode %d: %w", mode, err)
	}
	return inst, nil
}

// Score implements vad.Scorer
func (w *WebRTC) Score(frame []float32, rate vad.SampleRate, _ vad.ModelVersion) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inst == nil {
		return 0, ErrScorerClosed
	}

	processRate := nativeRate(int(rate))
	samples := frame
	if processRate != int(rate) {
		samples = audio.Resample(frame, int(rate), processRate)
	}

	subFrames := splitSubFrames(samples, processRate*subFrameMs/1000)
	if len(subFrames) == 0 {
		return 0, fmt.Errorf("webrtc scorer: frame of %d samples shorter than %d ms", len(frame), subFrameMs)
	}

	voiced := 0
	for _, sub := range subFrames {
		active, err := w.inst.Process(processRate, audio.Float32ToPCM16(sub))
		if err != nil {
			return 0, fmt.Errorf("webrtc scorer: process: %w", err)
		}
		if active {
			voiced++
		}
	}
	return float64(voiced) / float64(len(subFrames)), nil
}

// Reset replaces the libwebrtc instance with a fresh one, dropping everything
// it adapted to. On error the old instance stays in use. Implements vad.Resetter
func (w *WebRTC) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inst == nil {
		return ErrScorerClosed
	}
	inst, err := newInstance(w.mode)
	if err != nil {
		return err
	}
	webrtcvad.Free(w.inst)
	w.inst = inst
	return nil
}

// Close frees the libwebrtc instance. Calling Close more than once is safe
func (w *WebRTC) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inst != nil {
		webrtcvad.Free(w.inst)
		w.inst = nil
	}
	return nil
}

// nativeRate maps an input rate to one libwebrtc accepts
func nativeRate(rate int) int {
	switch rate {
	case 8000, 16000, 32000, 48000:
		return rate
	}
	return 16000
}

// splitSubFrames cuts samples into sub-frames of n samples. A short tail is
// covered by one extra sub-frame ending on the last sample, overlapping the
// one before it
func splitSubFrames(samples []float32, n int) [][]float32 {
	if n <= 0 || len(samples) < n {
		return nil
	}
	out := make([][]float32, 0, len(samples)/n+1)
	off := 0
	for ; off+n <= len(samples); off += n {
		out = append(out, samples[off:off+n])
	}
	if off < len(samples) {
		out = append(out, samples[len(samples)-n:])
	}
	return out
}

var (
	_ vad.Scorer   = (*WebRTC)(nil)
	_ vad.Resetter = (*WebRTC)(nil)
)
