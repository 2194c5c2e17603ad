package scorer

import (
	"fmt"
	"io"

	"github.com/lexiqai/realtime-vad/internal/vad"
)

const (
	KindEnergy = "energy"
	KindWebRTC = "webrtc"
)

// Options selects and parameterises a scorer
type Options struct {
	Kind       string
	Energy     EnergyConfig
	WebRTCMode int
}

// New builds the scorer named by opts.Kind. Scorers that hold native
// resources also implement io.Closer
func New(opts Options) (vad.Scorer, error) {
	switch opts.Kind {
	case KindEnergy, "":
		return NewEnergy(opts.Energy)
	case KindWebRTC:
		return NewWebRTC(opts.WebRTCMode)
	}
	return nil, fmt.Errorf("unknown scorer %q (want %s or %s)", opts.Kind, KindEnergy, KindWebRTC)
}

// Close releases s if it holds resources
func Close(s vad.Scorer) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
