package vad

// State is the detector's speech state
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Transition is what a single observation did to the detector
type Transition int

const (
	None Transition = iota
	Start
	End
)

func (t Transition) String() string {
	switch t {
	case Start:
		return "start"
	case End:
		return "end"
	}
	return "none"
}

// ratioEpsilon absorbs float rounding when comparing hit ratios, so that 3/5
// satisfies a configured ratio of 0.6
const ratioEpsilon = 1e-9

// HysteresisDetector turns per-frame speech probabilities into START/END
// transitions. A transition is only considered once the current window is
// full, so bursts shorter than the window never move the state
type HysteresisDetector struct {
	cfg    Config
	state  State
	window *ProbabilityWindow
}

// NewHysteresisDetector creates an idle detector. cfg must already be valid
func NewHysteresisDetector(cfg Config) *HysteresisDetector {
	return &HysteresisDetector{
		cfg:    cfg,
		state:  Idle,
		window: NewProbabilityWindow(cfg.StartFrameCount),
	}
}

// Observe feeds one probability and reports the resulting transition
func (d *HysteresisDetector) Observe(prob float64) Transition {
	switch d.state {
	case Idle:
		d.window.Push(prob, prob >= d.cfg.StartThreshold)
		if d.window.Full() && meets(d.window, d.cfg.StartTrueRatio) {
			d.enter(Active)
			return Start
		}
	case Active:
		d.window.Push(prob, prob <= d.cfg.EndThreshold)
		if d.window.Full() && meets(d.window, d.cfg.EndFalseRatio) {
			d.enter(Idle)
			return End
		}
	}
	return None
}

// SetConfig installs new tuning. The window keeps its newest entries, trimmed
// to the capacity the current state now requires
func (d *HysteresisDetector) SetConfig(cfg Config) {
	d.cfg = cfg
	d.window.Resize(d.capacity())
}

// State returns the current state
func (d *HysteresisDetector) State() State {
	return d.state
}

// Window exposes the current window for inspection
func (d *HysteresisDetector) Window() *ProbabilityWindow {
	return d.window
}

// Reset returns to Idle with an empty start window
func (d *HysteresisDetector) Reset() {
	d.enter(Idle)
}

func (d *HysteresisDetector) enter(s State) {
	d.state = s
	d.window.Clear()
	d.window.Resize(d.capacity())
}

func (d *HysteresisDetector) capacity() int {
	if d.state == Active {
		return d.cfg.EndFrameCount
	}
	return d.cfg.StartFrameCount
}

func meets(w *ProbabilityWindow, ratio float64) bool {
	return float64(w.Hits()) >= ratio*float64(w.Len())-ratioEpsilon
}
