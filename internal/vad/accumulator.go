package vad

// UtteranceAccumulator collects the raw samples of the open utterance.
// Memory grows with utterance length; nothing here bounds it
type UtteranceAccumulator struct {
	sampleRate int
	samples    []float32
	open       bool
}

// NewUtteranceAccumulator creates a closed accumulator for the given rate
func NewUtteranceAccumulator(sampleRate int) *UtteranceAccumulator {
	return &UtteranceAccumulator{sampleRate: sampleRate}
}

// Open begins a new utterance, discarding anything left from an aborted one
func (a *UtteranceAccumulator) Open() {
	a.samples = nil
	a.open = true
}

// Append adds samples to the open utterance. It is a no-op when closed
func (a *UtteranceAccumulator) Append(samples []float32) {
	if !a.open {
		return
	}
	a.samples = append(a.samples, samples...)
}

// Close hands the collected samples to a Waveform and empties the accumulator.
// The returned Waveform owns its sample slice
func (a *UtteranceAccumulator) Close() *Waveform {
	w := &Waveform{
		SampleRate: a.sampleRate,
		Channels:   WaveformChannels,
		BitDepth:   WaveformBitDepth,
		Samples:    a.samples,
	}
	if w.Samples == nil {
		w.Samples = []float32{}
	}
	a.samples = nil
	a.open = false
	return w
}

// IsOpen reports whether an utterance is being collected
func (a *UtteranceAccumulator) IsOpen() bool {
	return a.open
}

// Len returns the number of samples collected so far
func (a *UtteranceAccumulator) Len() int {
	return len(a.samples)
}
