package vad

// windowEntry is one scored frame as the detector classified it on arrival
type windowEntry struct {
	prob float64
	hit  bool
}

// ProbabilityWindow is a fixed-capacity ring of the most recent classified
// probabilities. Once full, each push evicts the oldest entry
type ProbabilityWindow struct {
	buf   []windowEntry
	read  int
	count int
	hits  int
}

// NewProbabilityWindow creates a window holding up to capacity entries
func NewProbabilityWindow(capacity int) *ProbabilityWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &ProbabilityWindow{buf: make([]windowEntry, capacity)}
}

// Push records a probability and whether it satisfied the current criterion
func (w *ProbabilityWindow) Push(prob float64, hit bool) {
	size := len(w.buf)
	if w.count == size {
		if w.buf[w.read].hit {
			w.hits--
		}
		w.read = (w.read + 1) % size
		w.count--
	}
	w.buf[(w.read+w.count)%size] = windowEntry{prob: prob, hit: hit}
	w.count++
	if hit {
		w.hits++
	}
}

// Full reports whether the window holds Cap entries
func (w *ProbabilityWindow) Full() bool {
	return w.count == len(w.buf)
}

// Len returns the number of entries held
func (w *ProbabilityWindow) Len() int {
	return w.count
}

// Cap returns the window capacity
func (w *ProbabilityWindow) Cap() int {
	return len(w.buf)
}

// Hits returns the number of held entries that satisfied the criterion
func (w *ProbabilityWindow) Hits() int {
	return w.hits
}

// Ratio returns Hits/Len, or 0 when empty
func (w *ProbabilityWindow) Ratio() float64 {
	if w.count == 0 {
		return 0
	}
	return float64(w.hits) / float64(w.count)
}

// Probabilities returns the held probabilities, oldest first
func (w *ProbabilityWindow) Probabilities() []float64 {
	out := make([]float64, w.count)
	for i := range out {
		out[i] = w.buf[(w.read+i)%len(w.buf)].prob
	}
	return out
}

// Resize changes the capacity, keeping the newest entries
func (w *ProbabilityWindow) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	if capacity == len(w.buf) {
		return
	}
	keep := w.count
	if keep > capacity {
		keep = capacity
	}
	next := make([]windowEntry, capacity)
	hits := 0
	for i := 0; i < keep; i++ {
		e := w.buf[(w.read+w.count-keep+i)%len(w.buf)]
		next[i] = e
		if e.hit {
			hits++
		}
	}
	w.buf = next
	w.read = 0
	w.count = keep
	w.hits = hits
}

// Clear empties the window without changing its capacity
func (w *ProbabilityWindow) Clear() {
	w.read = 0
	w.count = 0
	w.hits = 0
}
