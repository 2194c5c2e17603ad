package vad

// FrameBuffer accumulates incoming samples and cuts them into fixed-size frames.
// Samples are consumed exactly once, in order. Not safe for concurrent use
type FrameBuffer struct {
	frameSize int
	pending   []float32
	read      int
}

// NewFrameBuffer creates a buffer that yields frames of frameSize samples
func NewFrameBuffer(frameSize int) *FrameBuffer {
	return &FrameBuffer{
		frameSize: frameSize,
		pending:   make([]float32, 0, frameSize*2),
	}
}

// Push appends samples. The caller may reuse samples after Push returns
func (fb *FrameBuffer) Push(samples []float32) {
	if len(samples) == 0 {
		return
	}
	fb.compact()
	fb.pending = append(fb.pending, samples...)
}

// TakeFrame returns the next complete frame, or false when fewer than
// FrameSize samples are buffered. The returned slice is owned by the caller
func (fb *FrameBuffer) TakeFrame() ([]float32, bool) {
	if fb.Len() < fb.frameSize {
		return nil, false
	}
	frame := make([]float32, fb.frameSize)
	copy(frame, fb.pending[fb.read:fb.read+fb.frameSize])
	fb.read += fb.frameSize
	return frame, true
}

// Len returns the number of buffered samples not yet taken
func (fb *FrameBuffer) Len() int {
	return len(fb.pending) - fb.read
}

// FrameSize returns the frame length in samples
func (fb *FrameBuffer) FrameSize() int {
	return fb.frameSize
}

// Clear drops all buffered samples
func (fb *FrameBuffer) Clear() {
	fb.pending = fb.pending[:0]
	fb.read = 0
}

// compact moves the unread tail to the front of the backing array
func (fb *FrameBuffer) compact() {
	if fb.read == 0 {
		return
	}
	n := copy(fb.pending, fb.pending[fb.read:])
	fb.pending = fb.pending[:n]
	fb.read = 0
}
