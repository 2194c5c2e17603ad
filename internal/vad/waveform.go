package vad

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// WaveformBitDepth is the PCM depth of encoded utterances
	WaveformBitDepth = 16
	// WaveformChannels is the channel count of encoded utterances
	WaveformChannels = 1

	wavFormatPCM = 1
)

// Waveform is one finished utterance: the raw samples in arrival order plus
// the format they are exported in
type Waveform struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Samples    []float32
}

// SampleCount returns the number of samples in the utterance
func (w *Waveform) SampleCount() int {
	return len(w.Samples)
}

// Duration returns the utterance length
func (w *Waveform) Duration() time.Duration {
	if w.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.SampleRate)
}

// PCM16 quantises the samples to signed 16-bit values, clipping to [-1, 1]
func (w *Waveform) PCM16() []int16 {
	out := make([]int16, len(w.Samples))
	for i, s := range w.Samples {
		out[i] = quantise16(s)
	}
	return out
}

// Encode writes the utterance as a RIFF/WAVE PCM file
func (w *Waveform) Encode(ws io.WriteSeeker) error {
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: w.Channels, SampleRate: w.SampleRate},
		Data:           make([]int, len(w.Samples)),
		SourceBitDepth: w.BitDepth,
	}
	for i, s := range w.Samples {
		buf.Data[i] = int(quantise16(s))
	}

	enc := wav.NewEncoder(ws, w.SampleRate, w.BitDepth, w.Channels, wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav header: %w", err)
	}
	return nil
}

// WAV returns the utterance encoded as a RIFF/WAVE PCM file
func (w *Waveform) WAV() ([]byte, error) {
	var mb memWriteSeeker
	if err := w.Encode(&mb); err != nil {
		return nil, err
	}
	return mb.buf, nil
}

func quantise16(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(s * 32767)
}

// memWriteSeeker is an in-memory io.WriteSeeker; the wav encoder seeks back
// to patch the RIFF sizes on Close
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		if end > cap(m.buf) {
			grown := make([]byte, end, 2*end)
			copy(grown, m.buf)
			m.buf = grown
		} else {
			m.buf = m.buf[:end]
		}
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(m.pos) + offset
	case io.SeekEnd:
		abs = int64(len(m.buf)) + offset
	default:
		return 0, errors.New("memWriteSeeker: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("memWriteSeeker: negative position")
	}
	m.pos = int(abs)
	return abs, nil
}
