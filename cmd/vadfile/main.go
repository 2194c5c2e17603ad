// Command vadfile splits a WAV recording into one WAV file per detected
// utterance
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/wav"
	"github.com/lexiqai/realtime-vad/internal/audio"
	"github.com/lexiqai/realtime-vad/internal/config"
	"github.com/lexiqai/realtime-vad/internal/observability"
	"github.com/lexiqai/realtime-vad/internal/scorer"
	"github.com/lexiqai/realtime-vad/internal/vad"
	"github.com/rs/zerolog"
)

// chunkMs is how much audio is fed to the engine per call
const chunkMs = 100

func main() {
	in := flag.String("in", "", "input WAV file (8, 16, 24 or 48 kHz)")
	out := flag.String("out", ".", "directory for utterance-NNN.wav files")
	model := flag.String("model", "", "model version, v4 or v5 (default from VAD_MODEL_VERSION)")
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: vadfile -in input.wav [-out dir] [-model v5]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	if *model != "" {
		cfg.VADModelVersion = *model
	}

	n, err := run(*in, *out, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("input", *in).Msg("Segmentation failed")
	}
	logger.Info().Int("utterances", n).Str("output", *out).Msg("Segmentation finished")
}

// run segments the file at inPath and returns the number of utterances written
func run(inPath, outDir string, cfg *config.Config, logger zerolog.Logger) (int, error) {
	samples, rate, err := readWAV(inPath)
	if err != nil {
		return 0, err
	}

	// the file decides the rate; everything else comes from config
	cfg.VADSampleRate = rate
	vadCfg, err := cfg.VADConfig()
	if err != nil {
		return 0, err
	}

	inner, err := scorer.New(cfg.ScorerOptions())
	if err != nil {
		return 0, err
	}
	defer scorer.Close(inner)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	seg := &segmenter{outDir: outDir, frameSize: vadCfg.FrameSize(), logger: logger}
	engine, err := vad.New(vadCfg, &frameCounter{inner: inner, seg: seg}, seg, vad.WithLogger(logger))
	if err != nil {
		return 0, err
	}

	chunk := rate * chunkMs / 1000
	var scoreErrs int
	for off := 0; off < len(samples); off += chunk {
		end := min(off+chunk, len(samples))
		if err := engine.ProcessAudio(samples[off:end]); err != nil {
			scoreErrs++
			logger.Warn().Err(err).Int("offset", off).Msg("Scoring failed")
		}
		if seg.err != nil {
			return seg.written, seg.err
		}
	}
	engine.Flush()
	if seg.err != nil {
		return seg.written, seg.err
	}

	if scoreErrs > 0 {
		logger.Warn().Int("chunks", scoreErrs).Msg("Some frames could not be scored")
	}
	return seg.written, nil
}

// readWAV decodes a PCM WAV file to mono float32, averaging channels
func readWAV(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: decode: %w", path, err)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		return nil, 0, errors.New("wav: no channels")
	}
	interleaved := audio.IntToFloat32(buf.Data, int(dec.BitDepth))
	if channels == 1 {
		return interleaved, int(dec.SampleRate), nil
	}

	mono := make([]float32, len(interleaved)/channels)
	for i := range mono {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}
	return mono, int(dec.SampleRate), nil
}

// segmenter writes each utterance to its own file and tracks sample offsets
// by counting scored frames
type segmenter struct {
	outDir    string
	frameSize int
	logger    zerolog.Logger

	frames  int64 // frames handed to the scorer
	start   int64 // sample offset of the open utterance
	written int
	err     error
}

// frameCounter advances the segmenter's frame count on every scoring call
type frameCounter struct {
	inner vad.Scorer
	seg   *segmenter
}

func (c *frameCounter) Score(frame []float32, rate vad.SampleRate, version vad.ModelVersion) (float64, error) {
	c.seg.frames++
	return c.inner.Score(frame, rate, version)
}

// Reset lets engine resets reach an adaptive scorer
func (c *frameCounter) Reset() error {
	if r, ok := c.inner.(vad.Resetter); ok {
		return r.Reset()
	}
	return nil
}

func (s *segmenter) VoiceStarted() {
	s.start = (s.frames - 1) * int64(s.frameSize)
}

func (s *segmenter) VoiceEnded(w *vad.Waveform) {
	if s.err != nil {
		return
	}
	s.written++
	path := filepath.Join(s.outDir, fmt.Sprintf("utterance-%03d.wav", s.written))

	f, err := os.Create(path)
	if err != nil {
		s.err = err
		return
	}
	if err := w.Encode(f); err != nil {
		f.Close()
		s.err = fmt.Errorf("%s: %w", path, err)
		return
	}
	if err := f.Close(); err != nil {
		s.err = err
		return
	}

	s.logger.Info().
		Str("file", path).
		Int64("start_sample", s.start).
		Int64("end_sample", s.start+int64(w.SampleCount())).
		Dur("duration", w.Duration()).
		Msg("Utterance written")
}
