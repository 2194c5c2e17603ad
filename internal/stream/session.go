// Package stream serves the streaming VAD protocol over WebSocket. Each
// connection owns one vad.Engine and its read loop is the engine's only
// producer
package stream

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lexiqai/realtime-vad/internal/audio"
	"github.com/lexiqai/realtime-vad/internal/observability"
	"github.com/lexiqai/realtime-vad/internal/resilience"
	"github.com/lexiqai/realtime-vad/internal/scorer"
	"github.com/lexiqai/realtime-vad/internal/vad"
	"github.com/rs/zerolog"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Clients are expected to sit behind an authenticating proxy
		return true
	},
	ReadBufferSize:  8192,
	WriteBufferSize: 8192,
}

// ScorerFactory builds the scorer for one session. Scorers that adapt to their
// input must not be shared, so every session gets its own
type ScorerFactory func() (vad.Scorer, error)

// Session holds the state of a single streaming connection
type Session struct {
	conn   *websocket.Conn
	engine *vad.Engine
	scorer vad.Scorer

	// writeMu serialises writes; gorilla allows one concurrent writer
	writeMu sync.Mutex

	// Observability
	sessionID string
	metrics   *observability.SessionMetrics
	logger    zerolog.Logger
}

// NewSession creates a session with its own engine and scorer. The session
// owns the scorer and releases it in Close
func NewSession(conn *websocket.Conn, cfg vad.Config, newScorer ScorerFactory) (*Session, error) {
	sc, err := newScorer()
	if err != nil {
		return nil, fmt.Errorf("create scorer: %w", err)
	}

	sessionID := observability.NewSessionID()
	s := &Session{
		conn:      conn,
		scorer:    sc,
		sessionID: sessionID,
		metrics:   observability.NewSessionMetrics(),
		logger:    observability.WithSessionID(sessionID),
	}

	engine, err := vad.New(cfg, &instrumented{inner: sc, metrics: s.metrics}, s, vad.WithLogger(s.logger))
	if err != nil {
		scorer.Close(sc)
		return nil, fmt.Errorf("create engine: %w", err)
	}
	s.engine = engine
	return s, nil
}

// Close releases the session's scorer
func (s *Session) Close() {
	if err := scorer.Close(s.scorer); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to close scorer")
	}
}

// HandleVADWS is the entry point for streaming VAD WebSocket connections
func HandleVADWS(cfg vad.Config, newScorer ScorerFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := observability.GetLogger()

		// Upgrade writes its own HTTP error response on failure
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to upgrade connection to WebSocket")
			return
		}
		defer conn.Close()

		session, err := NewSession(conn, cfg, newScorer)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create session")
			return
		}
		defer session.Close()
		session.Run()
	}
}

// Run announces the session and processes messages until the client stops or
// disconnects
func (s *Session) Run() {
	s.metrics.RecordSessionStart()
	defer s.metrics.RecordSessionEnd()

	s.logger.Info().
		Int("sample_rate", int(s.engine.Config().SampleRate)).
		Str("model_version", s.engine.Config().ModelVersion.String()).
		Int("frame_size", s.engine.FrameSize()).
		Msg("Session started")

	if err := s.send(ServerMessage{Event: EventReady, SessionID: s.sessionID, FrameSize: s.engine.FrameSize()}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to send ready event")
		return
	}

	for {
		msgType, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("WebSocket read error")
			}
			s.logger.Info().Msg("Session closed by client")
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			s.handleAudio(message)
		case websocket.TextMessage:
			if stop := s.handleControl(message); stop {
				s.sendClose()
				return
			}
		}
	}
}

// SessionID returns the session ID
func (s *Session) SessionID() string {
	return s.sessionID
}

func (s *Session) handleAudio(data []byte) {
	samples, err := audio.DecodeFloat32LE(data)
	if err != nil {
		s.metrics.RecordError(CodeBadMessage, "stream")
		s.sendError(CodeBadMessage, err.Error())
		return
	}
	s.metrics.RecordSamples(len(samples))

	if err := s.engine.ProcessAudio(samples); err != nil {
		s.sendError(CodeScoringFailure, err.Error())
	}
}

// handleControl applies a text control message and reports whether the
// session should end
func (s *Session) handleControl(data []byte) bool {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.metrics.RecordError(CodeBadMessage, "stream")
		s.sendError(CodeBadMessage, fmt.Sprintf("invalid control message: %v", err))
		return false
	}

	switch msg.Event {
	case EventConfigure:
		cfg, err := msg.Config.Apply(s.engine.Config())
		if err == nil {
			err = s.engine.Configure(cfg)
		}
		if err != nil {
			s.metrics.RecordError(CodeInvalidConfiguration, "stream")
			s.sendError(CodeInvalidConfiguration, err.Error())
			return false
		}
		s.logger.Info().
			Int("sample_rate", int(cfg.SampleRate)).
			Str("model_version", cfg.ModelVersion.String()).
			Float64("start_threshold", cfg.StartThreshold).
			Float64("end_threshold", cfg.EndThreshold).
			Msg("Session reconfigured")
		s.sendOrLog(ServerMessage{Event: EventConfigured, FrameSize: s.engine.FrameSize()})

	case EventReset:
		s.engine.Reset()
		s.logger.Debug().Msg("Session reset")

	case EventStop:
		s.logger.Info().Msg("Session stopped")
		s.engine.Flush()
		return true

	default:
		s.metrics.RecordError(CodeBadMessage, "stream")
		s.sendError(CodeBadMessage, fmt.Sprintf("unknown event %q", msg.Event))
	}
	return false
}

// VoiceStarted implements vad.Observer
func (s *Session) VoiceStarted() {
	s.sendOrLog(ServerMessage{Event: EventVoiceStarted})
}

// VoiceEnded implements vad.Observer
func (s *Session) VoiceEnded(w *vad.Waveform) {
	s.metrics.RecordUtterance(w.Duration())

	wav, err := w.WAV()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode utterance")
		s.metrics.RecordError("encode", "stream")
		return
	}

	s.logger.Info().
		Int("samples", w.SampleCount()).
		Dur("duration", w.Duration()).
		Msg("Utterance emitted")

	s.sendOrLog(ServerMessage{
		Event:      EventVoiceEnded,
		SampleRate: w.SampleRate,
		Channels:   w.Channels,
		BitDepth:   w.BitDepth,
		Samples:    w.SampleCount(),
		Audio:      base64.StdEncoding.EncodeToString(wav),
	})
}

// instrumented records latency and outcome of every scoring call. A
// probability the engine will reject counts as a failure here too
type instrumented struct {
	inner   vad.Scorer
	metrics *observability.SessionMetrics
}

func (i *instrumented) Score(frame []float32, rate vad.SampleRate, version vad.ModelVersion) (float64, error) {
	start := time.Now()
	prob, err := i.inner.Score(frame, rate, version)
	latency := time.Since(start)

	switch {
	case err != nil:
		i.metrics.RecordScore(latency, false)
		i.metrics.RecordError(errorKind(err), "scorer")
	case !vad.ValidProbability(prob):
		i.metrics.RecordScore(latency, false)
		i.metrics.RecordError("out_of_range", "scorer")
	default:
		i.metrics.RecordScore(latency, true)
	}
	return prob, err
}

// Reset forwards to the inner scorer so an engine reset reaches it
func (i *instrumented) Reset() error {
	if r, ok := i.inner.(vad.Resetter); ok {
		return r.Reset()
	}
	return nil
}

func (s *Session) sendError(code, message string) {
	s.sendOrLog(ServerMessage{Event: EventError, Code: code, Message: message})
}

func (s *Session) sendOrLog(msg ServerMessage) {
	if err := s.send(msg); err != nil {
		s.logger.Warn().Err(err).Str("event", msg.Event).Msg("Failed to send event")
	}
}

func (s *Session) send(msg ServerMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(msg)
}

// sendClose sends a normal closure frame; the handler closes the connection
func (s *Session) sendClose() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stopped")
	if err := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout)); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to send close frame")
	}
}

func errorKind(err error) string {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return "circuit_open"
	}
	return "score"
}
