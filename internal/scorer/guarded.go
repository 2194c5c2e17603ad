package scorer

import (
	"io"

	"github.com/lexiqai/realtime-vad/internal/resilience"
	"github.com/lexiqai/realtime-vad/internal/vad"
)

// Guarded wraps a Scorer with a circuit breaker. While the circuit is open,
// frames fail fast with resilience.ErrCircuitOpen instead of reaching the
// inner scorer; the engine treats those like any other scoring failure
type Guarded struct {
	inner   vad.Scorer
	breaker *resilience.CircuitBreaker
}

// NewGuarded wraps inner with breaker
func NewGuarded(inner vad.Scorer, breaker *resilience.CircuitBreaker) *Guarded {
	return &Guarded{inner: inner, breaker: breaker}
}

// Score implements vad.Scorer
func (g *Guarded) Score(frame []float32, rate vad.SampleRate, version vad.ModelVersion) (float64, error) {
	var prob float64
	err := g.breaker.Call(func() error {
		var err error
		prob, err = g.inner.Score(frame, rate, version)
		return err
	})
	if err != nil {
		return 0, err
	}
	return prob, nil
}

// Breaker exposes the circuit breaker, e.g. for readiness reporting
func (g *Guarded) Breaker() *resilience.CircuitBreaker {
	return g.breaker
}

// Reset resets the inner scorer if it adapts to its input. The breaker is
// shared and keeps its state
func (g *Guarded) Reset() error {
	if r, ok := g.inner.(vad.Resetter); ok {
		return r.Reset()
	}
	return nil
}

// Close closes the inner scorer if it holds resources
func (g *Guarded) Close() error {
	if c, ok := g.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var (
	_ vad.Scorer   = (*Guarded)(nil)
	_ vad.Resetter = (*Guarded)(nil)
)
