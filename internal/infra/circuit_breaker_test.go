package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errGateway = errors.New("gateway indisponível")

func failingCB(cfg CircuitBreakerConfig, failures int) *CircuitBreaker {
	cb := NewCircuitBreaker(cfg)
	for i := 0; i < failures; i++ {
		_ = cb.Execute(func() error { return errGateway })
	}
	return cb
}

func TestCircuitBreaker_AbreAposFalhasConsecutivas(t *testing.T) {
	cb := failingCB(CircuitBreakerConfig{FailureThreshold: 3, OpenTimeout: time.Minute}, 2)
	assert.Equal(t, CBClosed, cb.State())

	_ = cb.Execute(func() error { return errGateway })
	assert.Equal(t, CBOpen, cb.State())

	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_SucessoZeraContagem(t *testing.T) {
	cb := failingCB(CircuitBreakerConfig{FailureThreshold: 3, OpenTimeout: time.Minute}, 2)

	require.NoError(t, cb.Execute(func() error { return nil }))

	// Contagem zerada: duas novas falhas ainda não atingem o limiar.
	_ = cb.Execute(func() error { return errGateway })
	_ = cb.Execute(func() error { return errGateway })
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFechaComSucessos(t *testing.T) {
	cb := failingCB(CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		OpenTimeout:      time.Millisecond,
	}, 1)
	require.Equal(t, CBOpen, cb.state)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, CBHalfOpen, cb.State())

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBHalfOpen, cb.State())

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenReabreNaFalha(t *testing.T) {
	cb := failingCB(CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		OpenTimeout:      time.Millisecond,
	}, 1)

	time.Sleep(5 * time.Millisecond)
	require.Equal(t, CBHalfOpen, cb.State())

	_ = cb.Execute(func() error { return errGateway })
	assert.Equal(t, CBOpen, cb.State())
}

func TestCBState_String(t *testing.T) {
	assert.Equal(t, "closed", CBClosed.String())
	assert.Equal(t, "open", CBOpen.String())
	assert.Equal(t, "half-open", CBHalfOpen.String())
}
