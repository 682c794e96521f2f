package resilience

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

var errClient = errors.New("client error")

func TestCircuitBreaker_TripsOnFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", nil)

	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, errors.New("upstream down") })
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())
	_, err := cb.Execute(func() (interface{}, error) { return "ok", nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestCircuitBreaker_IgnoresSuccessfulErrors(t *testing.T) {
	cb := NewCircuitBreaker("test", func(err error) bool {
		return err == nil || errors.Is(err, errClient)
	})

	for i := 0; i < 10; i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, errClient })
		assert.ErrorIs(t, err, errClient)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
