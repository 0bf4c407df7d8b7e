package userservice

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSessionPruner(t *testing.T) {
	testCases := []struct {
		name string
		n    int64
		err  error
	}{
		{name: "pruned", n: 2},
		{name: "nothing expired", n: 0},
		{name: "store failure", err: errors.New("connection refused")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			calls := make(chan struct{}, 8)

			sessions := new(MockSessionDeleter)
			sessions.On("DeleteExpiredSessions", mock.Anything).
				Return(tc.n, tc.err).
				Run(func(mock.Arguments) {
					select {
					case calls <- struct{}{}:
					default:
					}
				})

			p := NewSessionPruner(sessions, 5*time.Millisecond, testLogger())
			p.Start()

			for i := 0; i < 2; i++ {
				select {
				case <-calls:
				case <-time.After(5 * time.Second):
					t.Fatal("session pruner did not run")
				}
			}

			p.Close()
			sessions.AssertCalled(t, "DeleteExpiredSessions", mock.Anything)
		})
	}
}

func TestSessionPrunerCloseWithoutStart(t *testing.T) {
	p := NewSessionPruner(new(MockSessionDeleter), time.Hour, testLogger())
	assert.NotPanics(t, p.Close)
}
