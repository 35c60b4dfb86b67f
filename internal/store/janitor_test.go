package store

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signalSweeper struct {
	calls atomic.Int32
	swept chan struct{}
}

func (s *signalSweeper) Name() string { return "signal" }

func (s *signalSweeper) Sweep() int {
	s.calls.Add(1)
	select {
	case s.swept <- struct{}{}:
	default:
	}
	return 0
}

func TestJanitorLoopSweepsUntilStopped(t *testing.T) {
	sw := &signalSweeper{swept: make(chan struct{}, 1)}
	j := NewJanitor(5*time.Millisecond, sw)
	j.Start()

	for i := 0; i < 2; i++ {
		select {
		case <-sw.swept:
		case <-time.After(time.Second):
			t.Fatalf("sweep %d did not run", i+1)
		}
	}

	stopped := make(chan struct{})
	go func() {
		j.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}

	after := sw.calls.Load()
	require.GreaterOrEqual(t, after, int32(2))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, sw.calls.Load(), "no sweeps after Stop")
}

func TestJanitorStopWithoutStart(t *testing.T) {
	j := NewJanitor(time.Minute)
	assert.NotPanics(t, j.Stop)
}
