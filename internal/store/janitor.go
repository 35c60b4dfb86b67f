package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper is anything holding expiring in-memory state.
type Sweeper interface {
	Name() string
	Sweep() int
}

// Janitor periodically sweeps a fixed set of stores.
type Janitor struct {
	interval time.Duration
	sweepers []Sweeper

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewJanitor(interval time.Duration, sweepers ...Sweeper) *Janitor {
	return &Janitor{interval: interval, sweepers: sweepers}
}

// RunOnce sweeps every store and returns the total removed.
func (j *Janitor) RunOnce() int {
	total := 0
	for _, sw := range j.sweepers {
		n := sw.Sweep()
		if n > 0 {
			log.Info().Str("store", sw.Name()).Int("removed", n).Msg("Janitor cleaned expired entries")
		}
		total += n
	}
	return total
}

// Start launches the background loop. Stop must be called to release it.
func (j *Janitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.RunOnce()
			}
		}
	}()
}

func (j *Janitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
}
