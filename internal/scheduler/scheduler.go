// Package scheduler runs the periodic hold-reclamation sweep.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/shopkit/ticket-seller/internal/inventory"
)

// Sweeper owns the background job that releases expired seat holds and
// deletes expired capacity holds.  The sweep is a safety net: readers
// already treat expired holds as available, so the job only keeps the
// tables tidy and the counters honest.
type Sweeper struct {
	sched  gocron.Scheduler
	engine *inventory.Engine
}

// New builds a Sweeper running engine.SweepExpired every interval.
func New(engine *inventory.Engine, interval time.Duration) (*Sweeper, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := engine.SweepExpired(ctx); err != nil {
				log.Printf("sweep: %v", err)
			}
		}),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	return &Sweeper{sched: sched, engine: engine}, nil
}

// Start launches the job loop in the background.
func (s *Sweeper) Start() { s.sched.Start() }

// Stop shuts the scheduler down and waits for a running sweep to end.
func (s *Sweeper) Stop() error { return s.sched.Shutdown() }
