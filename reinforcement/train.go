package reinforcement

import (
	"context"
	"fmt"
	"log"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
)

// ProgressFunc receives the solver's snapshot after every step. It runs on the training
// goroutine, so blocking here paces the solver.
type ProgressFunc func(context.Context, Snapshot)

// TrainOptions control the driving loop around a Solver.
type TrainOptions struct {
	// Tick is the interval between steps; zero steps as fast as possible.
	Tick time.Duration
	// MaxSweeps is the caller's ceiling on sweeps; zero means unbounded.
	MaxSweeps int
}

// Train drives the solver one step per tick until it converges, the sweep ceiling is reached
// (ErrNotConverged) or ctx is done (ctx.Err()). The final snapshot is returned in every case.
func Train(
	ctx context.Context,
	solver *Solver,
	opts TrainOptions,
	progressFn ProgressFunc,
) (Snapshot, error) {
	// wait blocks until the next step is due.
	wait := func() error { return ctx.Err() }
	if opts.Tick > 0 {
		ticks := channerics.NewTicker(ctx.Done(), opts.Tick)
		wait = func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticks:
				return nil
			}
		}
	}

	log.Printf("[SOLVER] [INFO] run %s: %v iteration on a %s grid, tick %v, sweep limit %d",
		solver.ID(), solver.cfg.Mode, dims(solver), opts.Tick, opts.MaxSweeps)

	snapshot := solver.Snapshot()
	for !snapshot.Final {
		if opts.MaxSweeps > 0 && snapshot.Phase == Evaluating && snapshot.Sweeps >= opts.MaxSweeps {
			log.Printf("[SOLVER] [WARN] run %s: stopped after %d sweeps, delta %g", solver.ID(), snapshot.Sweeps, snapshot.Delta)
			return snapshot, fmt.Errorf("%w: %d sweeps", ErrNotConverged, snapshot.Sweeps)
		}

		if err := wait(); err != nil {
			return snapshot, err
		}

		var err error
		if snapshot, err = solver.Step(); err != nil {
			log.Printf("[SOLVER] [ERROR] run %s: %v", solver.ID(), err)
			return snapshot, err
		}
		if progressFn != nil {
			progressFn(ctx, snapshot)
		}
	}

	log.Printf("[SOLVER] [INFO] run %s: converged after %d iterations, %d sweeps",
		solver.ID(), snapshot.Iteration, snapshot.Sweeps)
	return snapshot, nil
}

func dims(solver *Solver) string {
	rows, cols := solver.grid.Dims()
	return fmt.Sprintf("%dx%d", rows, cols)
}
