package search

import (
	"context"
	"math/rand/v2"
	"sync"

	"golang.org/x/sync/errgroup"
)

// fork returns an engine sharing e's scorer and ciphertext with its own
// buffers and random source. Events and metrics are left to the caller.
func (e *Engine) fork(seed uint64) *Engine {
	return &Engine{
		scorer:      e.scorer,
		ciphertext:  e.ciphertext,
		patience:    e.patience,
		reportEvery: e.reportEvery,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		reporter:    NopReporter(),
		logger:      e.logger,
		plain:       make([]byte, len(e.ciphertext)),
	}
}

// RunParallel runs independent restarts on workers goroutines and merges
// their results into st. With one worker it is Run.
func (e *Engine) RunParallel(ctx context.Context, st *State, workers int, b Budget) error {
	if workers <= 1 {
		return e.Run(ctx, st, b)
	}

	p := &pool{e: e, st: st, budget: b}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		// Seeds come from e.rng so a seeded engine gives repeatable workers.
		eng := e.fork(e.rng.Uint64())
		g.Go(func() error {
			return p.work(gctx, eng)
		})
	}
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

type pool struct {
	e      *Engine
	budget Budget

	mu sync.Mutex
	st *State
}

func (p *pool) work(ctx context.Context, eng *Engine) error {
	local := NewState(1)
	local.Solutions = nil

	for {
		p.mu.Lock()
		done := p.budget.exhausted(p.st)
		local.Started = p.st.Started
		p.mu.Unlock()
		if done {
			return nil
		}

		attempts, restarts := local.Attempts, local.Restarts
		_, err := eng.Step(ctx, local)
		p.merge(local, local.Attempts-attempts, local.Restarts-restarts, err == nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// merge folds one worker step into the shared state. Only finished climbs
// compete for best.
func (p *pool) merge(local *State, attempts, restarts uint64, finished bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, e := p.st, p.e

	before := st.Attempts
	st.Attempts += attempts
	st.Restarts += restarts
	e.metrics.addAttempts(attempts)
	e.metrics.addRestarts(restarts)

	if st.Attempts/e.reportEvery > before/e.reportEvery {
		e.reporter.Progress(Progress{Attempts: st.Attempts, Elapsed: st.Elapsed()})
	}

	if !finished {
		return
	}

	st.Parent, st.ParentScore = local.Parent, local.ParentScore
	e.finishClimb(st)
}
