// Package search recovers substitution keys by hill climbing with random
// restarts.
//
// Each restart shuffles the parent key into a uniformly random permutation,
// then repeatedly swaps two random positions and keeps the child only when
// it scores strictly lower. After Patience consecutive rejections the climb
// ends and the parent competes with the best key found so far.
package search

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jmccarv/substsolve/internal/cipher"
	"github.com/jmccarv/substsolve/internal/logging"
	"github.com/jmccarv/substsolve/internal/ngram"
)

const (
	DefaultPatience    = 1000
	DefaultReportEvery = 50000

	// how many attempts pass between context checks
	cancelCheckEvery = 1024
)

type Engine struct {
	scorer      *ngram.Scorer
	ciphertext  []byte
	patience    int
	reportEvery uint64
	rng         *rand.Rand
	reporter    Reporter
	logger      logging.Logger
	metrics     *Metrics

	dec   cipher.Decoder
	plain []byte
}

type Option func(*Engine)

func WithPatience(n int) Option {
	return func(e *Engine) { e.patience = n }
}

// WithReportEvery sets the number of attempts between progress reports.
func WithReportEvery(n uint64) Option {
	return func(e *Engine) { e.reportEvery = n }
}

// WithRand sets the random source. Runs with the same source, scorer and
// ciphertext are identical.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func WithReporter(r Reporter) Option {
	return func(e *Engine) { e.reporter = r }
}

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine validates ciphertext once so the search loop never has to.
func NewEngine(scorer *ngram.Scorer, ciphertext string, opts ...Option) (*Engine, error) {
	idx, err := cipher.Indices(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("ciphertext: %w", err)
	}
	if err := scorer.CheckLength(len(idx)); err != nil {
		return nil, fmt.Errorf("ciphertext: %w", err)
	}

	e := &Engine{
		scorer:      scorer,
		ciphertext:  idx,
		patience:    DefaultPatience,
		reportEvery: DefaultReportEvery,
		reporter:    NopReporter(),
		logger:      logging.NewNop(),
		plain:       make([]byte, len(idx)),
	}
	for _, o := range opts {
		o(e)
	}

	if e.patience < 1 {
		return nil, fmt.Errorf("patience %d must be at least 1", e.patience)
	}
	if e.reportEvery < 1 {
		return nil, fmt.Errorf("report interval must be at least 1")
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}
	return e, nil
}

func (e *Engine) score(k cipher.Key) float64 {
	e.dec.Reset(k)
	e.dec.Decode(e.plain, e.ciphertext)
	return e.scorer.ScoreLetters(e.plain)
}

// Decrypt returns the ciphertext decrypted under k.
func (e *Engine) Decrypt(k cipher.Key) string {
	d := cipher.NewDecoder(k)
	out := make([]byte, len(e.ciphertext))
	d.Decode(out, e.ciphertext)
	return cipher.Letters(out)
}

// Step runs one restart and hill climb against st. It reports whether the
// best key improved. When ctx is cancelled mid-climb Step returns ctx.Err()
// and leaves the best key alone.
func (e *Engine) Step(ctx context.Context, st *State) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	st.Restarts++
	e.metrics.addRestarts(1)

	st.Parent.Shuffle(e.rng)
	st.ParentScore = e.score(st.Parent)

	var n uint64
	defer func() { e.metrics.addAttempts(n) }()

	for stall := 0; stall < e.patience; n++ {
		if n%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}

		i, j := e.rng.IntN(cipher.Size), e.rng.IntN(cipher.Size)
		child := st.Parent.Swap(i, j)
		score := e.score(child)
		if score < st.ParentScore {
			st.Parent, st.ParentScore = child, score
			stall = 0
		} else {
			stall++
		}

		st.Attempts++
		if st.Attempts%e.reportEvery == 0 {
			e.reporter.Progress(Progress{Attempts: st.Attempts, Elapsed: st.Elapsed()})
		}
	}

	e.logger.Debug("climb finished", "restart", st.Restarts, "score", st.ParentScore, "attempts", n)
	return e.finishClimb(st), nil
}

func (e *Engine) finishClimb(st *State) bool {
	plaintext := e.Decrypt(st.Parent)
	if st.Solutions != nil {
		st.Solutions.Add(Solution{Key: st.Parent, Score: st.ParentScore, Plaintext: plaintext, Restart: st.Restarts})
	}

	if !(st.ParentScore < st.BestScore) {
		return false
	}

	imp := Improvement{
		Score:     st.ParentScore,
		Plaintext: plaintext,
		From:      st.Best,
		To:        st.Parent,
		Restart:   st.Restarts,
		Attempts:  st.Attempts,
	}
	st.Best, st.BestScore = st.Parent, st.ParentScore
	e.metrics.improved(st.BestScore)
	e.logger.Info("new best", "score", st.BestScore, "restart", st.Restarts, "key", st.Best)
	e.reporter.NewBest(imp)
	return true
}

// Run steps until ctx is done or the budget is used up. Cancellation is the
// normal way to stop an unbounded run and is not reported as an error.
func (e *Engine) Run(ctx context.Context, st *State, b Budget) error {
	for !b.exhausted(st) {
		if _, err := e.Step(ctx, st); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
	return nil
}
