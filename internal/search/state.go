package search

import (
	"math"
	"time"

	"github.com/jmccarv/substsolve/internal/cipher"
)

// State is everything a search carries from one restart to the next. The
// best key only ever moves to a strictly lower score.
type State struct {
	Best      cipher.Key
	BestScore float64

	Parent      cipher.Key
	ParentScore float64

	Attempts uint64 // scored children, accepted or not
	Restarts uint64
	Started  time.Time

	// nil disables tracking
	Solutions *SolutionSet
}

// NewState returns a state whose best is the identity key with an infinite
// score, keeping the topN best distinct decryptions.
func NewState(topN int) *State {
	return &State{
		Best:        cipher.IdentityKey(),
		BestScore:   math.Inf(1),
		Parent:      cipher.IdentityKey(),
		ParentScore: math.Inf(1),
		Started:     time.Now(),
		Solutions:   NewSolutionSet(topN),
	}
}

func (st *State) Elapsed() time.Duration {
	return time.Since(st.Started)
}

// Budget bounds a run. Zero fields are unlimited. Budgets are checked
// between restarts so a run may overshoot MaxAttempts by one climb.
type Budget struct {
	MaxRestarts uint64
	MaxAttempts uint64
}

func (b Budget) exhausted(st *State) bool {
	if b.MaxRestarts > 0 && st.Restarts >= b.MaxRestarts {
		return true
	}
	return b.MaxAttempts > 0 && st.Attempts >= b.MaxAttempts
}
