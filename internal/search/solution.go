package search

import (
	"fmt"

	"github.com/jmccarv/substsolve/internal/cipher"
)

// Solution is the end point of one hill climb.
type Solution struct {
	Key       cipher.Key
	Score     float64
	Plaintext string
	Restart   uint64
}

func (s Solution) String() string {
	return fmt.Sprintf("Score: %0.6f  %s", s.Score, s.Plaintext)
}
