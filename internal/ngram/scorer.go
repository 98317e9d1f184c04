package ngram

import (
	"fmt"
	"math"

	"github.com/jmccarv/substsolve/internal/cipher"
)

const (
	DefaultFloorPercentage = 0.01
	DefaultTopNgrams       = 826
)

// Scorer rates text by how far its mean n-gram log probability is from the
// mean of the corpus' most common n-grams. Lower is more English-like.
type Scorer struct {
	table      *Table
	n          int
	floorPct   float64
	topNgrams  int
	exactMean  bool
	normalized float64
	floor      float64

	// log probability of every possible n-gram indexed in base 26,
	// unseen ones hold floor
	dense []float64
	mod   int
}

type ScorerOption func(*Scorer)

// WithFloorPercentage sets the count given to n-grams missing from the
// corpus before normalisation.
func WithFloorPercentage(p float64) ScorerOption {
	return func(s *Scorer) { s.floorPct = p }
}

// WithTopNgrams sets how many of the most probable n-grams make up the
// reference mean.
func WithTopNgrams(k int) ScorerOption {
	return func(s *Scorer) { s.topNgrams = k }
}

// WithExactMean divides by the number of windows instead of one less.
// Scores are then not comparable with logs from the default mode.
func WithExactMean(exact bool) ScorerOption {
	return func(s *Scorer) { s.exactMean = exact }
}

func NewScorer(t *Table, opts ...ScorerOption) (*Scorer, error) {
	s := &Scorer{
		table:     t,
		n:         t.N(),
		floorPct:  DefaultFloorPercentage,
		topNgrams: DefaultTopNgrams,
	}
	for _, o := range opts {
		o(s)
	}

	if !(s.floorPct > 0) || math.IsInf(s.floorPct, 0) {
		return nil, fmt.Errorf("%w: floor percentage %v must be positive", ErrInvalidOption, s.floorPct)
	}
	if s.topNgrams < 1 {
		return nil, fmt.Errorf("%w: top n-grams %d must be at least 1", ErrInvalidOption, s.topNgrams)
	}

	norm := math.Log10(float64(t.Total()))
	s.floor = math.Log10(s.floorPct) - norm

	var sum float64
	for _, e := range t.Top(s.topNgrams) {
		sum += e.LogProb
	}
	// Divide by the configured count even if the table is smaller.
	s.normalized = sum / float64(s.topNgrams)

	size := 1
	for i := 0; i < s.n; i++ {
		size *= cipher.Size
	}
	s.mod = size / cipher.Size
	s.dense = make([]float64, size)
	for i := range s.dense {
		s.dense[i] = s.floor
	}
	for _, e := range t.entries {
		s.dense[code(e.Ngram)] = e.LogProb
	}
	return s, nil
}

func code(ngram string) int {
	c := 0
	for i := 0; i < len(ngram); i++ {
		x, _ := cipher.Index(ngram[i])
		c = c*cipher.Size + int(x)
	}
	return c
}

func (s *Scorer) N() int              { return s.n }
func (s *Scorer) Normalized() float64 { return s.normalized }
func (s *Scorer) Floor() float64      { return s.floor }
func (s *Scorer) Table() *Table       { return s.table }

// CheckLength returns ErrEmptyInput when a text of length l cannot be
// scored.
func (s *Scorer) CheckLength(l int) error {
	if s.divisor(l) <= 0 {
		return fmt.Errorf("%w: %d letters, n=%d", ErrEmptyInput, l, s.n)
	}
	return nil
}

// The default divisor is one less than the number of windows. Scores logged
// by earlier runs depend on it and for a fixed text length it does not
// change the ordering of candidates.
func (s *Scorer) divisor(l int) int {
	if s.exactMean {
		return l - s.n + 1
	}
	return l - s.n
}

// Score rates text made of the letters A-Z.
func (s *Scorer) Score(text string) (float64, error) {
	if err := s.CheckLength(len(text)); err != nil {
		return 0, err
	}
	idx, err := cipher.Indices(text)
	if err != nil {
		return 0, err
	}
	return s.ScoreLetters(idx), nil
}

// ScoreLetters is Score for text already converted to alphabet indices. The
// length must have passed CheckLength.
func (s *Scorer) ScoreLetters(idx []byte) float64 {
	div := s.divisor(len(idx))
	if div <= 0 {
		return math.Inf(1)
	}

	c := 0
	for i := 0; i < s.n-1; i++ {
		c = c*cipher.Size + int(idx[i])
	}

	var fitness float64
	for i := s.n - 1; i < len(idx); i++ {
		c = (c%s.mod)*cipher.Size + int(idx[i])
		fitness += s.dense[c]
	}
	fitness /= float64(div)
	return math.Abs(fitness - s.normalized)
}
