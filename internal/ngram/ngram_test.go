package ngram

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmccarv/substsolve/internal/cipher"
)

const twoGrams = "ABCD 100\nEFGH 50\n"

func loadString(t *testing.T, s string) *Table {
	t.Helper()
	tbl, err := Load(strings.NewReader(s))
	require.NoError(t, err)
	return tbl
}

func TestLoad(t *testing.T) {
	tbl := loadString(t, twoGrams)

	assert.Equal(t, 4, tbl.N())
	assert.Equal(t, uint64(150), tbl.Total())
	assert.Equal(t, 2, tbl.Len())

	lp, ok := tbl.LogProb("ABCD")
	require.True(t, ok)
	assert.InDelta(t, math.Log10(100.0/150.0), lp, 1e-12)

	_, ok = tbl.LogProb("ZZZZ")
	assert.False(t, ok)
}

func TestLoadLogProbRoundTrip(t *testing.T) {
	tbl := loadString(t, "TION 13168375\nNTHE 11234972\nTHER 10218035\nTHAT 8980536\nOFTH 8132597\n")

	norm := math.Log10(float64(tbl.Total()))
	for _, e := range tbl.Entries() {
		got := math.Pow(10, e.LogProb+norm)
		assert.InEpsilon(t, float64(e.Count), got, 1e-9, e.Ngram)
	}
}

func TestLoadSumsDuplicatesAndSkipsBlankLines(t *testing.T) {
	tbl := loadString(t, "ABCD 1\n\nABCD 2\nEFGH 1\n")
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, uint64(4), tbl.Total())
	assert.Equal(t, uint64(3), tbl.Top(1)[0].Count)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"one field", "ABCD\n"},
		{"three fields", "ABCD 1 2\n"},
		{"zero count", "ABCD 0\n"},
		{"negative count", "ABCD -3\n"},
		{"not a number", "ABCD many\n"},
		{"lowercase", "abcd 3\n"},
		{"mixed lengths", "ABCD 3\nABC 4\n"},
		{"too long", "ABCDEF 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, ErrCorpusFormat)
		})
	}
}

func TestLoadErrorNamesLine(t *testing.T) {
	_, err := Load(strings.NewReader("ABCD 3\nEFGH x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestTop(t *testing.T) {
	tbl := loadString(t, "BBBB 5\nAAAA 5\nCCCC 9\nDDDD 1\n")

	top := tbl.Top(3)
	require.Len(t, top, 3)
	assert.Equal(t, "CCCC", top[0].Ngram)
	assert.Equal(t, "AAAA", top[1].Ngram)
	assert.Equal(t, "BBBB", top[2].Ngram)

	assert.Len(t, tbl.Top(10), 4)
	assert.Empty(t, tbl.Top(-1))
}

func TestScorerConstants(t *testing.T) {
	tbl := loadString(t, twoGrams)
	s, err := NewScorer(tbl, WithTopNgrams(2))
	require.NoError(t, err)

	want := (math.Log10(100.0/150.0) + math.Log10(50.0/150.0)) / 2
	assert.InDelta(t, want, s.Normalized(), 1e-12)
	assert.InDelta(t, math.Log10(0.01)-math.Log10(150), s.Floor(), 1e-12)
	assert.Equal(t, 4, s.N())
}

func TestScorerNormalizedDividesByConfiguredCount(t *testing.T) {
	tbl := loadString(t, twoGrams)
	s, err := NewScorer(tbl, WithTopNgrams(4))
	require.NoError(t, err)

	want := (math.Log10(100.0/150.0) + math.Log10(50.0/150.0)) / 4
	assert.InDelta(t, want, s.Normalized(), 1e-12)
}

func TestScorerOptionsValidated(t *testing.T) {
	tbl := loadString(t, twoGrams)

	_, err := NewScorer(tbl, WithFloorPercentage(0))
	assert.ErrorIs(t, err, ErrInvalidOption)
	_, err = NewScorer(tbl, WithFloorPercentage(math.NaN()))
	assert.ErrorIs(t, err, ErrInvalidOption)
	_, err = NewScorer(tbl, WithTopNgrams(0))
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestScore(t *testing.T) {
	tbl := loadString(t, twoGrams)
	s, err := NewScorer(tbl, WithTopNgrams(2))
	require.NoError(t, err)

	abcd, _ := tbl.LogProb("ABCD")
	efgh, _ := tbl.LogProb("EFGH")

	// ABCD, BCDE: two windows, divided by one
	got, err := s.Score("ABCDE")
	require.NoError(t, err)
	assert.InDelta(t, math.Abs(abcd+s.Floor()-s.Normalized()), got, 1e-12)

	// ABCD BCDE CDEF DEFG EFGH: five windows, divided by four
	got, err = s.Score("ABCDEFGH")
	require.NoError(t, err)
	want := math.Abs((abcd+efgh+3*s.Floor())/4 - s.Normalized())
	assert.InDelta(t, want, got, 1e-12)
}

func TestScoreExactMean(t *testing.T) {
	tbl := loadString(t, twoGrams)
	s, err := NewScorer(tbl, WithTopNgrams(2), WithExactMean(true))
	require.NoError(t, err)

	abcd, _ := tbl.LogProb("ABCD")

	got, err := s.Score("ABCD")
	require.NoError(t, err)
	assert.InDelta(t, math.Abs(abcd-s.Normalized()), got, 1e-12)

	_, err = s.Score("ABC")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestScoreEmptyInput(t *testing.T) {
	tbl := loadString(t, twoGrams)
	s, err := NewScorer(tbl)
	require.NoError(t, err)

	for _, text := range []string{"", "AAA", "AAAA"} {
		_, err := s.Score(text)
		assert.ErrorIs(t, err, ErrEmptyInput, text)
		assert.ErrorIs(t, err, cipher.ErrEmptyInput, text)
	}
	assert.True(t, math.IsInf(s.ScoreLetters([]byte{0, 0, 0, 0}), 1))
}

func TestScoreRejectsNonLetters(t *testing.T) {
	s, err := NewScorer(loadString(t, twoGrams))
	require.NoError(t, err)

	_, err = s.Score("ABCD EFGH")
	assert.ErrorIs(t, err, cipher.ErrInvalidCharacter)
}

func TestScoreIsDeterministic(t *testing.T) {
	s, err := NewScorer(loadString(t, twoGrams))
	require.NoError(t, err)

	a, err := s.Score("ABCDEFGHABCD")
	require.NoError(t, err)
	b, err := s.Score("ABCDEFGHABCD")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestScoreLettersMatchesMapLookup(t *testing.T) {
	tbl := loadString(t, "TH 50\nHE 40\nIN 30\nER 20\nAN 10\n")
	s, err := NewScorer(tbl, WithTopNgrams(3))
	require.NoError(t, err)

	text := "THEREINTHEAN"
	var sum float64
	for i := 0; i+2 <= len(text); i++ {
		lp, ok := tbl.LogProb(text[i : i+2])
		if !ok {
			lp = s.Floor()
		}
		sum += lp
	}
	want := math.Abs(sum/float64(len(text)-2) - s.Normalized())

	got, err := s.Score(text)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
}

func TestCount(t *testing.T) {
	c, err := Count(strings.NewReader("The cat.\nthe"), 2)
	require.NoError(t, err)

	// THECATTHE
	assert.Equal(t, 2, c.N())
	assert.Equal(t, uint64(2), c.Get("TH"))
	assert.Equal(t, uint64(2), c.Get("HE"))
	assert.Equal(t, uint64(1), c.Get("EC"))
	assert.Equal(t, uint64(1), c.Get("TT"))
	assert.Equal(t, 6, c.Len())

	_, err = Count(strings.NewReader("x"), 0)
	assert.Error(t, err)
	_, err = Count(strings.NewReader("x"), MaxN+1)
	assert.Error(t, err)
}

func TestCountsWriteToLoadRoundTrip(t *testing.T) {
	c, err := Count(strings.NewReader("the theme of the thesis"), 3)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = c.WriteTo(&buf)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "THE 4", lines[0])

	tbl, err := Load(&buf)
	require.NoError(t, err)
	direct, err := c.Table()
	require.NoError(t, err)

	assert.Equal(t, direct.Total(), tbl.Total())
	assert.Equal(t, direct.Entries(), tbl.Entries())
}

func TestCountsTableEmpty(t *testing.T) {
	c, err := Count(strings.NewReader("12 34"), 4)
	require.NoError(t, err)
	_, err = c.Table()
	assert.ErrorIs(t, err, ErrCorpusFormat)
}
