// Package ngram loads n-gram frequency corpora and scores how English-like
// a piece of text is against them.
package ngram

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/jmccarv/substsolve/internal/cipher"
)

// MaxN is the longest n-gram a table may hold. Scoring keeps a dense
// 26^n table, which is already ~95MB of float64 at n=5.
const MaxN = 5

var (
	ErrCorpusFormat  = errors.New("malformed corpus")
	ErrEmptyInput    = fmt.Errorf("%w: text shorter than the n-gram window", cipher.ErrEmptyInput)
	ErrInvalidOption = errors.New("invalid scorer option")
)

type Entry struct {
	Ngram   string
	Count   uint64
	LogProb float64 // log10(Count) - log10(total)
}

// Table maps every n-gram of a corpus to its log10 probability. It is
// read-only once built.
type Table struct {
	n       int
	total   uint64
	entries []Entry
	index   map[string]int
}

// Given a corpus line like:
// TION 13168375
// where the first field is an n-gram of the letters A-Z and the second the
// number of times it was seen, return the parsed values.
func parseLine(line string) (string, uint64, error) {
	f := strings.Fields(line)
	if len(f) != 2 {
		return "", 0, fmt.Errorf("want 2 fields, got %d", len(f))
	}

	if err := cipher.Validate(f[0]); err != nil {
		return "", 0, fmt.Errorf("n-gram %q: %w", f[0], err)
	}

	count, err := strconv.ParseUint(f[1], 10, 64)
	if err != nil || count == 0 {
		return "", 0, fmt.Errorf("count %q is not a positive integer", f[1])
	}
	return f[0], count, nil
}

// Load reads a corpus of "<NGRAM> <COUNT>" lines. The n-gram length is
// taken from the first entry and every other entry must match it.
func Load(r io.Reader) (*Table, error) {
	var (
		n     int
		order []string
		count = make(map[string]uint64)
	)

	s := bufio.NewScanner(r)
	lno := 0
	for s.Scan() {
		lno++
		line := s.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		ng, c, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrCorpusFormat, lno, err)
		}

		if n == 0 {
			n = len(ng)
			if n > MaxN {
				return nil, fmt.Errorf("%w: line %d: n-gram length %d exceeds %d", ErrCorpusFormat, lno, n, MaxN)
			}
		} else if len(ng) != n {
			return nil, fmt.Errorf("%w: line %d: n-gram %q is not %d letters", ErrCorpusFormat, lno, ng, n)
		}

		if _, ok := count[ng]; !ok {
			order = append(order, ng)
		}
		if count[ng] > math.MaxUint64-c {
			return nil, fmt.Errorf("%w: line %d: count overflow", ErrCorpusFormat, lno)
		}
		count[ng] += c
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}

	if n == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrCorpusFormat)
	}
	return newTable(n, order, count)
}

func LoadFile(fn string) (*Table, error) {
	fh, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	t, err := Load(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return t, nil
}

func newTable(n int, order []string, count map[string]uint64) (*Table, error) {
	t := &Table{
		n:       n,
		entries: make([]Entry, 0, len(order)),
		index:   make(map[string]int, len(order)),
	}

	for _, ng := range order {
		if t.total > math.MaxUint64-count[ng] {
			return nil, fmt.Errorf("%w: total count overflow", ErrCorpusFormat)
		}
		t.total += count[ng]
	}

	norm := math.Log10(float64(t.total))
	for _, ng := range order {
		c := count[ng]
		t.index[ng] = len(t.entries)
		t.entries = append(t.entries, Entry{
			Ngram:   ng,
			Count:   c,
			LogProb: math.Log10(float64(c)) - norm,
		})
	}
	return t, nil
}

// N is the n-gram length.
func (t *Table) N() int { return t.n }

// Total is the sum of all counts.
func (t *Table) Total() uint64 { return t.total }

// Len is the number of distinct n-grams.
func (t *Table) Len() int { return len(t.entries) }

func (t *Table) LogProb(ngram string) (float64, bool) {
	i, ok := t.index[ngram]
	if !ok {
		return 0, false
	}
	return t.entries[i].LogProb, true
}

// Entries returns the entries in corpus order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Top returns the k most probable entries, most probable first. Ties are
// broken alphabetically so the result is stable.
func (t *Table) Top(k int) []Entry {
	e := t.Entries()
	sort.Slice(e, func(i, j int) bool {
		if e[i].Count != e[j].Count {
			return e[i].Count > e[j].Count
		}
		return e[i].Ngram < e[j].Ngram
	})
	if k < len(e) {
		e = e[:max(k, 0)]
	}
	return e
}
