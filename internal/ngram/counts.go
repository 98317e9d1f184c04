package ngram

import (
	"bufio"
	"fmt"
	"io"
	"sort"
)

// Counts tallies the n-grams of a text. Only letters count; everything else
// is dropped, so n-grams run across word boundaries.
type Counts struct {
	n     int
	order []string
	count map[string]uint64
}

func Count(r io.Reader, n int) (*Counts, error) {
	if n < 1 || n > MaxN {
		return nil, fmt.Errorf("n-gram length %d out of range 1..%d", n, MaxN)
	}

	c := &Counts{n: n, count: make(map[string]uint64)}
	window := make([]byte, 0, n)

	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading text: %w", err)
		}

		switch {
		case 'A' <= b && b <= 'Z':
		case 'a' <= b && b <= 'z':
			b -= 'a' - 'A'
		default:
			continue
		}

		if len(window) == n {
			copy(window, window[1:])
			window = window[:n-1]
		}
		window = append(window, b)
		if len(window) == n {
			c.add(string(window))
		}
	}
	return c, nil
}

func (c *Counts) add(ng string) {
	if _, ok := c.count[ng]; !ok {
		c.order = append(c.order, ng)
	}
	c.count[ng]++
}

func (c *Counts) N() int   { return c.n }
func (c *Counts) Len() int { return len(c.order) }

func (c *Counts) Get(ng string) uint64 { return c.count[ng] }

// sorted returns the n-grams by descending count, then alphabetically.
func (c *Counts) sorted() []string {
	s := append([]string(nil), c.order...)
	sort.Slice(s, func(i, j int) bool {
		if c.count[s[i]] != c.count[s[j]] {
			return c.count[s[i]] > c.count[s[j]]
		}
		return s[i] < s[j]
	})
	return s
}

// WriteTo writes the counts in the corpus format read by Load.
func (c *Counts) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for _, ng := range c.sorted() {
		n, err := fmt.Fprintf(bw, "%s %d\n", ng, c.count[ng])
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}

// Table builds a Table directly from the counts.
func (c *Counts) Table() (*Table, error) {
	if len(c.order) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrCorpusFormat)
	}
	return newTable(c.n, c.sorted(), c.count)
}
