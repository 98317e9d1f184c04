package search

import (
	"fmt"
	"io"
	"sort"

	"github.com/jmccarv/substsolve/internal/cipher"
)

// SolutionSet keeps the best few distinct decryptions seen so far, lowest
// score first. Duplicates are only detected among the current members, so
// memory stays bounded however long the search runs.
type SolutionSet struct {
	set []Solution
	nr  int
}

func NewSolutionSet(size int) *SolutionSet {
	if size < 1 {
		size = 1
	}
	return &SolutionSet{make([]Solution, 0, size+1), size}
}

// return true if we added s to the set
func (ss *SolutionSet) Add(s Solution) bool {
	for _, m := range ss.set {
		if m.Plaintext == s.Plaintext {
			return false
		}
	}

	if len(ss.set) >= ss.nr {
		if s.Score >= ss.set[len(ss.set)-1].Score {
			return false
		}
	}

	ss.set = append(ss.set, s)
	sort.SliceStable(ss.set, func(i, j int) bool { return ss.set[i].Score < ss.set[j].Score })

	if len(ss.set) > ss.nr {
		ss.set = ss.set[:ss.nr]
	}

	return true
}

func (ss *SolutionSet) Len() int { return len(ss.set) }

func (ss *SolutionSet) Solutions() []Solution {
	return append([]Solution(nil), ss.set...)
}

func (ss *SolutionSet) Dump(w io.Writer, includeKey bool) {
	for _, s := range ss.set {
		if includeKey {
			fmt.Fprintln(w, "plain ", cipher.Alphabet)
			fmt.Fprintln(w, "cipher", s.Key)
		}
		fmt.Fprintln(w, s)
	}
}
