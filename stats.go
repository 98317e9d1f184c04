package main

import (
	"fmt"
	"io"

	"github.com/jmccarv/substsolve/internal/ngram"
)

func dispStats(w io.Writer, s *ngram.Scorer, top int) {
	t := s.Table()

	fmt.Fprintf(w, "n:          %d\n", t.N())
	fmt.Fprintf(w, "entries:    %d\n", t.Len())
	fmt.Fprintf(w, "total:      %d\n", t.Total())
	fmt.Fprintf(w, "normalized: %0.6f\n", s.Normalized())
	fmt.Fprintf(w, "floor:      %0.6f\n", s.Floor())

	for i, e := range t.Top(top) {
		if i > 0 && i%8 == 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %5.2f  ", e.Ngram, float64(e.Count)/float64(t.Total())*100)
	}
	fmt.Fprintln(w)
}
