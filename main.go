// Command substsolve recovers the key of a simple substitution cipher by
// hill climbing over an n-gram model of English.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
