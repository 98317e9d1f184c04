// Package cipher implements keys for monoalphabetic substitution over the
// 26 letter uppercase English alphabet and the codec that applies them.
package cipher

import (
	"errors"
	"fmt"
)

const (
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Size     = len(Alphabet)
)

var (
	ErrInvalidCharacter = errors.New("character outside A-Z")
	ErrInvalidKey       = errors.New("invalid key")
	ErrEmptyInput       = errors.New("empty input")
)

var letterIndex [256]int8

func init() {
	for i := range letterIndex {
		letterIndex[i] = -1
	}
	for i := 0; i < Size; i++ {
		letterIndex[Alphabet[i]] = int8(i)
	}
}

// Index returns the alphabet position of c.
func Index(c byte) (byte, bool) {
	i := letterIndex[c]
	return byte(i), i >= 0
}

// Indices converts text into alphabet positions, failing on the first
// character that is not an uppercase letter.
func Indices(text string) ([]byte, error) {
	out := make([]byte, len(text))
	for i := 0; i < len(text); i++ {
		x, ok := Index(text[i])
		if !ok {
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidCharacter, text[i], i)
		}
		out[i] = x
	}
	return out, nil
}

// Letters is the inverse of Indices.
func Letters(idx []byte) string {
	b := make([]byte, len(idx))
	for i, x := range idx {
		b[i] = Alphabet[x]
	}
	return string(b)
}

// Validate reports the first character of text outside the alphabet.
func Validate(text string) error {
	_, err := Indices(text)
	return err
}
