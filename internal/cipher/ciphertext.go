package cipher

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// ReadCiphertext reads a whole ciphertext from r. Lines starting with '#'
// are comments, whitespace is dropped and letters are upper-cased. Anything
// left that is not A-Z is an error.
func ReadCiphertext(r io.Reader) (string, error) {
	var buf bytes.Buffer

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for s.Scan() {
		line := bytes.TrimSpace(s.Bytes())
		if len(line) > 0 && line[0] == '#' {
			continue
		}
		for _, c := range line {
			if c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f' {
				continue
			}
			if 'a' <= c && c <= 'z' {
				c -= 'a' - 'A'
			}
			buf.WriteByte(c)
		}
	}
	if err := s.Err(); err != nil {
		return "", fmt.Errorf("reading ciphertext: %w", err)
	}

	if buf.Len() == 0 {
		return "", fmt.Errorf("%w: no ciphertext", ErrEmptyInput)
	}

	text := buf.String()
	if err := Validate(text); err != nil {
		return "", err
	}
	return text, nil
}
