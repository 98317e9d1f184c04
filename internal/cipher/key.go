package cipher

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
)

// Key is a permutation of the alphabet. Position p holds the ciphertext
// letter that plaintext letter Alphabet[p] was enciphered to, so decrypting
// c yields Alphabet[k.IndexOf(c)].
type Key [Size]byte

func IdentityKey() Key {
	var k Key
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

// RandomKey returns a uniformly random permutation drawn from r.
func RandomKey(r *rand.Rand) Key {
	k := IdentityKey()
	k.Shuffle(r)
	return k
}

func (k *Key) Shuffle(r *rand.Rand) {
	r.Shuffle(Size, func(i, j int) { k[i], k[j] = k[j], k[i] })
}

// Swap returns a copy of k with positions i and j exchanged.
func (k Key) Swap(i, j int) Key {
	k[i], k[j] = k[j], k[i]
	return k
}

// IndexOf returns the position holding letter c, or -1.
func (k Key) IndexOf(c byte) int {
	x, ok := Index(c)
	if !ok {
		return -1
	}
	for i, v := range k {
		if v == x {
			return i
		}
	}
	return -1
}

// Inverse maps each ciphertext letter index to its plaintext letter index.
func (k Key) Inverse() [Size]byte {
	var inv [Size]byte
	for p, c := range k {
		inv[c] = byte(p)
	}
	return inv
}

// Valid reports whether k is a permutation of the alphabet.
func (k Key) Valid() bool {
	var seen [Size]bool
	for _, c := range k {
		if int(c) >= Size || seen[c] {
			return false
		}
		seen[c] = true
	}
	return true
}

func (k Key) String() string {
	return Letters(k[:])
}

var rxMapping = regexp.MustCompile(`\s*([A-Z]+=[A-Z]+)(?:[ ,]|$)`)

// ParseKey accepts either the 26 letter form produced by Key.String or a
// list of CIPHER=PLAIN mappings such as "QWE=THE, X=A" that together cover
// the whole alphabet.
func ParseKey(s string) (Key, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.Contains(s, "=") {
		return parseLetters(s)
	}
	return parseMappings([]byte(s))
}

func parseLetters(s string) (Key, error) {
	var k Key
	if len(s) != Size {
		return k, fmt.Errorf("%w: want %d letters, got %d", ErrInvalidKey, Size, len(s))
	}
	idx, err := Indices(s)
	if err != nil {
		return k, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	copy(k[:], idx)
	if !k.Valid() {
		return k, fmt.Errorf("%w: %s is not a permutation", ErrInvalidKey, s)
	}
	return k, nil
}

func parseMappings(line []byte) (Key, error) {
	var k Key
	var set [Size]bool

	mappings := rxMapping.FindAllSubmatchIndex(line, -1)
	if len(mappings) == 0 {
		return k, fmt.Errorf("%w: no mappings in %q", ErrInvalidKey, line)
	}

	// matches must tile the whole line, anything skipped is garbage
	end := 0
	for _, m := range mappings {
		if m[0] != end {
			return k, fmt.Errorf("%w: unexpected %q", ErrInvalidKey, line[end:m[0]])
		}
		end = m[1]
	}
	if end != len(line) {
		return k, fmt.Errorf("%w: unexpected %q", ErrInvalidKey, line[end:])
	}

	for _, m := range mappings {
		mapping := line[m[2]:m[3]]
		kv := bytes.SplitN(mapping, []byte("="), 2)
		if len(kv) != 2 || len(kv[0]) != len(kv[1]) {
			return k, fmt.Errorf("%w: mapping %s", ErrInvalidKey, mapping)
		}

		// kv[0] is the encrypted side, kv[1] the decrypted side
		for i, cc := range kv[0] {
			c, _ := Index(cc)
			p, _ := Index(kv[1][i])
			if set[p] && k[p] != c {
				return k, fmt.Errorf("%w: %c mapped twice", ErrInvalidKey, kv[1][i])
			}
			k[p] = c
			set[p] = true
		}
	}

	for p, ok := range set {
		if !ok {
			return k, fmt.Errorf("%w: no mapping for %c", ErrInvalidKey, Alphabet[p])
		}
	}
	if !k.Valid() {
		return k, fmt.Errorf("%w: mappings are not a permutation", ErrInvalidKey)
	}
	return k, nil
}

// Mappings renders k in the CIPHER=PLAIN form accepted by ParseKey.
func (k Key) Mappings() string {
	parts := make([]string, 0, Size)
	inv := k.Inverse()
	for c, p := range inv {
		parts = append(parts, fmt.Sprintf("%c=%c", Alphabet[c], Alphabet[p]))
	}
	return strings.Join(parts, " ")
}
