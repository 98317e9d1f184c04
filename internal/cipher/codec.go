package cipher

// Decrypt replaces each ciphertext letter c with Alphabet[key.IndexOf(c)].
func Decrypt(ciphertext string, key Key) (string, error) {
	idx, err := Indices(ciphertext)
	if err != nil {
		return "", err
	}
	d := NewDecoder(key)
	d.Decode(idx, idx)
	return Letters(idx), nil
}

// Encrypt is the inverse of Decrypt under the same key.
func Encrypt(plaintext string, key Key) (string, error) {
	idx, err := Indices(plaintext)
	if err != nil {
		return "", err
	}
	for i, p := range idx {
		idx[i] = key[p]
	}
	return Letters(idx), nil
}

// Decoder applies a key to text already converted to alphabet indices. It
// does no validation and is meant for the search loop.
type Decoder struct {
	inv [Size]byte
}

func NewDecoder(key Key) *Decoder {
	d := &Decoder{}
	d.Reset(key)
	return d
}

func (d *Decoder) Reset(key Key) {
	d.inv = key.Inverse()
}

// Decode writes the plaintext indices of src into dst. dst must be at least
// as long as src and may alias it.
func (d *Decoder) Decode(dst, src []byte) {
	for i, c := range src {
		dst[i] = d.inv[c]
	}
}
