package acl

// NestedCipher holds one ciphertext blob per tier of a hierarchy.
//
// Blob ordering is load-bearing and must not be "fixed": blobs are produced
// by walking tiers from the highest index down to 0, masking the accumulator
// with each non-Public tier's keystream and recording every step, then
// reversing. Because the keyed transform is a cycling XOR, Blob(p) equals the
// plaintext masked by every non-Public tier at index >= p: the nominally
// public Blob(0) carries the cumulative mask of all tiers, while the deepest
// blob carries only its own. DecryptToLayer therefore yields the true
// plaintext only at the deepest tier unless every deeper key is supplied.
type NestedCipher struct {
	Layers [][]byte
}

// EncryptNested produces one blob per tier of the hierarchy from plaintext.
func EncryptNested(plaintext []byte, hierarchy *LayeredACL) *NestedCipher {
	layers := make([][]byte, 0, len(hierarchy.Tiers))
	current := append([]byte(nil), plaintext...)

	for j := len(hierarchy.Tiers) - 1; j >= 0; j-- {
		t := &hierarchy.Tiers[j]
		if t.Level != Public {
			current = xorKeystream(current, t.TierKey)
		}
		layers = append(layers, append([]byte(nil), current...))
	}

	// Recorded deepest-first; present in tier order.
	for i, j := 0, len(layers)-1; i < j; i, j = i+1, j-1 {
		layers[i], layers[j] = layers[j], layers[i]
	}
	return &NestedCipher{Layers: layers}
}

// DecryptLayer applies the tier transform to a single blob. The transform is
// a self-inverse XOR, so encryption and decryption are the same operation.
func (n *NestedCipher) DecryptLayer(layer int, key []byte) ([]byte, bool) {
	if layer < 0 || layer >= len(n.Layers) {
		return nil, false
	}
	return xorKeystream(n.Layers[layer], key), true
}

// DecryptToLayer starts from the outermost blob and peels one mask per tier
// using keys[1..target] (index 0 is a placeholder for the Public tier).
//
// It fails when target is out of range or fewer than target+1 keys are
// supplied. See the NestedCipher ordering note: for target below the deepest
// tier a residual mask from deeper tiers remains unless their keys are also
// presented.
func (n *NestedCipher) DecryptToLayer(target int, keys [][]byte) ([]byte, bool) {
	if target < 0 || target >= len(n.Layers) {
		return nil, false
	}
	data := append([]byte(nil), n.Layers[0]...)
	for layer := 1; layer <= target; layer++ {
		if layer >= len(keys) {
			return nil, false
		}
		data = xorKeystream(data, keys[layer])
	}
	return data, true
}

// LayerCount returns the number of blobs.
func (n *NestedCipher) LayerCount() int {
	return len(n.Layers)
}

// xorKeystream XORs data with key cycled to length. An empty key is the
// identity transform.
func xorKeystream(data, key []byte) []byte {
	if len(key) == 0 {
		return append([]byte(nil), data...)
	}
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}
	return out
}
