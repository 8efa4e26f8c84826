// Package bitmap provides a small bitset over non-negative integer IDs. The
// probe uses one per sampled column to record which record indexes carried
// the column's key.
package bitmap

import "math/bits"

// Bitmap is a bitset backed by a slice of uint64 words. The zero value is an
// empty set ready to use.
type Bitmap struct {
	data []uint64
}

// New returns a bitmap with room for IDs in [0, n) without growing.
func New(n int) *Bitmap {
	if n <= 0 {
		return &Bitmap{}
	}
	return &Bitmap{data: make([]uint64, (n+63)/64)}
}

// Add sets the bit for id, growing the backing slice as needed. Negative ids
// are ignored.
func (b *Bitmap) Add(id int) {
	if id < 0 {
		return
	}
	word := id / 64
	if word >= len(b.data) {
		grown := make([]uint64, word+1)
		copy(grown, b.data)
		b.data = grown
	}
	b.data[word] |= 1 << uint(id%64)
}

// Has reports whether id is in the set. Negative ids always return false.
func (b *Bitmap) Has(id int) bool {
	if id < 0 {
		return false
	}
	word := id / 64
	if word >= len(b.data) {
		return false
	}
	return b.data[word]&(1<<uint(id%64)) != 0
}

// Count returns the number of IDs in the set.
func (b *Bitmap) Count() int {
	n := 0
	for _, w := range b.data {
		n += bits.OnesCount64(w)
	}
	return n
}

// Missing returns up to limit IDs in [0, n) that are not in the set, in
// ascending order. limit <= 0 means no limit.
func (b *Bitmap) Missing(n, limit int) []int {
	var out []int
	for id := 0; id < n; id++ {
		if b.Has(id) {
			continue
		}
		out = append(out, id)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
