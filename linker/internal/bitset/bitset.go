// Package bitset provides the dense module-index set used as the dirty
// worklist of the resolver's fixpoints.
package bitset

import "math/bits"

// Set is a set of non-negative ints backed by a bitmap.
type Set struct {
	words []uint64
}

// New creates a set sized for values below n. It grows on demand.
func New(n int) *Set {
	return &Set{words: make([]uint64, (n+63)/64)}
}

// Add inserts v and reports whether it was absent.
func (s *Set) Add(v int) bool {
	w := v / 64
	if w >= len(s.words) {
		s.grow(w + 1)
	}
	mask := uint64(1) << (uint(v) % 64)
	if s.words[w]&mask != 0 {
		return false
	}
	s.words[w] |= mask
	return true
}

// Remove deletes v.
func (s *Set) Remove(v int) {
	w := v / 64
	if w < len(s.words) {
		s.words[w] &^= uint64(1) << (uint(v) % 64)
	}
}

// Has reports whether v is in the set.
func (s *Set) Has(v int) bool {
	w := v / 64
	if w >= len(s.words) {
		return false
	}
	return s.words[w]&(uint64(1)<<(uint(v)%64)) != 0
}

// Pop removes and returns the smallest element.
func (s *Set) Pop() (int, bool) {
	for i, word := range s.words {
		if word == 0 {
			continue
		}
		bit := bits.TrailingZeros64(word)
		s.words[i] &^= uint64(1) << uint(bit)
		return i*64 + bit, true
	}
	return 0, false
}

// Len returns the number of elements.
func (s *Set) Len() int {
	n := 0
	for _, word := range s.words {
		n += bits.OnesCount64(word)
	}
	return n
}

// Empty reports whether the set has no elements.
func (s *Set) Empty() bool {
	for _, word := range s.words {
		if word != 0 {
			return false
		}
	}
	return true
}

// Slice returns the elements in ascending order.
func (s *Set) Slice() []int {
	var out []int
	for i, word := range s.words {
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			out = append(out, i*64+bit)
			word &= word - 1
		}
	}
	return out
}

// Clear removes every element.
func (s *Set) Clear() {
	for i := range s.words {
		s.words[i] = 0
	}
}

func (s *Set) grow(n int) {
	words := make([]uint64, n)
	copy(words, s.words)
	s.words = words
}
