package codegen

import (
	"sort"
	"strings"
)

type edit struct {
	start, end int
	content    string
	seq        int
}

// ReplaceSource applies byte-range replacements to an original source.
// Edits are applied in start order; among equal starts, insertion order.
// An edit overlapping an earlier one is clipped to the end of it.
type ReplaceSource struct {
	original string
	edits    []edit
}

// NewReplaceSource wraps original.
func NewReplaceSource(original string) *ReplaceSource {
	return &ReplaceSource{original: original}
}

// Original returns the unmodified source.
func (s *ReplaceSource) Original() string {
	return s.original
}

// Replace substitutes content for the half-open range [start, end).
func (s *ReplaceSource) Replace(start, end int, content string) {
	start = s.clamp(start)
	end = s.clamp(end)
	if end < start {
		end = start
	}
	s.edits = append(s.edits, edit{start: start, end: end, content: content, seq: len(s.edits)})
}

// Insert adds content before pos.
func (s *ReplaceSource) Insert(pos int, content string) {
	s.Replace(pos, pos, content)
}

// Edits returns the number of recorded edits.
func (s *ReplaceSource) Edits() int {
	return len(s.edits)
}

func (s *ReplaceSource) clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > len(s.original) {
		return len(s.original)
	}
	return n
}

// Source renders the edited text.
func (s *ReplaceSource) Source() string {
	if len(s.edits) == 0 {
		return s.original
	}
	edits := make([]edit, len(s.edits))
	copy(edits, s.edits)
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		return edits[i].seq < edits[j].seq
	})

	var b strings.Builder
	b.Grow(len(s.original))
	cursor := 0
	for _, e := range edits {
		start := e.start
		if start < cursor {
			start = cursor
		}
		b.WriteString(s.original[cursor:start])
		b.WriteString(e.content)
		if e.end > start {
			cursor = e.end
		} else {
			cursor = start
		}
	}
	b.WriteString(s.original[cursor:])
	return b.String()
}
