// Package rewrite records textual insertions against an original source and
// materializes the edited text.
package rewrite

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

// ErrOutOfRange is returned for insertions outside the source text.
var ErrOutOfRange = errors.New("insertion offset out of range")

type insertion struct {
	offset int
	seq    int
	text   string
}

// Buffer holds the original source and the insertions made against it.
// Insertions may be recorded in any order; those at the same offset keep the
// order they were made in.
type Buffer struct {
	src   []byte
	edits []insertion
}

// NewBuffer returns a buffer over src. The slice is not modified.
func NewBuffer(src []byte) *Buffer {
	return &Buffer{src: src}
}

// InsertTextBefore inserts text before the byte at offset. An offset equal
// to the source length appends.
func (b *Buffer) InsertTextBefore(offset int, text string) error {
	if offset < 0 || offset > len(b.src) {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrOutOfRange, offset, len(b.src))
	}
	if text == "" {
		return nil
	}
	b.edits = append(b.edits, insertion{offset: offset, seq: len(b.edits), text: text})
	return nil
}

// Len returns the number of recorded insertions.
func (b *Buffer) Len() int {
	return len(b.edits)
}

// Bytes returns the source with every insertion applied.
func (b *Buffer) Bytes() []byte {
	if len(b.edits) == 0 {
		return append([]byte(nil), b.src...)
	}

	edits := make([]insertion, len(b.edits))
	copy(edits, b.edits)
	sort.Slice(edits, func(i, j int) bool {
		if edits[i].offset != edits[j].offset {
			return edits[i].offset < edits[j].offset
		}
		return edits[i].seq < edits[j].seq
	})

	var out bytes.Buffer
	out.Grow(len(b.src) + 16*len(edits))
	last := 0
	for _, e := range edits {
		out.Write(b.src[last:e.offset])
		out.WriteString(e.text)
		last = e.offset
	}
	out.Write(b.src[last:])
	return out.Bytes()
}

func (b *Buffer) String() string {
	return string(b.Bytes())
}
