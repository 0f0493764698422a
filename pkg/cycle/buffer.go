package cycle

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/bastiangx/hippie/pkg/tokenize"
)

// WordRangeAt returns the run of word characters (letters, digits, underscore)
// touching offset, the same coarse word rule hosts use for the query.
func WordRangeAt(text string, offset int) (Range, bool) {
	if offset < 0 || offset > len(text) {
		return Range{}, false
	}
	start := offset
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if !tokenize.IsWordRune(r) {
			break
		}
		start -= size
	}
	end := offset
	for end < len(text) {
		r, size := utf8.DecodeRuneInString(text[end:])
		if !tokenize.IsWordRune(r) {
			break
		}
		end += size
	}
	if start == end {
		return Range{}, false
	}
	return Range{Start: start, End: end}, true
}

// Buffer is an in-memory Editor over a single text. It backs the IPC bridge and
// the debug shell, where the host sends a snapshot rather than a live document.
type Buffer struct {
	Content string
	Sels    []Selection
	// Applied counts ApplyEdit calls.
	Applied int
}

// NewBuffer creates a buffer with one cursor at each offset.
func NewBuffer(text string, cursors ...int) *Buffer {
	sels := make([]Selection, 0, len(cursors))
	for _, c := range cursors {
		sels = append(sels, Selection{Anchor: c, Active: c})
	}
	return &Buffer{Content: text, Sels: sels}
}

// Selections implements Editor.
func (b *Buffer) Selections() []Selection {
	return b.Sels
}

// WordRangeAt implements Editor.
func (b *Buffer) WordRangeAt(offset int) (Range, bool) {
	return WordRangeAt(b.Content, offset)
}

// Text implements Editor.
func (b *Buffer) Text(r Range) string {
	if r.Start < 0 || r.End > len(b.Content) || r.Start > r.End {
		return ""
	}
	return b.Content[r.Start:r.End]
}

// ApplyEdit implements Editor. Edits must not overlap. Cursors inside a replaced
// range move to the end of the inserted text.
func (b *Buffer) ApplyEdit(edits []Edit) error {
	sorted := append([]Edit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Delete.Start < sorted[j].Delete.Start
	})
	for i, e := range sorted {
		if e.Delete.Start < 0 || e.Delete.End > len(b.Content) || e.Delete.Start > e.Delete.End {
			return fmt.Errorf("edit range %d-%d outside buffer of %d bytes", e.Delete.Start, e.Delete.End, len(b.Content))
		}
		if i > 0 && e.Delete.Start < sorted[i-1].Delete.End {
			return fmt.Errorf("overlapping edits at %d", e.Delete.Start)
		}
	}

	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		b.Content = b.Content[:e.Delete.Start] + e.Insert + b.Content[e.Delete.End:]
	}
	for i, sel := range b.Sels {
		b.Sels[i] = Selection{
			Anchor: mapOffset(sel.Anchor, sorted),
			Active: mapOffset(sel.Active, sorted),
		}
	}
	b.Applied++
	return nil
}

// mapOffset moves an offset of the old text into the edited text. edits are
// sorted by start.
func mapOffset(pos int, edits []Edit) int {
	shift := 0
	for _, e := range edits {
		if pos < e.Delete.Start {
			break
		}
		if pos <= e.Delete.End {
			return e.Delete.Start + shift + len(e.Insert)
		}
		shift += len(e.Insert) - e.Delete.Len()
	}
	return pos + shift
}
