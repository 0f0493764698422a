package cycle

// Range is a half-open byte range [Start, End) of a buffer.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Selection is one cursor or selection of the host editor. Active is where the
// cursor sits; for an empty selection Anchor equals Active.
type Selection struct {
	Anchor int
	Active int
}

// End returns the later of the two endpoints.
func (s Selection) End() int {
	if s.Anchor > s.Active {
		return s.Anchor
	}
	return s.Active
}

// Edit deletes a range and inserts text at a position given in the coordinates
// of the text before the edit.
type Edit struct {
	Delete Range
	Insert string
	At     int
}

// Editor is the narrow view of the host editing surface the controller needs.
type Editor interface {
	// Selections returns every cursor, primary first. No selections means there is
	// no active editor.
	Selections() []Selection
	// WordRangeAt returns the host-level word range around offset.
	WordRangeAt(offset int) (Range, bool)
	// Text returns the text inside r.
	Text(r Range) string
	// ApplyEdit applies all edits as one operation.
	ApplyEdit(edits []Edit) error
}
