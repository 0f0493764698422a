package utils

// SeenSet keeps the first occurrence of each word. Matching is exact: tokens are
// case-preserving, so "Foo" and "foo" are distinct words.
type SeenSet struct {
	seen map[string]struct{}
}

// NewSeenSet creates a set that already contains the excluded words.
func NewSeenSet(exclude ...string) *SeenSet {
	seen := make(map[string]struct{}, len(exclude))
	for _, w := range exclude {
		seen[w] = struct{}{}
	}
	return &SeenSet{seen: seen}
}

// Add records word and reports whether it was new.
func (s *SeenSet) Add(word string) bool {
	if _, ok := s.seen[word]; ok {
		return false
	}
	s.seen[word] = struct{}{}
	return true
}

// Has reports whether word was recorded.
func (s *SeenSet) Has(word string) bool {
	_, ok := s.seen[word]
	return ok
}

// Len returns the number of recorded words.
func (s *SeenSet) Len() int {
	return len(s.seen)
}

// Dedupe returns words with later duplicates removed, preserving order.
func Dedupe(words []string) []string {
	if len(words) == 0 {
		return nil
	}
	set := NewSeenSet()
	out := make([]string, 0, len(words))
	for _, w := range words {
		if set.Add(w) {
			out = append(out, w)
		}
	}
	return out
}
