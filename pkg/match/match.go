// Package match decides which candidate words plausibly complete a query and ranks
// them so that prefix, substring and abbreviation-style matches sort first.
package match

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/hippie/internal/utils"
	"github.com/bastiangx/hippie/pkg/tokenize"
)

// Rank weights, multiplied by the query length in runes.
const (
	prefixWeight    = 3
	substringWeight = 2
	initialWeight   = 1
)

// Tier is the loosest rule a candidate needed to be accepted.
type Tier int

const (
	TierNone      Tier = iota
	TierSubstring      // candidate contains the query verbatim
	TierSubword        // every query subword occurs in the candidate
	TierCharset        // every query character occurs in the candidate
)

func (t Tier) String() string {
	switch t {
	case TierSubstring:
		return "substring"
	case TierSubword:
		return "subword"
	case TierCharset:
		return "charset"
	default:
		return "none"
	}
}

// Scored is a candidate with its rank and acceptance tier.
type Scored struct {
	Word string
	Rank int
	Tier Tier
}

// Matcher applies the match predicate and ranking for one sigil configuration.
type Matcher struct {
	tok *tokenize.Tokenizer
}

// Default uses the default tokenizer sigils.
var Default = NewMatcher(tokenize.Default)

// NewMatcher creates a matcher. Sigils of tok are stripped before ranking.
func NewMatcher(tok *tokenize.Tokenizer) *Matcher {
	if tok == nil {
		tok = tokenize.Default
	}
	return &Matcher{tok: tok}
}

// Classify returns the tier that accepts candidate for query, or TierNone.
func (m *Matcher) Classify(candidate, query string) Tier {
	if strings.Contains(candidate, query) {
		return TierSubstring
	}
	// single characters only match verbatim
	if utf8.RuneCountInString(query) == 1 {
		return TierNone
	}

	lowerCandidate := strings.ToLower(candidate)
	queryParts := tokenize.Subwords(query)
	if len(queryParts) > 0 && len(tokenize.Subwords(candidate)) >= 2 {
		matched := true
		for _, part := range queryParts {
			if !strings.Contains(lowerCandidate, strings.ToLower(part)) {
				matched = false
				break
			}
		}
		if matched {
			return TierSubword
		}
	}

	for _, r := range strings.ToLower(query) {
		if !strings.ContainsRune(lowerCandidate, r) {
			return TierNone
		}
	}
	return TierCharset
}

// DidMatch reports whether candidate is a plausible completion of query.
// The charset tier accepts many weak candidates on purpose; ranking sorts them out.
func (m *Matcher) DidMatch(candidate, query string) bool {
	return m.Classify(candidate, query) != TierNone
}

// Rank scores str against query. Higher is better.
//
// A case-insensitive prefix match and a substring match each add to the score, so a
// prefix match collects both. Each query character that equals the first letter of
// the subword at the same index adds the query length once more, which is what lifts
// getCurrentUser for the query gcu.
func (m *Matcher) Rank(str, query string) int {
	str = m.tok.StripSigil(str)
	lowerStr := strings.ToLower(str)
	lowerQuery := strings.ToLower(query)
	n := utf8.RuneCountInString(query)

	rank := 0
	if strings.HasPrefix(lowerStr, lowerQuery) {
		rank += n * prefixWeight
	}
	if strings.Contains(lowerStr, lowerQuery) {
		rank += n * substringWeight
	}

	parts := tokenize.Subwords(str)
	i := 0
	for _, qr := range lowerQuery {
		if i >= len(parts) {
			break
		}
		first, _ := utf8.DecodeRuneInString(parts[i])
		if utils.EqualFold(first, qr) {
			rank += n * initialWeight
		}
		i++
	}
	return rank
}

// Compare orders a before b when the result is negative: higher ranks sort first.
func (m *Matcher) Compare(a, b, query string) int {
	if a == b {
		return 0
	}
	return m.Rank(b, query) - m.Rank(a, query)
}

// Sort orders words by descending rank in place. Ties keep their relative order.
func (m *Matcher) Sort(words []string, query string) {
	if len(words) < 2 {
		return
	}
	ranks := make(map[string]int, len(words))
	for _, w := range words {
		if _, ok := ranks[w]; !ok {
			ranks[w] = m.Rank(w, query)
		}
	}
	sort.SliceStable(words, func(i, j int) bool {
		return ranks[words[i]] > ranks[words[j]]
	})
}

// IsQuery reports whether word is the query's own token. The query comes from
// a host word range, which never includes a sigil, so "$pr" is the query "pr".
func (m *Matcher) IsQuery(word, query string) bool {
	return word == query || m.tok.StripSigil(word) == query
}

// Filter returns the words that match query, excluding the query itself.
// With firstChar set, a word must also start with the query's first character,
// compared case-insensitively.
func (m *Matcher) Filter(words []string, query string, firstChar bool) []string {
	var out []string
	for _, w := range words {
		if m.IsQuery(w, query) {
			continue
		}
		if firstChar && !SameFirstRune(w, query) {
			continue
		}
		if m.DidMatch(w, query) {
			out = append(out, w)
		}
	}
	return out
}

// Explain scores each word for query without reordering them.
func (m *Matcher) Explain(words []string, query string) []Scored {
	scored := make([]Scored, 0, len(words))
	for _, w := range words {
		scored = append(scored, Scored{
			Word: w,
			Rank: m.Rank(w, query),
			Tier: m.Classify(w, query),
		})
	}
	return scored
}

// SameFirstRune reports whether a and b start with the same rune, ignoring case.
func SameFirstRune(a, b string) bool {
	ra, sa := utf8.DecodeRuneInString(a)
	rb, sb := utf8.DecodeRuneInString(b)
	if sa == 0 || sb == 0 {
		return false
	}
	return utils.EqualFold(ra, rb)
}

// DidMatch applies the default matcher.
func DidMatch(candidate, query string) bool {
	return Default.DidMatch(candidate, query)
}

// Rank applies the default matcher.
func Rank(str, query string) int {
	return Default.Rank(str, query)
}

// Compare applies the default matcher.
func Compare(a, b, query string) int {
	return Default.Compare(a, b, query)
}
