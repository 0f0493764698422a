// Package index keeps the word lists the cycle controller draws candidates from:
// a local list of tokens around the cursor of the active buffer, and a global list
// of deduplicated tokens for every buffer that was opened.
package index

import (
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bastiangx/hippie/internal/utils"
	"github.com/bastiangx/hippie/pkg/tokenize"
	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Local holds the tokens of the active buffer split at the cursor.
// Head lists tokens before the cursor nearest-first, Tail the tokens after it,
// also nearest-first. Both are deduplicated; the two are never merged.
type Local struct {
	Head []string
	Tail []string
}

// bufferEntry is the global word set of one buffer.
type bufferEntry struct {
	words []string
	// lowercased token -> []string of the spellings seen in the buffer
	trie *patricia.Trie
	sum  uint64
}

// Index stores the local and global word lists of one editing session.
// It is safe for concurrent use.
type Index struct {
	tok     *tokenize.Tokenizer
	mu      sync.RWMutex
	local   Local
	buffers map[string]*bufferEntry
	order   []string
}

var errStopVisit = errors.New("stop visit")

// New creates an empty index that tokenizes with tok.
func New(tok *tokenize.Tokenizer) *Index {
	if tok == nil {
		tok = tokenize.Default
	}
	return &Index{
		tok:     tok,
		buffers: make(map[string]*bufferEntry),
	}
}

// Tokenizer returns the tokenizer used for both word lists.
func (ix *Index) Tokenizer() *tokenize.Tokenizer {
	return ix.tok
}

// BuildLocal splits text at the byte offset cursor and returns the local word list.
// The cursor is clamped into the text and moved back onto a rune boundary.
func BuildLocal(tok *tokenize.Tokenizer, text string, cursor int) Local {
	cursor = clampCursor(text, cursor)

	headTokens := tok.Extract(text[:cursor])
	seen := utils.NewSeenSet()
	head := make([]string, 0, len(headTokens))
	// walking backward keeps the occurrence nearest to the cursor
	for i := len(headTokens) - 1; i >= 0; i-- {
		if seen.Add(headTokens[i]) {
			head = append(head, headTokens[i])
		}
	}

	return Local{
		Head: head,
		Tail: utils.Dedupe(tok.Extract(text[cursor:])),
	}
}

func clampCursor(text string, cursor int) int {
	if cursor < 0 {
		return 0
	}
	if cursor >= len(text) {
		return len(text)
	}
	for cursor > 0 && !utf8.RuneStart(text[cursor]) {
		cursor--
	}
	return cursor
}

// RefreshLocal rebuilds the local word list from the full buffer text.
func (ix *Index) RefreshLocal(text string, cursor int) {
	var local Local
	if !safely("local", func() { local = BuildLocal(ix.tok, text, cursor) }) {
		return
	}

	ix.mu.Lock()
	ix.local = local
	ix.mu.Unlock()
}

// Local returns a copy of the current local word list.
func (ix *Index) Local() Local {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return Local{
		Head: append([]string(nil), ix.local.Head...),
		Tail: append([]string(nil), ix.local.Tail...),
	}
}

// RefreshGlobal replaces the word set stored for bufferID. Text identical to the
// previous refresh of the same buffer is not tokenized again.
func (ix *Index) RefreshGlobal(bufferID, text string) {
	sum := xxhash.Sum64String(text)

	ix.mu.RLock()
	existing, ok := ix.buffers[bufferID]
	ix.mu.RUnlock()
	if ok && existing.sum == sum {
		log.Debugf("Buffer %s unchanged, skipping global refresh", bufferID)
		return
	}

	var entry *bufferEntry
	if !safely("global", func() { entry = ix.buildEntry(text, sum) }) {
		return
	}

	ix.mu.Lock()
	if _, ok := ix.buffers[bufferID]; !ok {
		ix.order = append(ix.order, bufferID)
	}
	ix.buffers[bufferID] = entry
	ix.mu.Unlock()

	log.Debugf("Indexed buffer %s: %d distinct words", bufferID, len(entry.words))
}

func (ix *Index) buildEntry(text string, sum uint64) *bufferEntry {
	words := utils.Dedupe(ix.tok.Extract(text))
	trie := patricia.NewTrie()
	for _, w := range words {
		key := patricia.Prefix(strings.ToLower(w))
		if item := trie.Get(key); item != nil {
			trie.Set(key, append(item.([]string), w))
			continue
		}
		trie.Insert(key, []string{w})
	}
	return &bufferEntry{words: words, trie: trie, sum: sum}
}

// Words returns the global word set of bufferID in first-occurrence order.
func (ix *Index) Words(bufferID string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	entry, ok := ix.buffers[bufferID]
	if !ok {
		return nil
	}
	return append([]string(nil), entry.words...)
}

// Buffers returns the indexed buffer ids in the order they were first indexed.
func (ix *Index) Buffers() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]string(nil), ix.order...)
}

// GlobalCandidates calls visit for every global token whose first rune equals first,
// ignoring case, buffer by buffer in indexing order. Returning false stops the walk.
// visit must not call back into the index.
func (ix *Index) GlobalCandidates(first rune, visit func(bufferID, word string) bool) {
	key := patricia.Prefix(strings.ToLower(string(first)))

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	for _, id := range ix.order {
		entry := ix.buffers[id]
		err := entry.trie.VisitSubtree(key, func(_ patricia.Prefix, item patricia.Item) error {
			for _, w := range item.([]string) {
				if !visit(id, w) {
					return errStopVisit
				}
			}
			return nil
		})
		if errors.Is(err, errStopVisit) {
			return
		}
		if err != nil {
			log.Errorf("Error visiting global words of %s: %v", id, err)
		}
	}
}

// Stats returns counters describing the index.
func (ix *Index) Stats() map[string]int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	total := 0
	for _, entry := range ix.buffers {
		total += len(entry.words)
	}
	return map[string]int{
		"buffers":     len(ix.buffers),
		"globalWords": total,
		"headWords":   len(ix.local.Head),
		"tailWords":   len(ix.local.Tail),
	}
}

// safely runs fn and reports false when it panicked, so a failing refresh leaves
// the previous lists in place.
func safely(scope string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recovered from %s refresh failure: %v", scope, r)
			ok = false
		}
	}()
	fn()
	return true
}
