// Package cycle implements the hippie expansion command: each invocation replaces
// the word under the cursor with the next (or previous) ranked candidate, reusing
// the candidate list for as long as the user keeps cycling the same query.
package cycle

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"unicode/utf8"

	"github.com/bastiangx/hippie/internal/utils"
	"github.com/bastiangx/hippie/pkg/index"
	"github.com/bastiangx/hippie/pkg/match"
	"github.com/bastiangx/hippie/pkg/tokenize"
	"github.com/charmbracelet/log"
)

// Direction selects which way an invocation moves through the candidates.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "prev"
	}
	return "next"
}

// Outcome tells what an invocation did. Only Emitted produces an edit; the other
// outcomes are silent no-ops for the user.
type Outcome int

const (
	Emitted Outcome = iota
	NoActiveEditor
	NoWordAtCursor
	NoCandidates
	IndexExhausted
)

func (o Outcome) String() string {
	switch o {
	case Emitted:
		return "emitted"
	case NoActiveEditor:
		return "no active editor"
	case NoWordAtCursor:
		return "no word at cursor"
	case NoCandidates:
		return "no candidates"
	case IndexExhausted:
		return "index exhausted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ErrApplyEdit wraps failures reported by Editor.ApplyEdit.
var ErrApplyEdit = errors.New("apply edit")

// Options tune candidate collection.
type Options struct {
	// LocalFirstCharFilter also requires local candidates to start with the
	// query's first character. The global fallback always requires it.
	LocalFirstCharFilter bool
	// MaxCandidates caps the match list; zero means no cap.
	MaxCandidates int
}

// State is the cycling state kept between invocations.
type State struct {
	OrigQuery   string
	Matches     []string
	Index       int
	LastEmitted string
}

// Result describes one invocation.
type Result struct {
	Query     string
	Candidate string
	Index     int
	Total     int
	Fresh     bool
	Outcome   Outcome
	Edits     []Edit
}

// Session owns the cycling state of one editing session and the index it reads.
type Session struct {
	idx     *index.Index
	matcher *match.Matcher
	opts    Options

	mu    sync.Mutex
	state State
}

// NewSession creates a session reading candidates from idx.
func NewSession(idx *index.Index, opts Options) *Session {
	return &Session{
		idx:     idx,
		matcher: match.NewMatcher(idx.Tokenizer()),
		opts:    opts,
	}
}

// Index returns the word index the session reads from.
func (s *Session) Index() *index.Index {
	return s.idx
}

// Next is the cycle-forward command.
func (s *Session) Next(ed Editor) (Result, error) {
	return s.Cycle(ed, Forward)
}

// Prev is the cycle-backward command.
func (s *Session) Prev(ed Editor) (Result, error) {
	return s.Cycle(ed, Backward)
}

// Cycle replaces the word under every cursor of ed with the next candidate in dir.
// The returned error is non-nil only when the editor rejected the edit.
func (s *Session) Cycle(ed Editor, dir Direction) (Result, error) {
	if ed == nil {
		return Result{Outcome: NoActiveEditor}, nil
	}
	selections := ed.Selections()
	if len(selections) == 0 {
		return Result{Outcome: NoActiveEditor}, nil
	}
	queryRange, ok := ed.WordRangeAt(selections[0].Active)
	if !ok {
		return Result{Outcome: NoWordAtCursor}, nil
	}
	query := ed.Text(queryRange)
	if query == "" {
		return Result{Outcome: NoWordAtCursor}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := Result{Query: query}
	// the word range never covers a sigil, so an emitted "$price" reads back as "price"
	if query != s.idx.Tokenizer().StripSigil(s.state.LastEmitted) {
		res.Fresh = true
		s.state.OrigQuery = query
		s.state.Index = 0
		if dir == Backward {
			s.state.Index = -1
		}
		s.state.Matches = s.collect(query)
		if len(s.state.Matches) == 0 {
			log.Debugf("No candidates for query '%s'", query)
			res.Outcome = NoCandidates
			return res, nil
		}
		log.Debugf("Built %d candidates for query '%s'", len(s.state.Matches), query)
	} else if dir == Backward {
		s.state.Index--
	} else {
		s.state.Index++
	}

	n := len(s.state.Matches)
	res.Total = n
	if n == 0 {
		s.state.Index = 0
		res.Outcome = IndexExhausted
		return res, nil
	}
	s.state.Index = ((s.state.Index % n) + n) % n

	candidate := s.state.Matches[s.state.Index]
	s.state.LastEmitted = candidate
	res.Candidate = candidate
	res.Index = s.state.Index
	res.Outcome = Emitted
	res.Edits = replacements(ed, s.idx.Tokenizer(), selections, candidate)

	if err := ed.ApplyEdit(res.Edits); err != nil {
		return res, fmt.Errorf("%w: %w", ErrApplyEdit, err)
	}
	return res, nil
}

// Candidates returns the list a fresh invocation for query would cycle
// through, without touching the cycling state.
func (s *Session) Candidates(query string) []string {
	return s.collect(query)
}

// collect builds the ranked match list for a fresh query: head matches by rank,
// then tail matches by rank in reverse, and only when both are empty the global
// words starting with the query's first character.
func (s *Session) collect(query string) []string {
	local := s.idx.Local()

	head := s.matcher.Filter(local.Head, query, s.opts.LocalFirstCharFilter)
	s.matcher.Sort(head, query)
	tail := s.matcher.Filter(local.Tail, query, s.opts.LocalFirstCharFilter)
	s.matcher.Sort(tail, query)
	slices.Reverse(tail)

	matches := utils.Dedupe(append(head, tail...))
	if len(matches) == 0 {
		first, _ := utf8.DecodeRuneInString(query)
		seen := utils.NewSeenSet(query)
		s.idx.GlobalCandidates(first, func(_, word string) bool {
			if !seen.Has(word) && !s.matcher.IsQuery(word, query) && s.matcher.DidMatch(word, query) {
				seen.Add(word)
				matches = append(matches, word)
			}
			return s.opts.MaxCandidates <= 0 || len(matches) < s.opts.MaxCandidates
		})
	}

	if s.opts.MaxCandidates > 0 && len(matches) > s.opts.MaxCandidates {
		matches = matches[:s.opts.MaxCandidates]
	}
	return matches
}

// replacements builds one edit per distinct word range under a selection end.
// A sigil already in front of the range is not inserted twice.
func replacements(ed Editor, tok *tokenize.Tokenizer, selections []Selection, candidate string) []Edit {
	bare := tok.StripSigil(candidate)
	sigil := candidate[:len(candidate)-len(bare)]

	edits := make([]Edit, 0, len(selections))
	seen := make(map[Range]bool, len(selections))
	for _, sel := range selections {
		r, ok := ed.WordRangeAt(sel.End())
		if !ok || seen[r] {
			continue
		}
		seen[r] = true
		insert := candidate
		if sigil != "" && r.Start >= len(sigil) && ed.Text(Range{Start: r.Start - len(sigil), End: r.Start}) == sigil {
			insert = bare
		}
		edits = append(edits, Edit{Delete: r, Insert: insert, At: r.Start})
	}
	return edits
}

// State returns a copy of the cycling state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Matches = append([]string(nil), s.state.Matches...)
	return st
}

// Reset forgets the cycling state so the next invocation starts fresh.
func (s *Session) Reset() {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
}
