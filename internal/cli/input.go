// Package cli is a line-based shell for debugging candidate ranking and cycling.
package cli

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/bastiangx/hippie/internal/utils"
	"github.com/bastiangx/hippie/pkg/cycle"
	"github.com/bastiangx/hippie/pkg/match"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// ShellBuffer is the global buffer id of the shell's scratch text.
const ShellBuffer = "<shell>"

var (
	wordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	tierStyle = lipgloss.NewStyle().Faint(true)
)

// InputHandler reads commands and queries line by line. A plain line is a
// query whose candidates are printed with their tier and rank; lines starting
// with ':' drive a scratch buffer through the cycle commands.
type InputHandler struct {
	session  *cycle.Session
	matcher  *match.Matcher
	limit    int
	noFilter bool
	buf      *cycle.Buffer
	log      *log.Logger
}

// NewInputHandler creates a shell writing to out.
func NewInputHandler(session *cycle.Session, out io.Writer, limit int, noFilter bool) *InputHandler {
	return &InputHandler{
		session:  session,
		matcher:  match.NewMatcher(session.Index().Tokenizer()),
		limit:    limit,
		noFilter: noFilter,
		buf:      cycle.NewBuffer("", 0),
		log: log.NewWithOptions(out, log.Options{
			Level:     log.GetLevel(),
			Formatter: log.TextFormatter,
		}),
	}
}

// Start runs the loop until r is exhausted.
func (h *InputHandler) Start(r io.Reader) error {
	h.log.Print("hippie CLI")
	h.log.Print("type a word to rank candidates, :help for commands")

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := h.handleCommand(line); quit {
				return nil
			}
			continue
		}
		h.handleQuery(line)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *InputHandler) handleCommand(line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	switch name {
	case ":text":
		h.setText(arg)
	case ":next":
		h.step(cycle.Forward)
	case ":prev":
		h.step(cycle.Backward)
	case ":stats":
		stats := h.session.Index().Stats()
		h.log.Printf("buffers=%d global=%d head=%d tail=%d",
			stats["buffers"], stats["globalWords"], stats["headWords"], stats["tailWords"])
	case ":reset":
		h.session.Reset()
		h.log.Print("cycle state cleared")
	case ":help":
		h.log.Print(":text <words>  replace the scratch buffer, cursor at the end")
		h.log.Print(":next :prev    cycle the word before the cursor")
		h.log.Print(":stats :reset  index counters, drop cycle state")
		h.log.Print(":quit")
	case ":quit", ":q":
		return true
	default:
		h.log.Errorf("Unknown command: %s", name)
	}
	return false
}

func (h *InputHandler) setText(text string) {
	h.buf = cycle.NewBuffer(text, len(text))
	idx := h.session.Index()
	idx.RefreshGlobal(ShellBuffer, text)
	idx.RefreshLocal(text, len(text))
	h.log.Printf("buffer: %q", text)
}

func (h *InputHandler) step(dir cycle.Direction) {
	if len(h.buf.Sels) == 0 {
		h.log.Warn("no cursor in scratch buffer")
		return
	}
	res, err := h.session.Cycle(h.buf, dir)
	if err != nil {
		h.log.Errorf("Cycle failed: %v", err)
		return
	}
	if res.Outcome != cycle.Emitted {
		h.log.Warnf("%s: %s", dir, res.Outcome)
		return
	}
	h.session.Index().RefreshLocal(h.buf.Content, h.buf.Sels[0].Active)
	h.log.Printf("%s %d/%d %s  buffer: %q",
		dir, res.Index+1, res.Total, wordStyle.Render(res.Candidate), h.buf.Content)
}

func (h *InputHandler) handleQuery(query string) {
	if !h.noFilter && !utils.IsValidQuery(query) {
		h.log.Warnf("Not a word: '%s'", query)
		return
	}

	start := time.Now()
	candidates := h.session.Candidates(query)
	log.Debugf("Took [ %v ] for query '%s'", time.Since(start), query)

	if len(candidates) == 0 {
		h.log.Warnf("No candidates for '%s'", query)
		return
	}

	shown := candidates
	if h.limit > 0 && len(shown) > h.limit {
		shown = shown[:h.limit]
	}
	h.log.Printf("Found %d candidates for '%s':", len(candidates), query)
	for i, s := range h.matcher.Explain(shown, query) {
		h.log.Printf("%2d. %-32s rank %3d  %s", i+1, wordStyle.Render(s.Word), s.Rank, tierStyle.Render(s.Tier.String()))
	}
}
