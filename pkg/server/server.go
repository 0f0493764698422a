package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bastiangx/hippie/internal/logger"
	"github.com/bastiangx/hippie/pkg/cycle"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles IPC between one editor and a cycling session.
type Server struct {
	session  *cycle.Session
	reader   *bufio.Reader
	input    io.Reader
	writer   *bufio.Writer
	maxFrame int
	logger   *log.Logger
	requests int
}

// NewServer creates a server using stdin/stdout for IPC.
func NewServer(session *cycle.Session, maxFrame int) *Server {
	return NewServerWithIO(session, os.Stdin, os.Stdout, maxFrame)
}

// NewServerWithIO creates a server over the given streams.
func NewServerWithIO(session *cycle.Session, r io.Reader, w io.Writer, maxFrame int) *Server {
	return &Server{
		session:  session,
		reader:   bufio.NewReader(r),
		input:    r,
		writer:   bufio.NewWriter(w),
		maxFrame: maxFrame,
		logger:   logger.New("server"),
	}
}

// Start serves requests until the input ends or ctx is cancelled. A clean
// end of input returns nil.
//
// Cancelling ctx closes the input when it is an io.Closer, which unblocks a
// pending read on pipes. A read that closing cannot interrupt, such as a
// terminal stdin, only returns once input arrives or ends.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Debug("Starting server")
	s.sendResponse(StatusResponse{Status: "ready"})

	if c, ok := s.input.(io.Closer); ok {
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				c.Close()
			case <-done:
			}
		}()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := ReadFrame(s.reader, s.maxFrame)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, ErrFrameTooLarge) {
				s.logger.Warnf("Dropping request: %v", err)
				s.sendError("", err.Error(), 413)
				continue
			}
			s.logger.Errorf("Reading request: %v", err)
			return err
		}
		s.requests++
		s.handleRequest(payload)
	}
}

func (s *Server) handleRequest(payload []byte) {
	var req Request
	if err := msgpack.Unmarshal(payload, &req); err != nil {
		s.logger.Errorf("Unmarshaling request: %v", err)
		s.sendError("", "invalid msgpack request", 400)
		return
	}

	switch req.Op {
	case OpOpen:
		if req.Buffer == "" {
			s.sendError(req.ID, "missing buffer id", 400)
			return
		}
		s.session.Index().RefreshGlobal(req.Buffer, req.Text)
		s.sendResponse(StatusResponse{ID: req.ID, Status: "ok"})
	case OpChange:
		idx := s.session.Index()
		if req.Buffer != "" {
			idx.RefreshGlobal(req.Buffer, req.Text)
		}
		idx.RefreshLocal(req.Text, req.Cursor)
		s.sendResponse(StatusResponse{ID: req.ID, Status: "ok"})
	case OpNext:
		s.handleCycle(req, cycle.Forward)
	case OpPrev:
		s.handleCycle(req, cycle.Backward)
	case OpStats:
		s.sendResponse(StatsResponse{
			ID:       req.ID,
			Stats:    s.session.Index().Stats(),
			Requests: s.requests,
		})
	case OpReset:
		s.session.Reset()
		s.sendResponse(StatusResponse{ID: req.ID, Status: "ok"})
	case OpHealth:
		s.sendResponse(StatusResponse{ID: req.ID, Status: "ok"})
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown op: %q", req.Op), 400)
	}
}

// handleCycle runs one command against the request's document snapshot and
// returns the edits the editor has to apply.
func (s *Server) handleCycle(req Request, dir cycle.Direction) {
	start := time.Now()
	buf := &cycle.Buffer{Content: req.Text, Sels: toSelections(req.Selections)}
	idx := s.session.Index()

	if len(buf.Sels) > 0 {
		idx.RefreshLocal(buf.Content, buf.Sels[0].Active)
	}
	res, err := s.session.Cycle(buf, dir)
	if err != nil {
		s.logger.Errorf("Cycling %s: %v", dir, err)
		s.sendError(req.ID, err.Error(), 500)
		return
	}
	if res.Outcome == cycle.Emitted {
		idx.RefreshLocal(buf.Content, buf.Sels[0].Active)
	}

	resp := CycleResponse{
		ID:        req.ID,
		Outcome:   res.Outcome.String(),
		Query:     res.Query,
		Candidate: res.Candidate,
		Index:     res.Index,
		Total:     res.Total,
		TimeTaken: time.Since(start).Microseconds(),
	}
	if res.Outcome == cycle.Emitted {
		resp.Edits = toEditMsgs(res.Edits)
		resp.Selections = fromSelections(buf.Sels)
	}
	s.logger.Debugf("%s %q -> %q (%s, %d/%d) in %dus",
		dir, res.Query, res.Candidate, res.Outcome, res.Index+1, res.Total, resp.TimeTaken)
	s.sendResponse(resp)
}

func toSelections(raw [][2]int) []cycle.Selection {
	sels := make([]cycle.Selection, 0, len(raw))
	for _, r := range raw {
		sels = append(sels, cycle.Selection{Anchor: r[0], Active: r[1]})
	}
	return sels
}

func fromSelections(sels []cycle.Selection) [][2]int {
	out := make([][2]int, 0, len(sels))
	for _, sel := range sels {
		out = append(out, [2]int{sel.Anchor, sel.Active})
	}
	return out
}

func toEditMsgs(edits []cycle.Edit) []EditMsg {
	out := make([]EditMsg, 0, len(edits))
	for _, e := range edits {
		out = append(out, EditMsg{Start: e.Delete.Start, End: e.Delete.End, Insert: e.Insert})
	}
	return out
}

// sendResponse encodes response as one frame and flushes it.
func (s *Server) sendResponse(response any) {
	data, err := msgpack.Marshal(response)
	if err != nil {
		s.logger.Errorf("Marshaling response: %v", err)
		return
	}
	if err := WriteFrame(s.writer, data); err != nil {
		s.logger.Errorf("Writing response: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		s.logger.Errorf("Flushing response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(ErrorResponse{ID: id, Error: message, Code: code})
}
