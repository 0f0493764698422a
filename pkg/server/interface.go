/*
Package server implements the msgpack IPC bridge between an editor and the hippie engine.

The editor owns the documents; the server owns the word index and the cycling state.
Documents reach the server as snapshots and edits travel back in responses, so the editor
only has to forward notifications and apply what it gets.

# IPC

Messages flow over stdin/stdout. Every frame is a 4 byte big-endian length followed by a
msgpack map of that many bytes. Each request carries an ID that the response echoes.

A document opened or saved in the editor seeds the global index:

	{"id": "1", "op": "open", "b": "/src/user.go", "text": "..."}

Edits and cursor moves refresh the local index around the cursor, and the global entry of
the buffer:

	{"id": "2", "op": "change", "b": "/src/user.go", "text": "...", "cur": 118}

The two commands cycle the word under the cursors. sel lists [anchor, active] byte offsets,
primary selection first:

	{"id": "3", "op": "next", "b": "/src/user.go", "text": "...", "sel": [[118, 118]]}

The response names the outcome, the candidate and the edits to apply, one per cursor:

	{"id": "3", "o": "emitted", "cand": "getUserName", "n": 0, "c": 2,
	 "edits": [{"s": 115, "e": 118, "i": "getUserName"}], "sel": [[126, 126]], "t": 41}

Outcomes other than "emitted" carry no edits. stats, reset and health round out the
protocol:

	{"id": "4", "op": "stats"}

# Message Types

Request is the single request shape; which fields matter depends on Op.
CycleResponse answers next and prev, StatsResponse answers stats, StatusResponse answers
open, change, reset and health. ErrorResponse is sent for malformed requests and
rejected edits.
*/
package server

// Operations understood by the server.
const (
	OpOpen   = "open"
	OpChange = "change"
	OpNext   = "next"
	OpPrev   = "prev"
	OpStats  = "stats"
	OpReset  = "reset"
	OpHealth = "health"
)

// Request is an editor notification or command.
type Request struct {
	ID         string   `msgpack:"id"`
	Op         string   `msgpack:"op"`
	Buffer     string   `msgpack:"b,omitempty"`
	Text       string   `msgpack:"text,omitempty"`
	Cursor     int      `msgpack:"cur,omitempty"`
	Selections [][2]int `msgpack:"sel,omitempty"`
}

// EditMsg replaces bytes [Start, End) of the document with Insert.
type EditMsg struct {
	Start  int    `msgpack:"s"`
	End    int    `msgpack:"e"`
	Insert string `msgpack:"i"`
}

// CycleResponse answers next and prev.
type CycleResponse struct {
	ID         string    `msgpack:"id"`
	Outcome    string    `msgpack:"o"`
	Query      string    `msgpack:"q,omitempty"`
	Candidate  string    `msgpack:"cand,omitempty"`
	Index      int       `msgpack:"n"`
	Total      int       `msgpack:"c"`
	Edits      []EditMsg `msgpack:"edits,omitempty"`
	Selections [][2]int  `msgpack:"sel,omitempty"`
	TimeTaken  int64     `msgpack:"t"`
}

// StatsResponse carries index counters.
type StatsResponse struct {
	ID       string         `msgpack:"id"`
	Stats    map[string]int `msgpack:"stats"`
	Requests int            `msgpack:"requests"`
}

// StatusResponse acknowledges a notification.
type StatusResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
}

// ErrorResponse holds basic error information for a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"code"`
}
