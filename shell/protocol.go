// Package shell supervises a single child process that speaks
// line-delimited JSON: one scripting runtime per workbench, shared by every
// open shell tab through a session id. Requests are matched to responses by
// numeric id; every event fans out to every subscriber, and each event
// carries its session id for subscribers to filter on.
package shell

import (
	"encoding/json"
)

// request is one outbound line: {id, method, params}.
type request struct {
	ID     int64       `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// response is one inbound line answering a request: {id, ok, result?, error?}.
type response struct {
	ID     int64           `json:"id"`
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Event is one inbound line not tied to a request: {event, session_id, ...}.
type Event struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id"`
	RunID     string          `json:"run_id,omitempty"`
	Lines     []string        `json:"lines,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// inbound is used to sniff whether a decoded line is a response or an event
// before committing to one of the two concrete shapes: responses carry a
// nonzero "id", events carry "event".
type inbound struct {
	ID    int64  `json:"id"`
	Event string `json:"event"`
}

const (
	methodCreateSession  = "create_session"
	methodComplete       = "complete"
	methodEvaluate       = "evaluate"
	methodDisposeSession = "dispose_session"
)

// createSessionParams is the payload for methodCreateSession.
type createSessionParams struct {
	SessionID string `json:"session_id"`
	URI       string `json:"uri"`
	Database  string `json:"database"`
}

type completeParams struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
}

type evaluateParams struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
	RunID     string `json:"run_id"`
}

type disposeSessionParams struct {
	SessionID string `json:"session_id"`
}

// CompletionResult is the decoded result of a completion request.
type CompletionResult struct {
	Suggestions []string `json:"suggestions"`
}
