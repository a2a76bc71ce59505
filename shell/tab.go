package shell

import "encoding/json"

// OutputTab is which pane of a shell tab's output area is active.
type OutputTab int

const (
	OutputRaw OutputTab = iota
	OutputResults
)

// ResultPage is one labeled page of documents produced by a print event
// that carried a payload.
type ResultPage struct {
	RunID     string
	Documents json.RawMessage
}

// ShellTab is the shell-engine side of a workspace Shell tab; state only
// ever stores its string id, looked up here. It owns everything the Rust
// original kept in session state: accumulated raw lines, result pages, and
// which output pane is currently showing.
type ShellTab struct {
	ID          string
	SessionID   string
	ConnID      string
	Database    string
	RawLines    []string
	ResultPages []ResultPage
	ActiveTab   OutputTab
	LastRunID   string
	Err         string
}

// NewShellTab returns a tab with no session bound yet; CreateSession (and
// recording the returned session id here) must happen before Evaluate.
func NewShellTab(id, connID, database string) *ShellTab {
	return &ShellTab{ID: id, ConnID: connID, Database: database, ActiveTab: OutputRaw}
}

// ApplyEvent folds one bridge Event addressed to this tab's session into its
// state. print events with a payload become a new result page and flip the
// active tab to Results; print events without one append raw lines and
// never touch the active tab. clear resets both panes. Errors never force a
// tab switch, matching the spec: a failed evaluate should not yank the user
// away from whatever they were looking at.
func (t *ShellTab) ApplyEvent(ev Event) {
	switch ev.Event {
	case "print":
		if len(ev.Payload) > 0 {
			t.ResultPages = append(t.ResultPages, ResultPage{RunID: ev.RunID, Documents: ev.Payload})
			t.ActiveTab = OutputResults
			return
		}
		t.RawLines = append(t.RawLines, ev.Lines...)
	case "clear":
		t.RawLines = nil
		t.ResultPages = nil
	}
}

// BeginRun stamps a fresh run id before an Evaluate call, so ApplyEvent can
// be matched against it by the caller if it chooses to filter by run.
func (t *ShellTab) BeginRun(runID string) {
	t.LastRunID = runID
}
