package shell

import "testing"

func TestApplyEventPrintWithoutPayloadAppendsRawLines(t *testing.T) {
	tab := NewShellTab("tab1", "conn1", "test")

	tab.ApplyEvent(Event{Event: "print", Lines: []string{"> db.coll.find()"}})
	tab.ApplyEvent(Event{Event: "print", Lines: []string{"{ ok: 1 }"}})

	if len(tab.RawLines) != 2 {
		t.Fatalf("expected 2 raw lines, got %d", len(tab.RawLines))
	}
	if tab.ActiveTab != OutputRaw {
		t.Fatalf("expected active tab to stay Raw, got %v", tab.ActiveTab)
	}
	if len(tab.ResultPages) != 0 {
		t.Fatalf("expected no result pages")
	}
}

func TestApplyEventPrintWithPayloadSwitchesToResults(t *testing.T) {
	tab := NewShellTab("tab1", "conn1", "test")
	tab.RawLines = []string{"previous output"}

	tab.ApplyEvent(Event{Event: "print", RunID: "r1", Payload: []byte(`[{"_id":1}]`)})

	if tab.ActiveTab != OutputResults {
		t.Fatalf("expected active tab to switch to Results")
	}
	if len(tab.ResultPages) != 1 || tab.ResultPages[0].RunID != "r1" {
		t.Fatalf("unexpected result pages: %+v", tab.ResultPages)
	}
	if len(tab.RawLines) != 1 {
		t.Fatalf("expected prior raw lines to be left untouched")
	}
}

func TestApplyEventClearResetsBothPanes(t *testing.T) {
	tab := NewShellTab("tab1", "conn1", "test")
	tab.RawLines = []string{"x"}
	tab.ResultPages = []ResultPage{{RunID: "r1"}}
	tab.ActiveTab = OutputResults

	tab.ApplyEvent(Event{Event: "clear"})

	if tab.RawLines != nil || tab.ResultPages != nil {
		t.Fatalf("expected both panes reset, got raw=%v results=%v", tab.RawLines, tab.ResultPages)
	}
}

func TestApplyEventUnknownKindIsIgnored(t *testing.T) {
	tab := NewShellTab("tab1", "conn1", "test")
	tab.RawLines = []string{"x"}

	tab.ApplyEvent(Event{Event: "ping"})

	if len(tab.RawLines) != 1 {
		t.Fatalf("expected unknown event kind to be ignored")
	}
}

func TestBeginRunStampsLastRunID(t *testing.T) {
	tab := NewShellTab("tab1", "conn1", "test")
	tab.BeginRun("r42")

	if tab.LastRunID != "r42" {
		t.Fatalf("expected LastRunID to be r42, got %q", tab.LastRunID)
	}
}
