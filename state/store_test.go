package state

import "testing"

func TestAddSelectAndRemoveConnection(t *testing.T) {
	s := NewStore()
	s.AddConnection(SavedConnection{ID: "c1", Name: "local", URI: "mongodb://localhost"})

	conns := s.Connections()
	if len(conns) != 1 || conns[0].ID != "c1" {
		t.Fatalf("expected one saved connection c1, got %v", conns)
	}

	s.SetDatabases("c1", []string{"db1", "db2"})
	ac, ok := s.Connection("c1")
	if !ok || len(ac.Databases) != 2 {
		t.Fatalf("expected databases recorded, got %v ok=%v", ac, ok)
	}

	s.SelectConnection("c1")
	id, view := s.SelectedConnection()
	if id != "c1" || view != ViewConnectionHome {
		t.Fatalf("expected c1/ViewConnectionHome, got %v/%v", id, view)
	}

	s.RememberSelection("c1", "db1", "coll1")
	s.SelectConnection("c1")
	_, view = s.SelectedConnection()
	if view != ViewCollection {
		t.Fatalf("expected ViewCollection after restoring cached selection, got %v", view)
	}

	s.RemoveConnection("c1")
	if _, ok := s.Connection("c1"); ok {
		t.Fatalf("expected c1 removed")
	}
	id, view = s.SelectedConnection()
	if id != "" || view != ViewNoConnection {
		t.Fatalf("expected selection cleared after removing active connection, got %v/%v", id, view)
	}
}

func TestUpdateConnectionURIChangeForcesDisconnectEvent(t *testing.T) {
	s := NewStore()
	s.AddConnection(SavedConnection{ID: "c1", URI: "mongodb://a"})
	s.SetDatabases("c1", []string{"db1"})

	var events []AppEvent
	s.Subscribe(func(ev AppEvent) { events = append(events, ev) })

	s.UpdateConnection(SavedConnection{ID: "c1", URI: "mongodb://b"})

	var sawDisconnected bool
	for _, ev := range events {
		if _, ok := ev.(Disconnected); ok {
			sawDisconnected = true
		}
	}
	if !sawDisconnected {
		t.Fatalf("expected Disconnected event on URI change while active, got %v", events)
	}
	ac, _ := s.Connection("c1")
	if len(ac.Databases) != 0 {
		t.Fatalf("expected databases reset after URI change, got %v", ac.Databases)
	}
}

func TestOpenTabPreviewPromotionAndClose(t *testing.T) {
	s := NewStore()
	key1 := SessionKey{ConnID: "c1", Database: "d", Collection: "a"}
	key2 := SessionKey{ConnID: "c1", Database: "d", Collection: "b"}

	s.OpenTab(TabCollection(key1), false)
	tabs, active := s.Tabs()
	if len(tabs) != 1 || active != 0 {
		t.Fatalf("expected one preview tab, got %v active=%d", tabs, active)
	}
	if !s.IsPreviewTab(TabCollection(key1)) {
		t.Fatalf("expected key1 tab to be the preview tab")
	}

	// opening a second unpinned tab replaces the preview slot
	s.OpenTab(TabCollection(key2), false)
	tabs, _ = s.Tabs()
	if len(tabs) != 1 {
		t.Fatalf("expected preview replacement to keep a single tab, got %v", tabs)
	}
	if !s.IsPreviewTab(TabCollection(key2)) {
		t.Fatalf("expected key2 to now be the preview tab")
	}

	s.PromotePreviewCollectionTab(key2)
	if s.IsPreviewTab(TabCollection(key2)) {
		t.Fatalf("expected key2 to no longer be a preview tab after promotion")
	}

	// a pinned open no longer gets replaced by further previews
	s.OpenTab(TabCollection(key1), false)
	tabs, _ = s.Tabs()
	if len(tabs) != 2 {
		t.Fatalf("expected pinned tab preserved alongside new preview, got %v", tabs)
	}

	s.CloseTab(0)
	tabs, _ = s.Tabs()
	if len(tabs) != 1 {
		t.Fatalf("expected one tab after close, got %v", tabs)
	}
}

func TestRemoveConnectionClearsScopedTabsAndSessions(t *testing.T) {
	s := NewStore()
	s.AddConnection(SavedConnection{ID: "c1", URI: "mongodb://a"})
	key := SessionKey{ConnID: "c1", Database: "d", Collection: "coll"}
	s.OpenTab(TabCollection(key), true)
	_ = s.Session(key)

	s.RemoveConnection("c1")
	tabs, _ := s.Tabs()
	if len(tabs) != 0 {
		t.Fatalf("expected tabs scoped to removed connection to be gone, got %v", tabs)
	}
}

func TestSetNodeExpandedAndExpandedNodes(t *testing.T) {
	s := NewStore()
	s.SetNodeExpanded("conn:c1", true)
	s.SetNodeExpanded("db:c1:d1", true)
	nodes := s.ExpandedNodes()
	if !nodes["conn:c1"] || !nodes["db:c1:d1"] {
		t.Fatalf("expected both nodes expanded, got %v", nodes)
	}
	s.SetNodeExpanded("conn:c1", false)
	nodes = s.ExpandedNodes()
	if nodes["conn:c1"] {
		t.Fatalf("expected conn:c1 collapsed")
	}
}

func TestBumpWorkspaceGenerationIncrements(t *testing.T) {
	s := NewStore()
	g0 := s.WorkspaceGeneration()
	s.BumpWorkspaceGeneration()
	g1 := s.WorkspaceGeneration()
	if g1 <= g0 {
		t.Fatalf("expected generation to increase, got %d -> %d", g0, g1)
	}
}
