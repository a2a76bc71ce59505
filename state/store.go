package state

import (
	"sort"
	"sync"
	"time"
)

// currentViewKind mirrors what the UI should display for the selected
// connection, computed by SelectConnection rather than stored redundantly.
type currentViewKind int

const (
	ViewNoConnection currentViewKind = iota
	ViewConnecting
	ViewConnectionHome
	ViewDatabaseHome
	ViewCollection
)

// dbCol remembers the previous (database, collection) selection for a
// connection so switching away and back restores it.
type dbCol struct {
	database   string
	collection string
}

// Store is the single-owner reactive application-state aggregate. All
// methods assume single-goroutine-at-a-time access, matching the command
// layer's "never mutate state from a background thread" contract: every
// background result is reapplied by a command's reconcile step, never
// concurrently with another mutator.
type Store struct {
	mu sync.Mutex

	order       []ConnID
	connections map[ConnID]*ActiveConnection
	lastDBCol   map[ConnID]dbCol

	sessions  map[SessionKey]*CollectionSession
	overviews map[DatabaseKey]*DatabaseOverview

	tabs       []TabKey
	activeTab  int
	previewTab *TabKey

	expandedTreeNodes map[string]bool

	selectedConn ConnID
	view         currentViewKind

	status StatusMessage

	workspaceGeneration uint64
	saveTimer           *time.Timer
	saveFn              func(gen uint64)

	observers *observerList
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		connections:       make(map[ConnID]*ActiveConnection),
		lastDBCol:         make(map[ConnID]dbCol),
		sessions:          make(map[SessionKey]*CollectionSession),
		overviews:         make(map[DatabaseKey]*DatabaseOverview),
		expandedTreeNodes: make(map[string]bool),
		observers:         newObserverList(),
		status:            StatusMessage{Level: StatusInfo, Text: "ready"},
	}
}

// Subscribe registers fn to receive every event emitted by the store.
// Returns an unsubscribe function.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observers.subscribe(fn)
}

func (s *Store) emit(ev AppEvent) {
	s.status = DeriveStatus(s.status, ev)
	s.observers.notify(ev)
}

// Status returns the current status line.
func (s *Store) Status() StatusMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// --- connection lifecycle ---------------------------------------------

// AddConnection registers a new saved connection, inactive until Connect.
func (s *Store) AddConnection(saved SavedConnection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.connections[saved.ID]; !exists {
		s.order = append(s.order, saved.ID)
	}
	s.connections[saved.ID] = &ActiveConnection{
		Saved:           saved,
		CollectionsByDB: make(map[string][]string),
	}
	s.bumpWorkspaceGenerationLocked()
	s.emit(ConnectionAdded{ConnID: saved.ID})
}

// UpdateConnection updates a saved connection's fields. If the URI changed
// and the connection was active, the caller (command layer) must force a
// disconnect; UpdateConnection itself resets the cached runtime state and
// emits Disconnected so the store never reflects a client that is being
// torn down out from under it.
func (s *Store) UpdateConnection(saved SavedConnection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.connections[saved.ID]
	if !ok {
		s.connections[saved.ID] = &ActiveConnection{Saved: saved, CollectionsByDB: make(map[string][]string)}
		s.bumpWorkspaceGenerationLocked()
		s.emit(ConnectionUpdated{ConnID: saved.ID})
		return
	}
	uriChanged := existing.Saved.URI != saved.URI
	wasActive := len(existing.Databases) > 0
	existing.Saved = saved
	if uriChanged && wasActive {
		existing.Databases = nil
		existing.CollectionsByDB = make(map[string][]string)
		s.emit(Disconnected{ConnID: saved.ID})
	}
	s.bumpWorkspaceGenerationLocked()
	s.emit(ConnectionUpdated{ConnID: saved.ID})
}

// RemoveConnection deletes a connection and everything scoped to it: tabs,
// sessions, overviews, expansion nodes. If it was selected, selection is
// cleared.
func (s *Store) RemoveConnection(id ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.connections[id]; !ok {
		return
	}
	delete(s.connections, id)
	delete(s.lastDBCol, id)
	for i, cid := range s.order {
		if cid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	remainingTabs := s.tabs[:0]
	for _, t := range s.tabs {
		if sess, ok := t.Session(); ok && sess.ConnID == id {
			delete(s.sessions, sess)
			continue
		}
		if db, ok := t.Database(); ok && db.ConnID == id {
			delete(s.overviews, db)
			continue
		}
		remainingTabs = append(remainingTabs, t)
	}
	s.tabs = remainingTabs
	if s.activeTab >= len(s.tabs) {
		s.activeTab = len(s.tabs) - 1
	}
	if s.previewTab != nil {
		if sess, ok := s.previewTab.Session(); ok && sess.ConnID == id {
			s.previewTab = nil
		}
	}
	for key := range s.sessions {
		if key.ConnID == id {
			delete(s.sessions, key)
		}
	}
	for key := range s.overviews {
		if key.ConnID == id {
			delete(s.overviews, key)
		}
	}
	for node := range s.expandedTreeNodes {
		// canonical node ids are prefixed "conn:{cid}" / "db:{cid}:..." /
		// "col:{cid}:..."; a simple prefix scan keeps this package free of
		// a dependency on the tree package's id grammar.
		if hasConnPrefix(node, string(id)) {
			delete(s.expandedTreeNodes, node)
		}
	}
	if s.selectedConn == id {
		s.selectedConn = ""
		s.view = ViewNoConnection
	}
	s.bumpWorkspaceGenerationLocked()
	s.emit(ConnectionRemoved{ConnID: id})
}

func hasConnPrefix(nodeID, connID string) bool {
	for _, sep := range []string{":" + connID + ":", ":" + connID} {
		if idx := indexOf(nodeID, sep); idx >= 0 {
			return true
		}
	}
	return false
}

func indexOf(s, sub string) int {
	n, m := len(s), len(sub)
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return i
		}
	}
	return -1
}

// SelectConnection makes id the active connection, restoring its
// previously selected database/collection if one was cached, and
// recomputes the current view kind.
func (s *Store) SelectConnection(id ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedConn = id
	ac, ok := s.connections[id]
	if !ok || id == "" {
		s.view = ViewNoConnection
		return
	}
	if len(ac.Databases) == 0 {
		s.view = ViewConnectionHome
		return
	}
	if dc, ok := s.lastDBCol[id]; ok && dc.database != "" {
		if dc.collection != "" {
			s.view = ViewCollection
		} else {
			s.view = ViewDatabaseHome
		}
		return
	}
	s.view = ViewConnectionHome
}

// RememberSelection caches the (database, collection) pair for the given
// connection so a later SelectConnection restores it.
func (s *Store) RememberSelection(id ConnID, database, collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDBCol[id] = dbCol{database: database, collection: collection}
}

// SelectedConnection returns the currently selected connection id and view.
func (s *Store) SelectedConnection() (ConnID, currentViewKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedConn, s.view
}

// Connection returns the active connection record for id, if any.
func (s *Store) Connection(id ConnID) (*ActiveConnection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ac, ok := s.connections[id]
	return ac, ok
}

// Connections returns saved connections in insertion order.
func (s *Store) Connections() []SavedConnection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SavedConnection, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.connections[id].Saved)
	}
	return out
}

// SetDatabases records the database list learned after a successful
// connect or refresh and emits DatabasesLoaded.
func (s *Store) SetDatabases(id ConnID, databases []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ac, ok := s.connections[id]
	if !ok {
		return
	}
	ac.Databases = databases
	s.emit(DatabasesLoaded{ConnID: id, Databases: databases})
}

// SetCollections records a database's collection list.
func (s *Store) SetCollections(key DatabaseKey, collections []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ac, ok := s.connections[key.ConnID]
	if !ok {
		return
	}
	ac.CollectionsByDB[key.Database] = collections
	s.emit(CollectionsLoaded{Database: key})
}

// --- tabs ---------------------------------------------------------------

// OpenTab opens key as the active tab. If pinned is false it occupies the
// preview slot, replacing any existing preview tab; the previous preview's
// session/overview data is left in place (closing a tab never deletes its
// session immediately, matching the no-immediate-cleanup rule).
func (s *Store) OpenTab(key TabKey, pinned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tabs {
		if t.Equal(key) {
			s.activeTab = i
			if !pinned {
				s.previewTab = nil
			}
			return
		}
	}
	if !pinned {
		if s.previewTab != nil {
			for i, t := range s.tabs {
				if t.Equal(*s.previewTab) {
					s.tabs[i] = key
					s.activeTab = i
					k := key
					s.previewTab = &k
					s.bumpWorkspaceGenerationLocked()
					return
				}
			}
		}
		s.tabs = append(s.tabs, key)
		s.activeTab = len(s.tabs) - 1
		k := key
		s.previewTab = &k
		s.bumpWorkspaceGenerationLocked()
		return
	}
	s.tabs = append(s.tabs, key)
	s.activeTab = len(s.tabs) - 1
	s.bumpWorkspaceGenerationLocked()
}

// PromotePreviewCollectionTab pins the current preview tab, if it is a
// collection tab matching key, so subsequent edits/filters do not replace
// it on the next OpenTab(_, false) call.
func (s *Store) PromotePreviewCollectionTab(key SessionKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.previewTab == nil {
		return
	}
	if sess, ok := s.previewTab.Session(); ok && sess == key {
		s.previewTab = nil
		s.bumpWorkspaceGenerationLocked()
	}
}

// CloseTab closes the tab at index i. The underlying session/overview data
// is retained; only the tab entry is removed.
func (s *Store) CloseTab(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.tabs) {
		return
	}
	closed := s.tabs[i]
	s.tabs = append(s.tabs[:i:i], s.tabs[i+1:]...)
	if s.previewTab != nil && s.previewTab.Equal(closed) {
		s.previewTab = nil
	}
	if s.activeTab >= len(s.tabs) {
		s.activeTab = len(s.tabs) - 1
	} else if s.activeTab > i {
		s.activeTab--
	}
	s.bumpWorkspaceGenerationLocked()
}

// SelectTab makes the tab at index i active.
func (s *Store) SelectTab(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.tabs) {
		return
	}
	s.activeTab = i
}

// Tabs returns the open tabs and the active tab index (-1 if none).
func (s *Store) Tabs() ([]TabKey, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tabs) == 0 {
		return nil, -1
	}
	out := make([]TabKey, len(s.tabs))
	copy(out, s.tabs)
	return out, s.activeTab
}

// IsPreviewTab reports whether key is currently the unpinned preview tab.
func (s *Store) IsPreviewTab(key TabKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previewTab != nil && s.previewTab.Equal(key)
}

// --- session / overview accessors ---------------------------------------

// Session returns the collection session for key, creating it if absent.
func (s *Store) Session(key SessionKey) *CollectionSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		sess = newCollectionSession()
		s.sessions[key] = sess
	}
	return sess
}

// Overview returns the database overview for key, creating it if absent.
func (s *Store) Overview(key DatabaseKey) *DatabaseOverview {
	s.mu.Lock()
	defer s.mu.Unlock()
	ov, ok := s.overviews[key]
	if !ok {
		ov = newDatabaseOverview()
		s.overviews[key] = ov
	}
	return ov
}

// ExpandedNodes reports the global tree node expansion set (shared across
// sessions so the connection/database tree keeps its shape across tab
// switches). A copy is returned; callers mutate via SetNodeExpanded.
func (s *Store) ExpandedNodes() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.expandedTreeNodes))
	for k, v := range s.expandedTreeNodes {
		out[k] = v
	}
	return out
}

// SetNodeExpanded records a tree node's expansion state.
func (s *Store) SetNodeExpanded(nodeID string, expanded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if expanded {
		s.expandedTreeNodes[nodeID] = true
	} else {
		delete(s.expandedTreeNodes, nodeID)
	}
	s.bumpWorkspaceGenerationLocked()
}

// --- workspace generation -------------------------------------------------

// BumpWorkspaceGeneration marks the workspace dirty and schedules a
// debounced save via whatever save function was installed with
// SetSaveFunc. Exported for callers outside this package's own mutators
// (e.g. window-bounds changes reported by the UI shell).
func (s *Store) BumpWorkspaceGeneration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bumpWorkspaceGenerationLocked()
}

func (s *Store) bumpWorkspaceGenerationLocked() {
	s.workspaceGeneration++
	gen := s.workspaceGeneration
	if s.saveFn == nil {
		return
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(400*time.Millisecond, func() {
		s.saveFn(gen)
	})
}

// SetSaveFunc installs the function BumpWorkspaceGeneration debounces to.
// fn is called with the generation stamped at schedule time; it must
// compare that against the store's current generation (via
// WorkspaceGeneration) before writing, discarding stale saves.
func (s *Store) SetSaveFunc(fn func(generation uint64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveFn = fn
}

// WorkspaceGeneration returns the current generation counter.
func (s *Store) WorkspaceGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workspaceGeneration
}

// Emit lets command-layer reconcile steps publish an event through the
// store's single dispatch point (so status derivation stays centralized).
func (s *Store) Emit(ev AppEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit(ev)
}

// SortedConnectionIDs returns the known connection ids in sorted order,
// useful for deterministic iteration in tests and workspace export.
func (s *Store) SortedConnectionIDs() []ConnID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ConnID, 0, len(s.connections))
	for id := range s.connections {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
