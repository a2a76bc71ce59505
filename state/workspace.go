package state

// WorkspaceSnapshot is the smallest record needed to restore the workspace
// across a restart: not full session data, only what identifies and
// configures each open tab.
type WorkspaceSnapshot struct {
	LastConnectionID  string            `json:"last_connection_id,omitempty"`
	SelectedDatabase  string            `json:"selected_database,omitempty"`
	SelectedCollection string           `json:"selected_collection,omitempty"`
	OpenTabs          []WorkspaceTab    `json:"open_tabs"`
	ActiveTab         int               `json:"active_tab,omitempty"`
	ExpandedNodes     []string          `json:"expanded_nodes"`
	WindowState       *WindowState      `json:"window_state,omitempty"`
}

// WindowState is the persisted window geometry, opaque to this package
// beyond round-tripping it.
type WindowState struct {
	X      int  `json:"x"`
	Y      int  `json:"y"`
	Width  int  `json:"width"`
	Height int  `json:"height"`
	Maximized bool `json:"maximized"`
}

// WorkspaceTab is one persisted tab entry. Kind selects which of the
// type-specific fields apply; Collection/Transfer/Shell tabs are
// distinguished by which optional fields are set.
type WorkspaceTab struct {
	ConnID     string `json:"conn_id"`
	Database   string `json:"database,omitempty"`
	Collection string `json:"collection,omitempty"`
	Kind       string `json:"kind"`
	Transfer   string `json:"transfer,omitempty"`
	Shell      string `json:"shell,omitempty"`

	FilterRaw           string `json:"filter_raw,omitempty"`
	SortRaw             string `json:"sort_raw,omitempty"`
	ProjectionRaw       string `json:"projection_raw,omitempty"`
	AggregationPipeline string `json:"aggregation_pipeline,omitempty"`
	StatsOpen           bool   `json:"stats_open,omitempty"`
	SubView             string `json:"subview,omitempty"`
}

const (
	tabKindCollection = "collection"
	tabKindDatabase   = "database"
	tabKindTransfer   = "transfer"
	tabKindShell      = "shell"
)

// Snapshot builds a WorkspaceSnapshot from the store's current state. It
// does not include per-session loaded documents, indexes or stats — only
// enough to reconstruct the tab set and selection on restore.
func (s *Store) Snapshot() WorkspaceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := WorkspaceSnapshot{
		LastConnectionID: string(s.selectedConn),
		ActiveTab:        s.activeTab,
	}
	if dc, ok := s.lastDBCol[s.selectedConn]; ok {
		snap.SelectedDatabase = dc.database
		snap.SelectedCollection = dc.collection
	}
	for node := range s.expandedTreeNodes {
		snap.ExpandedNodes = append(snap.ExpandedNodes, node)
	}
	for _, t := range s.tabs {
		snap.OpenTabs = append(snap.OpenTabs, s.tabToWorkspaceLocked(t))
	}
	return snap
}

func (s *Store) tabToWorkspaceLocked(t TabKey) WorkspaceTab {
	switch t.Kind() {
	case TabCollectionKind:
		key, _ := t.Session()
		wt := WorkspaceTab{
			ConnID:     string(key.ConnID),
			Database:   key.Database,
			Collection: key.Collection,
			Kind:       tabKindCollection,
		}
		if sess, ok := s.sessions[key]; ok {
			wt.FilterRaw = sess.Data.FilterRaw
			wt.SortRaw = sess.Data.SortRaw
			wt.ProjectionRaw = sess.Data.ProjectionRaw
			wt.StatsOpen = sess.View.StatsOpen
			wt.SubView = sess.View.SubView.String()
		}
		return wt
	case TabDatabaseKind:
		key, _ := t.Database()
		return WorkspaceTab{ConnID: string(key.ConnID), Database: key.Database, Kind: tabKindDatabase}
	case TabTransferKind:
		id, _ := t.TransferID()
		return WorkspaceTab{Kind: tabKindTransfer, Transfer: id}
	case TabShellKind:
		id, _ := t.ShellID()
		return WorkspaceTab{Kind: tabKindShell, Shell: id}
	}
	return WorkspaceTab{}
}

// subViewFromString normalizes a persisted subview name. Stats wins when
// stats_open was also set, matching the restore rule that a reopened
// stats panel takes priority over whatever subview was last active.
func subViewFromString(name string, statsOpen bool) SubView {
	if statsOpen {
		return SubViewStats
	}
	switch name {
	case "Indexes":
		return SubViewIndexes
	case "Stats":
		return SubViewStats
	case "Aggregation":
		return SubViewAggregation
	default:
		return SubViewDocuments
	}
}

// RestoreWorkspace reinstates tabs from snap, skipping any whose database
// is not present in knownDatabases for its connection (the connection may
// not have reconnected, or the database may no longer exist). Filter/sort/
// projection raw text is preserved even when parsing it fails; only the
// parsed effective document is left empty in that case — callers
// typically attempt the parse themselves (via the command layer) after
// this call and feed the effective doc back in.
func (s *Store) RestoreWorkspace(snap WorkspaceSnapshot, knownDatabases func(connID ConnID) ([]string, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, node := range snap.ExpandedNodes {
		s.expandedTreeNodes[node] = true
	}

	var tabs []TabKey
	for _, wt := range snap.OpenTabs {
		switch wt.Kind {
		case tabKindCollection:
			connID := ConnID(wt.ConnID)
			dbs, ok := knownDatabases(connID)
			if !ok || !containsString(dbs, wt.Database) {
				continue
			}
			key := SessionKey{ConnID: connID, Database: wt.Database, Collection: wt.Collection}
			sess, exists := s.sessions[key]
			if !exists {
				sess = newCollectionSession()
				s.sessions[key] = sess
			}
			sess.Data.FilterRaw = wt.FilterRaw
			sess.Data.SortRaw = wt.SortRaw
			sess.Data.ProjectionRaw = wt.ProjectionRaw
			sess.View.StatsOpen = wt.StatsOpen
			sess.View.SubView = subViewFromString(wt.SubView, wt.StatsOpen)
			tabs = append(tabs, TabCollection(key))
		case tabKindDatabase:
			connID := ConnID(wt.ConnID)
			dbs, ok := knownDatabases(connID)
			if !ok || !containsString(dbs, wt.Database) {
				continue
			}
			key := DatabaseKey{ConnID: connID, Database: wt.Database}
			if _, exists := s.overviews[key]; !exists {
				s.overviews[key] = newDatabaseOverview()
			}
			tabs = append(tabs, TabDatabase(key))
		case tabKindTransfer:
			tabs = append(tabs, TabTransfer(wt.Transfer))
		case tabKindShell:
			tabs = append(tabs, TabShell(wt.Shell))
		}
	}
	s.tabs = tabs
	if snap.ActiveTab >= 0 && snap.ActiveTab < len(tabs) {
		s.activeTab = snap.ActiveTab
	} else if len(tabs) > 0 {
		s.activeTab = 0
	} else {
		s.activeTab = -1
	}
	if snap.LastConnectionID != "" {
		s.lastDBCol[ConnID(snap.LastConnectionID)] = dbCol{
			database:   snap.SelectedDatabase,
			collection: snap.SelectedCollection,
		}
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
