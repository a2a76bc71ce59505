// Package state is the reactive application-state store: saved and active
// connections, open tabs and the preview tab, per-collection sessions
// (pagination/filter/sort/projection/drafts/dirty/selection), per-database
// overviews, and workspace persistence. It is a single-owner aggregate: every
// mutator takes the store's lock, changes state, and notifies subscribers —
// there is no background mutation path, matching the "single UI thread"
// contract described for the store this package implements.
package state

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/mongoforge/aggregation"
	"github.com/dwoolworth/mongoforge/connection"
	"github.com/dwoolworth/mongoforge/schema"
)

// ConnID identifies a saved/active connection; shared with the connection
// manager's own key type so a SavedConnection can be handed straight to it.
type ConnID = connection.ConnID

// DocKey is a document's stable identity within a session: relaxed-JSON of
// its _id, or its page position when _id is absent.
type DocKey string

// SessionKey names a collection session.
type SessionKey struct {
	ConnID     ConnID
	Database   string
	Collection string
}

// DatabaseKey names a database overview session.
type DatabaseKey struct {
	ConnID   ConnID
	Database string
}

// SavedConnection is a stored connection profile.
type SavedConnection struct {
	ID            ConnID
	Name          string
	URI           string
	ReadOnly      bool
	LastConnected *time.Time
}

// ActiveConnection is a SavedConnection plus what connecting learned: the
// live client (owned by the connection.Manager, referenced here only by
// ConnID), known databases, and their collections.
type ActiveConnection struct {
	Saved             SavedConnection
	Databases         []string
	CollectionsByDB   map[string][]string
	Meta              connection.RuntimeMeta
}

// SessionDocument is one row of a collection session's loaded page.
type SessionDocument struct {
	Key DocKey
	Doc bson.D
}

// SubView selects which pane a collection session is displaying.
type SubView int

const (
	SubViewDocuments SubView = iota
	SubViewIndexes
	SubViewStats
	SubViewAggregation
)

func (s SubView) String() string {
	switch s {
	case SubViewDocuments:
		return "Documents"
	case SubViewIndexes:
		return "Indexes"
	case SubViewStats:
		return "Stats"
	case SubViewAggregation:
		return "Aggregation"
	default:
		return "Documents"
	}
}

// CollectionSessionData is the loaded-content half of a collection session.
type CollectionSessionData struct {
	Items      []SessionDocument
	IndexByKey map[DocKey]int
	Total      int64
	Page       int
	PerPage    int
	RequestID  uint64
	IsLoading  bool

	FilterRaw     string
	Filter        bson.D
	SortRaw       string
	Sort          bson.D
	ProjectionRaw string
	Projection    bson.D

	Indexes        []bson.M
	IndexesLoading bool
	IndexesError   string

	Stats        bson.M
	StatsLoading bool
	StatsError   string

	Aggregation *aggregation.AggregationState
	Schema      *schema.Analysis
}

// CollectionSessionView is the UI-facing half of a collection session.
type CollectionSessionView struct {
	SubView         SubView
	SelectedDoc     DocKey
	SelectedNodeID  string // canonical tree.NodeID string form
	SelectedDocs    map[DocKey]bool
	ExpandedNodes   map[string]bool
	Drafts          map[DocKey]bson.D
	Dirty           map[DocKey]bool
	QueryOptionsOpen bool
	StatsOpen       bool
}

// CollectionSession is one collection's data+view pair, plus a generation
// counter the tree model uses to invalidate its own caches.
type CollectionSession struct {
	Data       CollectionSessionData
	View       CollectionSessionView
	Generation uint64
}

func newCollectionSession() *CollectionSession {
	return &CollectionSession{
		Data: CollectionSessionData{
			IndexByKey: make(map[DocKey]int),
			PerPage:    50,
		},
		View: CollectionSessionView{
			SelectedDocs:  make(map[DocKey]bool),
			ExpandedNodes: make(map[string]bool),
			Drafts:        make(map[DocKey]bson.D),
			Dirty:         make(map[DocKey]bool),
		},
	}
}

// CollectionOverview is one row of a database overview's collection list.
type CollectionOverview struct {
	Name     string
	DocCount int64
}

// DatabaseOverview is the per-database stats+collections session.
type DatabaseOverview struct {
	Stats               bson.M
	StatsLoading        bool
	StatsError          string
	Collections         []CollectionOverview
	CollectionsLoading  bool
	CollectionsError    string
}

func newDatabaseOverview() *DatabaseOverview {
	return &DatabaseOverview{}
}
