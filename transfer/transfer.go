// Package transfer implements the export/import/copy engine: streaming a
// collection's documents into a serialized file format or into another
// collection, with batching, cancellation, and per-collection progress
// tracking for database-scoped operations.
package transfer

import (
	"sync/atomic"
)

// Mode distinguishes the three transfer operations a TransferTab can run.
type Mode int

const (
	ModeExport Mode = iota
	ModeImport
	ModeCopy
)

// Scope is whether a transfer targets one collection or every collection in
// a database.
type Scope int

const (
	ScopeCollection Scope = iota
	ScopeDatabase
)

// Format is the on-disk serialization a transfer reads or writes.
type Format int

const (
	FormatJSONLines Format = iota
	FormatJSONArray
	FormatCSV
	FormatDump
)

// InsertMode controls how Import reconciles incoming documents with
// existing ones.
type InsertMode int

const (
	// InsertModeInsert fails the batch member on a duplicate key.
	InsertModeInsert InsertMode = iota
	// InsertModeUpsert upserts keyed by _id.
	InsertModeUpsert
	// InsertModeReplace replaces the document keyed by _id, failing if
	// it does not already exist.
	InsertModeReplace
)

// Options bundles every knob a transfer run accepts. The workspace persists
// only a Transfer tab's id, not these options.
type Options struct {
	Format        Format
	Compression   bool
	BatchSize     int64
	InsertMode    InsertMode
	ExtendedJSON  bool
	Filter        interface{}
	Projection    interface{}
	Sort          interface{}
	ExcludedNames map[string]struct{}
	CopyIndexes   bool
	StopOnError   bool
}

// DefaultBatchSize is used whenever Options.BatchSize is left at zero.
const DefaultBatchSize = 500

func (o Options) batchSize() int64 {
	if o.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return o.BatchSize
}

// CancelToken is a shared, cheaply-copyable cancellation flag checked
// between batches and on every cursor yield. It is intentionally not
// context.Context: transfers are long-running background jobs owned by a
// tab, not a single request, and the spec models cancellation as an
// explicit atomic flag a UI action flips.
type CancelToken struct {
	flag atomic.Bool
}

// NewCancelToken returns an un-cancelled token.
func NewCancelToken() *CancelToken { return &CancelToken{} }

// Cancel flips the token. Safe to call more than once or concurrently.
func (c *CancelToken) Cancel() { c.flag.Store(true) }

// Cancelled reports whether Cancel has been called.
func (c *CancelToken) Cancelled() bool { return c.flag.Load() }

// CollectionState is the per-collection state machine a DatabaseTransferProgress
// entry walks through during a database-scoped copy or export.
type CollectionState int

const (
	CollectionPending CollectionState = iota
	CollectionInProgress
	CollectionCompleted
	CollectionFailed
	CollectionCancelled
)

// CollectionProgress tracks one collection's position within a
// database-scoped transfer.
type CollectionProgress struct {
	Name      string
	State     CollectionState
	Copied    int64
	Total     int64
	FailedMsg string
}

// DatabaseTransferProgress tracks every collection in a database-scoped
// copy or export, plus the aggregate counters the UI renders as a single
// progress bar with an expandable per-collection breakdown.
type DatabaseTransferProgress struct {
	Collections []CollectionProgress
	Expanded    bool
}

// TotalCopied sums Copied across every tracked collection.
func (p *DatabaseTransferProgress) TotalCopied() int64 {
	var total int64
	for _, c := range p.Collections {
		total += c.Copied
	}
	return total
}

// byName returns a pointer into p.Collections for in-place updates.
func (p *DatabaseTransferProgress) byName(name string) *CollectionProgress {
	for i := range p.Collections {
		if p.Collections[i].Name == name {
			return &p.Collections[i]
		}
	}
	p.Collections = append(p.Collections, CollectionProgress{Name: name, State: CollectionPending})
	return &p.Collections[len(p.Collections)-1]
}

// TransferTab is the transfer-engine side of a workspace Transfer tab; the
// state package only ever stores its string id, looked up here.
type TransferTab struct {
	ID                 string
	SourceConnID       string
	Mode               Mode
	Scope              Scope
	Format             Format
	SourceDatabase     string
	SourceCollection   string
	DestConnID         string
	DestDatabase       string
	DestCollection     string
	FilePath           string
	Options            Options
	Progress           DatabaseTransferProgress
	Cancel             *CancelToken
	Processed          int64
	Total              int64
	Done               bool
	Err                string
}

// NewTransferTab returns a tab with a fresh cancellation token and zeroed
// progress, ready to be configured by the caller.
func NewTransferTab(id string) *TransferTab {
	return &TransferTab{ID: id, Cancel: NewCancelToken()}
}
