package command

import (
	"context"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/mongoforge/apperr"
	"github.com/dwoolworth/mongoforge/bsonutil"
	"github.com/dwoolworth/mongoforge/connection"
	"github.com/dwoolworth/mongoforge/schema"
	"github.com/dwoolworth/mongoforge/state"
)

// Deps bundles the collaborators every command needs: the connection
// manager that actually talks to MongoDB, and the state store every
// command's reconcile step writes into. Every exported function in this
// package takes Deps explicitly rather than closing over package globals,
// so a workbench can run multiple independent stores/managers in tests.
type Deps struct {
	Manager *connection.Manager
	Store   *state.Store
}

// ensureWritable enforces read-only connections: mutating commands call
// this first and bail out with its error. It returns ErrNoConnection when
// the store has no record of connID and ErrReadOnly when the saved profile
// is marked read-only; it emits no event and leaves the status line as is.
func ensureWritable(d Deps, connID state.ConnID) error {
	ac, ok := d.Store.Connection(connID)
	if !ok {
		return apperr.ErrNoConnection
	}
	if ac.Saved.ReadOnly {
		return apperr.ErrReadOnly
	}
	return nil
}

// Connect attempts to establish a client for profile and, on success,
// records the learned database list.
func Connect(ctx context.Context, d Deps, profile state.SavedConnection) error {
	op := &OpInfo{Operation: OpConnect, ConnID: string(profile.ID)}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		d.Store.Emit(state.Connecting{ConnID: profile.ID})

		meta, err := d.Manager.Connect(ctx, connection.Profile{
			ID:       profile.ID,
			URI:      profile.URI,
			ReadOnly: profile.ReadOnly,
		})
		if err != nil {
			d.Store.Emit(state.ConnectionFailed{ConnID: profile.ID, Err: err})
			return err
		}
		_ = meta

		d.Store.Emit(state.Connected{ConnID: profile.ID})
		return RefreshDatabases(ctx, d, profile.ID)
	})
}

// Disconnect tears down the client for id and resets the store's view of
// it back to "known but inactive".
func Disconnect(ctx context.Context, d Deps, id state.ConnID) error {
	op := &OpInfo{Operation: OpDisconnect, ConnID: string(id)}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		if err := d.Manager.Disconnect(ctx, id); err != nil {
			return err
		}
		d.Store.Emit(state.Disconnected{ConnID: id})
		return nil
	})
}

// RefreshDatabases reloads the database list for an already-connected id.
func RefreshDatabases(ctx context.Context, d Deps, id state.ConnID) error {
	dbs, err := d.Manager.ListDatabases(ctx, id)
	if err != nil {
		d.Store.Emit(state.DatabasesFailed{ConnID: id, Err: err})
		return err
	}
	d.Store.SetDatabases(id, dbs)
	return nil
}

// LoadCollections reloads the collection list for a database.
func LoadCollections(ctx context.Context, d Deps, key state.DatabaseKey) error {
	op := &OpInfo{Operation: OpDatabase, ConnID: string(key.ConnID), Database: key.Database}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		cols, err := d.Manager.ListCollections(ctx, key.ConnID, key.Database)
		if err != nil {
			d.Store.Emit(state.CollectionsFailed{Database: key, Err: err})
			return err
		}
		d.Store.SetCollections(key, cols)
		return nil
	})
}

// CreateCollection creates an empty collection in a database.
func CreateCollection(ctx context.Context, d Deps, key state.DatabaseKey, name string) error {
	if err := ensureWritable(d, key.ConnID); err != nil {
		return err
	}
	op := &OpInfo{Operation: OpCollection, ConnID: string(key.ConnID), Database: key.Database, Collection: name}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		if err := d.Manager.CreateCollection(ctx, key.ConnID, key.Database, name); err != nil {
			return err
		}
		return LoadCollections(ctx, d, key)
	})
}

// DropCollection drops a collection.
func DropCollection(ctx context.Context, d Deps, key state.DatabaseKey, name string) error {
	if err := ensureWritable(d, key.ConnID); err != nil {
		return err
	}
	op := &OpInfo{Operation: OpCollection, ConnID: string(key.ConnID), Database: key.Database, Collection: name}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		if err := d.Manager.DropCollection(ctx, key.ConnID, key.Database, name); err != nil {
			return err
		}
		return LoadCollections(ctx, d, key)
	})
}

// RenameCollection renames a collection within the same database.
func RenameCollection(ctx context.Context, d Deps, key state.DatabaseKey, oldName, newName string) error {
	if err := ensureWritable(d, key.ConnID); err != nil {
		return err
	}
	op := &OpInfo{Operation: OpCollection, ConnID: string(key.ConnID), Database: key.Database, Collection: oldName}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		if err := d.Manager.RenameCollection(ctx, key.ConnID, key.Database, oldName, newName); err != nil {
			return err
		}
		return LoadCollections(ctx, d, key)
	})
}

// CreateDatabase creates a database (via a throwaway collection, since
// MongoDB has no native create-database primitive) and refreshes the
// connection's database list.
func CreateDatabase(ctx context.Context, d Deps, connID state.ConnID, name string) error {
	if err := ensureWritable(d, connID); err != nil {
		return err
	}
	op := &OpInfo{Operation: OpDatabase, ConnID: string(connID), Database: name}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		if err := d.Manager.CreateDatabase(ctx, connID, name); err != nil {
			return err
		}
		return RefreshDatabases(ctx, d, connID)
	})
}

// DropDatabase drops a database and refreshes the connection's database
// list.
func DropDatabase(ctx context.Context, d Deps, connID state.ConnID, name string) error {
	if err := ensureWritable(d, connID); err != nil {
		return err
	}
	op := &OpInfo{Operation: OpDatabase, ConnID: string(connID), Database: name}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		if err := d.Manager.DropDatabase(ctx, connID, name); err != nil {
			return err
		}
		return RefreshDatabases(ctx, d, connID)
	})
}

// LoadDocuments runs the five-step contract for a collection session's
// current page: snapshot filter/sort/projection/paging, bump the request
// id, submit the find, and reapply the result only if still current.
func LoadDocuments(ctx context.Context, d Deps, key state.SessionKey) error {
	sess := d.Store.Session(key)
	requestID := state.NextRequestID(sess)
	sess.Data.IsLoading = true

	filter := sess.Data.Filter
	sort := state.EffectiveSort(sess.Data.Sort)
	projection := sess.Data.Projection
	page := sess.Data.Page
	perPage := sess.Data.PerPage
	if perPage <= 0 {
		perPage = 50
	}

	op := &OpInfo{Operation: OpDocumentRead, ConnID: string(key.ConnID), Database: key.Database, Collection: key.Collection}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		docs, total, err := d.Manager.FindDocuments(ctx, key.ConnID, key.Database, key.Collection, connection.FindQuery{
			Filter:     filter,
			Sort:       sort,
			Projection: projection,
			Skip:       int64(page) * int64(perPage),
			Limit:      int64(perPage),
		})
		if err != nil {
			if requestID != sess.Data.RequestID {
				return nil
			}
			sess.Data.IsLoading = false
			d.Store.Emit(state.DocumentsLoadFailed{Session: key, Err: err})
			return err
		}

		items := make([]state.SessionDocument, len(docs))
		for i, doc := range docs {
			items[i] = state.SessionDocument{Key: sessionDocKey(doc, i), Doc: doc}
		}
		if !state.SetDocuments(sess, requestID, items, total) {
			return nil // stale; a newer load is already in flight or landed
		}
		d.Store.Emit(state.DocumentsLoaded{Session: key, Total: total})
		return nil
	})
}

func sessionDocKey(doc bson.D, fallbackIndex int) state.DocKey {
	for _, e := range doc {
		if e.Key == "_id" {
			if s, ok := bsonutil.DocKeyFromID(e.Value); ok {
				return state.DocKey(s)
			}
		}
	}
	return state.DocKey("#pos:" + strconv.Itoa(fallbackIndex))
}

// ApplyFilter promotes the tab to pinned, sets filter/raw text, resets
// paging and reloads.
func ApplyFilter(ctx context.Context, d Deps, key state.SessionKey, raw string, parsed bson.D) error {
	sess := d.Store.Session(key)
	sess.Data.FilterRaw = raw
	sess.Data.Filter = parsed
	sess.Data.Page = 0
	d.Store.PromotePreviewCollectionTab(key)
	return LoadDocuments(ctx, d, key)
}

// ApplySort promotes the tab to pinned, sets sort/raw text, resets paging
// and reloads.
func ApplySort(ctx context.Context, d Deps, key state.SessionKey, raw string, parsed bson.D) error {
	sess := d.Store.Session(key)
	sess.Data.SortRaw = raw
	sess.Data.Sort = parsed
	sess.Data.Page = 0
	d.Store.PromotePreviewCollectionTab(key)
	return LoadDocuments(ctx, d, key)
}

// ApplyProjection promotes the tab to pinned, sets projection/raw text,
// resets paging and reloads.
func ApplyProjection(ctx context.Context, d Deps, key state.SessionKey, raw string, parsed bson.D) error {
	sess := d.Store.Session(key)
	sess.Data.ProjectionRaw = raw
	sess.Data.Projection = parsed
	sess.Data.Page = 0
	d.Store.PromotePreviewCollectionTab(key)
	return LoadDocuments(ctx, d, key)
}

// SaveDocument writes a session's pending draft for key back to the
// server via a full ReplaceOne, then discards the draft on success.
func SaveDocument(ctx context.Context, d Deps, key state.SessionKey, docKey state.DocKey) error {
	if err := ensureWritable(d, key.ConnID); err != nil {
		return err
	}
	sess := d.Store.Session(key)
	draft, ok := sess.View.Drafts[docKey]
	if !ok {
		return nil
	}
	var docID interface{}
	for _, e := range draft {
		if e.Key == "_id" {
			docID = e.Value
		}
	}
	op := &OpInfo{Operation: OpDocumentWrite, ConnID: string(key.ConnID), Database: key.Database, Collection: key.Collection}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		if err := d.Manager.ReplaceOne(ctx, key.ConnID, key.Database, key.Collection, docID, draft); err != nil {
			d.Store.Emit(state.DocumentSaveFailed{Session: key, Key: docKey, Err: err})
			return err
		}
		state.DiscardDraft(sess, docKey)
		if idx, ok := sess.Data.IndexByKey[docKey]; ok {
			sess.Data.Items[idx].Doc = draft
		}
		d.Store.Emit(state.DocumentSaved{Session: key, Key: docKey})
		return nil
	})
}

// InsertDocument inserts a new document and reloads the current page.
func InsertDocument(ctx context.Context, d Deps, key state.SessionKey, doc bson.D) error {
	if err := ensureWritable(d, key.ConnID); err != nil {
		return err
	}
	op := &OpInfo{Operation: OpDocumentWrite, ConnID: string(key.ConnID), Database: key.Database, Collection: key.Collection}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		if _, err := d.Manager.InsertOne(ctx, key.ConnID, key.Database, key.Collection, doc); err != nil {
			d.Store.Emit(state.DocumentsUpdateFailed{Session: key, Err: err})
			return err
		}
		d.Store.Emit(state.DocumentsInserted{Session: key, Count: 1})
		return LoadDocuments(ctx, d, key)
	})
}

// DeleteDocument deletes a single document by _id and reloads.
func DeleteDocument(ctx context.Context, d Deps, key state.SessionKey, id interface{}) error {
	if err := ensureWritable(d, key.ConnID); err != nil {
		return err
	}
	filter := bson.D{{Key: "_id", Value: id}}
	op := &OpInfo{Operation: OpDocumentWrite, ConnID: string(key.ConnID), Database: key.Database, Collection: key.Collection}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		if _, err := d.Manager.DeleteOne(ctx, key.ConnID, key.Database, key.Collection, filter); err != nil {
			d.Store.Emit(state.DocumentDeleteFailed{Session: key, Err: err})
			return err
		}
		d.Store.Emit(state.DocumentDeleted{Session: key})
		return LoadDocuments(ctx, d, key)
	})
}

// BulkDelete deletes every document matching filter.
func BulkDelete(ctx context.Context, d Deps, key state.SessionKey, filter bson.D) error {
	if err := ensureWritable(d, key.ConnID); err != nil {
		return err
	}
	op := &OpInfo{Operation: OpDocumentWrite, ConnID: string(key.ConnID), Database: key.Database, Collection: key.Collection}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		if _, err := d.Manager.DeleteMany(ctx, key.ConnID, key.Database, key.Collection, filter); err != nil {
			d.Store.Emit(state.DocumentsUpdateFailed{Session: key, Err: err})
			return err
		}
		return LoadDocuments(ctx, d, key)
	})
}

// BulkUpdate applies update to every document matching filter.
func BulkUpdate(ctx context.Context, d Deps, key state.SessionKey, filter, update bson.D) error {
	if err := ensureWritable(d, key.ConnID); err != nil {
		return err
	}
	op := &OpInfo{Operation: OpDocumentWrite, ConnID: string(key.ConnID), Database: key.Database, Collection: key.Collection}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		if _, err := d.Manager.UpdateMany(ctx, key.ConnID, key.Database, key.Collection, filter, update); err != nil {
			d.Store.Emit(state.DocumentsUpdateFailed{Session: key, Err: err})
			return err
		}
		return LoadDocuments(ctx, d, key)
	})
}

// LoadIndexes loads a collection's index list, skipping the reload if one
// already succeeded and force is false.
func LoadIndexes(ctx context.Context, d Deps, key state.SessionKey, force bool) error {
	sess := d.Store.Session(key)
	if !force && sess.Data.Indexes != nil && sess.Data.IndexesError == "" {
		return nil
	}
	sess.Data.IndexesLoading = true
	op := &OpInfo{Operation: OpIndex, ConnID: string(key.ConnID), Database: key.Database, Collection: key.Collection}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		idx, err := d.Manager.ListIndexes(ctx, key.ConnID, key.Database, key.Collection)
		sess.Data.IndexesLoading = false
		if err != nil {
			sess.Data.IndexesError = err.Error()
			d.Store.Emit(state.IndexesLoadFailed{Session: key, Err: err})
			return err
		}
		sess.Data.Indexes = idx
		sess.Data.IndexesError = ""
		d.Store.Emit(state.IndexesLoaded{Session: key})
		return nil
	})
}

// CreateIndex creates an index from spec.
func CreateIndex(ctx context.Context, d Deps, key state.SessionKey, spec schema.IndexSpec) error {
	if err := ensureWritable(d, key.ConnID); err != nil {
		return err
	}
	if errs := schema.ValidateIndexSpec(spec); len(errs) > 0 {
		return errs
	}
	op := &OpInfo{Operation: OpIndex, ConnID: string(key.ConnID), Database: key.Database, Collection: key.Collection}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		name, err := d.Manager.CreateIndex(ctx, key.ConnID, key.Database, key.Collection, spec)
		if err != nil {
			d.Store.Emit(state.IndexCreateFailed{Session: key, Err: err})
			return err
		}
		d.Store.Emit(state.IndexCreated{Session: key, Name: name})
		return LoadIndexes(ctx, d, key, true)
	})
}

// DropIndex drops an index by name.
func DropIndex(ctx context.Context, d Deps, key state.SessionKey, name string) error {
	if err := ensureWritable(d, key.ConnID); err != nil {
		return err
	}
	op := &OpInfo{Operation: OpIndex, ConnID: string(key.ConnID), Database: key.Database, Collection: key.Collection}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		if err := d.Manager.DropIndex(ctx, key.ConnID, key.Database, key.Collection, name); err != nil {
			d.Store.Emit(state.IndexDropFailed{Session: key, Err: err})
			return err
		}
		d.Store.Emit(state.IndexDropped{Session: key, Name: name})
		return LoadIndexes(ctx, d, key, true)
	})
}

// ReplaceIndex drops oldName and creates newSpec, ordering the two
// operations to minimize the window without an index: same name means
// drop then create (a create under the same name would otherwise
// conflict), different names means create then drop (never momentarily
// unindexed).
func ReplaceIndex(ctx context.Context, d Deps, key state.SessionKey, oldName string, newSpec schema.IndexSpec) error {
	if err := ensureWritable(d, key.ConnID); err != nil {
		return err
	}
	if errs := schema.ValidateIndexSpec(newSpec); len(errs) > 0 {
		return errs
	}
	op := &OpInfo{Operation: OpIndex, ConnID: string(key.ConnID), Database: key.Database, Collection: key.Collection}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		sameName := newSpec.Name != "" && newSpec.Name == oldName
		if sameName {
			if err := d.Manager.DropIndex(ctx, key.ConnID, key.Database, key.Collection, oldName); err != nil {
				d.Store.Emit(state.IndexDropFailed{Session: key, Err: err})
				return err
			}
			name, err := d.Manager.CreateIndex(ctx, key.ConnID, key.Database, key.Collection, newSpec)
			if err != nil {
				d.Store.Emit(state.IndexCreateFailed{Session: key, Err: err})
				return err
			}
			d.Store.Emit(state.IndexCreated{Session: key, Name: name})
		} else {
			name, err := d.Manager.CreateIndex(ctx, key.ConnID, key.Database, key.Collection, newSpec)
			if err != nil {
				d.Store.Emit(state.IndexCreateFailed{Session: key, Err: err})
				return err
			}
			d.Store.Emit(state.IndexCreated{Session: key, Name: name})
			if err := d.Manager.DropIndex(ctx, key.ConnID, key.Database, key.Collection, oldName); err != nil {
				d.Store.Emit(state.IndexDropFailed{Session: key, Err: err})
				return err
			}
		}
		return LoadIndexes(ctx, d, key, true)
	})
}

// withTimeout bounds a command that must not hang forever (e.g. a probe
// before the user has even confirmed a connection).
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}

