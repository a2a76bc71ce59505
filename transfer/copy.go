package transfer

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"

	"github.com/dwoolworth/mongoforge/apperr"
	"github.com/dwoolworth/mongoforge/connection"
	"github.com/dwoolworth/mongoforge/schema"
)

var log = logrus.WithField("component", "transfer")

// ProgressFunc is called after each inserted batch with the running copied
// count. It may be nil.
type ProgressFunc func(copied int64)

// CopyCollection streams every document from src into dst in batches of
// opts.BatchSize (ordered:false, so one bad document in a batch does not
// block the rest), checking cancel between batches. When opts.CopyIndexes
// is set, every non-_id_ index on src is rebuilt on dst after the documents
// land; a failed index rebuild is logged as a warning and does not fail the
// copy.
func CopyCollection(ctx context.Context, mgr *connection.Manager, srcConn connection.ConnID, srcDB, srcColl string, dstConn connection.ConnID, dstDB, dstColl string, opts Options, cancel *CancelToken, progress ProgressFunc) (int64, error) {
	src, err := mgr.Collection(srcConn, srcDB, srcColl)
	if err != nil {
		return 0, err
	}

	filter := bson.D{}
	if f, ok := opts.Filter.(bson.D); ok && f != nil {
		filter = f
	}

	cursor, err := src.Find(ctx, filter)
	if err != nil {
		return 0, apperr.Wrap(apperr.Driver, "find source documents", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var copied int64
	batch := make([]bson.D, 0, opts.batchSize())

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := mgr.InsertMany(ctx, dstConn, dstDB, dstColl, batch); err != nil {
			return err
		}
		copied += int64(len(batch))
		batch = batch[:0]
		if progress != nil {
			progress(copied)
		}
		return nil
	}

	for cursor.Next(ctx) {
		if cancel != nil && cancel.Cancelled() {
			return copied, apperr.New(apperr.Cancelled, "copy cancelled")
		}
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return copied, apperr.Wrap(apperr.Parse, "decode source document", err)
		}
		batch = append(batch, doc)
		if int64(len(batch)) >= opts.batchSize() {
			if err := flush(); err != nil {
				return copied, err
			}
			if cancel != nil && cancel.Cancelled() {
				return copied, apperr.New(apperr.Cancelled, "copy cancelled")
			}
		}
	}
	if err := cursor.Err(); err != nil {
		return copied, apperr.Wrap(apperr.Driver, "cursor iteration", err)
	}
	if err := flush(); err != nil {
		return copied, err
	}

	if opts.CopyIndexes {
		copyIndexes(ctx, mgr, srcConn, srcDB, srcColl, dstConn, dstDB, dstColl)
	}

	return copied, nil
}

// copyIndexes rebuilds every index on src (except the automatic _id_) onto
// dst. Failures are logged, never returned: an index can always be rebuilt
// by hand, but a fatal failure here would discard documents that already
// copied successfully.
func copyIndexes(ctx context.Context, mgr *connection.Manager, srcConn connection.ConnID, srcDB, srcColl string, dstConn connection.ConnID, dstDB, dstColl string) {
	raw, err := mgr.ListIndexes(ctx, srcConn, srcDB, srcColl)
	if err != nil {
		log.WithError(err).Warn("list source indexes failed, skipping index copy")
		return
	}
	for _, idx := range raw {
		name, _ := idx["name"].(string)
		if name == "_id_" {
			continue
		}
		spec, err := schema.DeriveIndexSpec(idx)
		if err != nil {
			log.WithError(err).WithField("index", name).Warn("derive index spec failed")
			continue
		}
		if _, err := mgr.CreateIndex(ctx, dstConn, dstDB, dstColl, spec); err != nil {
			log.WithError(err).WithField("index", name).Warn("rebuild index on destination failed")
		}
	}
}

// CopyDatabase lists every collection in srcDB, skips "system."-prefixed
// names and anything in opts.ExcludedNames, and copies the rest to dstDB
// concurrently (bounded by errgroup's default unlimited group, relying on
// the connection pool to naturally throttle). It returns the total document
// count copied across every collection.
func CopyDatabase(ctx context.Context, mgr *connection.Manager, srcConn connection.ConnID, srcDB string, dstConn connection.ConnID, dstDB string, opts Options, cancel *CancelToken, onProgress func(collection string, copied int64)) (int64, *DatabaseTransferProgress, error) {
	names, err := mgr.ListCollections(ctx, srcConn, srcDB)
	if err != nil {
		return 0, nil, err
	}

	progress := &DatabaseTransferProgress{}
	var targets []string
	for _, name := range names {
		if strings.HasPrefix(name, "system.") {
			continue
		}
		if _, excluded := opts.ExcludedNames[name]; excluded {
			continue
		}
		targets = append(targets, name)
		progress.byName(name).State = CollectionPending
	}

	g, gctx := errgroup.WithContext(ctx)
	var totalCopied int64
	for _, name := range targets {
		name := name
		g.Go(func() error {
			entry := progress.byName(name)
			entry.State = CollectionInProgress
			copied, err := CopyCollection(gctx, mgr, srcConn, srcDB, name, dstConn, dstDB, name, opts, cancel, func(n int64) {
				entry.Copied = n
				if onProgress != nil {
					onProgress(name, n)
				}
			})
			entry.Copied = copied
			if err != nil {
				if apperr.IsCancelled(err) {
					entry.State = CollectionCancelled
				} else {
					entry.State = CollectionFailed
					entry.FailedMsg = err.Error()
				}
				return err
			}
			entry.State = CollectionCompleted
			return nil
		})
	}

	err = g.Wait()
	for _, c := range progress.Collections {
		totalCopied += c.Copied
	}
	return totalCopied, progress, err
}
