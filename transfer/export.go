package transfer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os/exec"

	"github.com/klauspost/compress/gzip"
	"go.mongodb.org/mongo-driver/v2/bson"
	mongooptions "go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dwoolworth/mongoforge/apperr"
	"github.com/dwoolworth/mongoforge/bsonutil"
	"github.com/dwoolworth/mongoforge/connection"
)

// DumpToolName is the external companion binary Export shells out to for
// FormatDump. It is not bundled with this module; its absence surfaces as
// apperr.ToolNotFound.
const DumpToolName = "mongoforge-dump"

// docCursor is the subset of *mongo.Cursor the serializers below need.
type docCursor interface {
	Next(context.Context) bool
	Decode(interface{}) error
	Err() error
}

// Export walks the filtered/sorted cursor produced by query and serializes
// every document to w in opts.Format, optionally gzip-wrapping the stream.
// It returns the number of documents written, or -1 for FormatDump, whose
// document count the external tool does not report.
func Export(ctx context.Context, mgr *connection.Manager, connID connection.ConnID, db, coll string, query connection.FindQuery, opts Options, w io.Writer, cancel *CancelToken) (int64, error) {
	out := w
	if opts.Compression {
		gz := gzip.NewWriter(w)
		defer func() { _ = gz.Close() }()
		out = gz
	}

	if opts.Format == FormatDump {
		return exportDump(ctx, connID, db, coll, out)
	}

	c, err := mgr.Collection(connID, db, coll)
	if err != nil {
		return 0, err
	}

	filter := query.Filter
	if filter == nil {
		filter = bson.D{}
	}
	sort := query.Sort
	if sort == nil {
		sort = bson.D{{Key: "$natural", Value: 1}}
	}

	findOpts := mongooptions.Find().SetSort(sort)
	if query.Projection != nil {
		findOpts.SetProjection(query.Projection)
	}

	cursor, err := c.Find(ctx, filter, findOpts)
	if err != nil {
		return 0, apperr.Wrap(apperr.Driver, "find for export", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	switch opts.Format {
	case FormatJSONLines:
		return exportJSONLines(ctx, cursor, out, cancel)
	case FormatJSONArray:
		return exportJSONArray(ctx, cursor, out, opts.ExtendedJSON, cancel)
	case FormatCSV:
		return exportCSV(ctx, cursor, out, cancel)
	default:
		return 0, apperr.New(apperr.Parse, "unknown export format")
	}
}

func exportJSONLines(ctx context.Context, cursor docCursor, w io.Writer, cancel *CancelToken) (int64, error) {
	var n int64
	for cursor.Next(ctx) {
		if cancel != nil && cancel.Cancelled() {
			return n, apperr.New(apperr.Cancelled, "export cancelled")
		}
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return n, apperr.Wrap(apperr.Parse, "decode document", err)
		}
		text, err := bsonutil.ToRelaxedJSON(doc)
		if err != nil {
			return n, apperr.Wrap(apperr.Parse, "encode document", err)
		}
		if _, err := fmt.Fprintln(w, text); err != nil {
			return n, apperr.Wrap(apperr.IO, "write export line", err)
		}
		n++
	}
	return n, cursor.Err()
}

func exportJSONArray(ctx context.Context, cursor docCursor, w io.Writer, extended bool, cancel *CancelToken) (int64, error) {
	var n int64
	if _, err := fmt.Fprintln(w, "["); err != nil {
		return 0, apperr.Wrap(apperr.IO, "write array open", err)
	}
	first := true
	for cursor.Next(ctx) {
		if cancel != nil && cancel.Cancelled() {
			return n, apperr.New(apperr.Cancelled, "export cancelled")
		}
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return n, apperr.Wrap(apperr.Parse, "decode document", err)
		}
		var text string
		var err error
		if extended {
			text, err = bsonutil.ToCanonicalJSON(doc)
		} else {
			text, err = bsonutil.ToRelaxedJSON(doc)
		}
		if err != nil {
			return n, apperr.Wrap(apperr.Parse, "encode document", err)
		}
		prefix := "  "
		if !first {
			prefix = ",\n  "
		}
		first = false
		if _, err := fmt.Fprint(w, prefix+text); err != nil {
			return n, apperr.Wrap(apperr.IO, "write array element", err)
		}
		n++
	}
	if err := cursor.Err(); err != nil {
		return n, err
	}
	if _, err := fmt.Fprintln(w, "\n]"); err != nil {
		return n, apperr.Wrap(apperr.IO, "write array close", err)
	}
	return n, nil
}

func exportCSV(ctx context.Context, cursor docCursor, w io.Writer, cancel *CancelToken) (int64, error) {
	var docs []bson.D
	for cursor.Next(ctx) {
		if cancel != nil && cancel.Cancelled() {
			return 0, apperr.New(apperr.Cancelled, "export cancelled")
		}
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return 0, apperr.Wrap(apperr.Parse, "decode document", err)
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return 0, err
	}

	columns := CollectColumns(docs)
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return 0, apperr.Wrap(apperr.IO, "write csv header", err)
	}
	for _, doc := range docs {
		flat := FlattenDocument(doc)
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = flat[col]
		}
		if err := writer.Write(row); err != nil {
			return 0, apperr.Wrap(apperr.IO, "write csv row", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, apperr.Wrap(apperr.IO, "flush csv", err)
	}
	return int64(len(docs)), nil
}

func exportDump(ctx context.Context, connID connection.ConnID, db, coll string, w io.Writer) (int64, error) {
	path, err := exec.LookPath(DumpToolName)
	if err != nil {
		return 0, apperr.Wrap(apperr.ToolNotFound, "dump tool "+DumpToolName+" not found on PATH", err)
	}
	cmd := exec.CommandContext(ctx, path, "--connection", string(connID), "--db", db, "--collection", coll)
	cmd.Stdout = w
	if err := cmd.Run(); err != nil {
		return 0, apperr.Wrap(apperr.IO, "dump tool failed", err)
	}
	return -1, nil
}
