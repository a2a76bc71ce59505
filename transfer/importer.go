package transfer

import (
	"bufio"
	"context"
	"io"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongooptions "go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dwoolworth/mongoforge/apperr"
	"github.com/dwoolworth/mongoforge/bsonutil"
	"github.com/dwoolworth/mongoforge/connection"
)

// Result summarizes one Import call.
type Result struct {
	Processed int64
	Errors    []string
}

// Import reads documents from r (auto-detecting a JSON array root, a single
// JSON object, or a line-delimited stream of objects) and applies them to
// dst in batches per opts.InsertMode. When opts.StopOnError is set, the
// first batch failure aborts and returns that error; otherwise failures are
// collected into Result.Errors and import continues with the next batch.
func Import(ctx context.Context, mgr *connection.Manager, connID connection.ConnID, db, coll string, r io.Reader, opts Options, cancel *CancelToken) (*Result, error) {
	docs, err := decodeImportStream(r)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	batchSize := int(opts.batchSize())
	for start := 0; start < len(docs); start += batchSize {
		if cancel != nil && cancel.Cancelled() {
			return res, apperr.New(apperr.Cancelled, "import cancelled")
		}
		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		if err := applyBatch(ctx, mgr, connID, db, coll, batch, opts.InsertMode); err != nil {
			if opts.StopOnError {
				return res, err
			}
			res.Errors = append(res.Errors, err.Error())
			continue
		}
		res.Processed += int64(len(batch))
	}
	return res, nil
}

func applyBatch(ctx context.Context, mgr *connection.Manager, connID connection.ConnID, db, coll string, batch []bson.D, mode InsertMode) error {
	switch mode {
	case InsertModeInsert:
		_, err := mgr.InsertMany(ctx, connID, db, coll, batch)
		return err
	case InsertModeUpsert, InsertModeReplace:
		return replaceBatch(ctx, mgr, connID, db, coll, batch, mode == InsertModeUpsert)
	default:
		return apperr.New(apperr.Parse, "unknown insert mode")
	}
}

func replaceBatch(ctx context.Context, mgr *connection.Manager, connID connection.ConnID, db, coll string, batch []bson.D, upsert bool) error {
	target, err := mgr.Collection(connID, db, coll)
	if err != nil {
		return err
	}
	for _, doc := range batch {
		var id interface{}
		for _, e := range doc {
			if e.Key == "_id" {
				id = e.Value
			}
		}
		if id == nil {
			if _, err := mgr.InsertMany(ctx, connID, db, coll, []bson.D{doc}); err != nil {
				return err
			}
			continue
		}
		filter := bson.D{{Key: "_id", Value: id}}
		replaceOpts := mongooptions.Replace()
		if upsert {
			replaceOpts = replaceOpts.SetUpsert(true)
		}
		res, err := target.ReplaceOne(ctx, filter, doc, replaceOpts)
		if err != nil {
			return apperr.Wrap(apperr.Driver, "replace during import", err)
		}
		if !upsert && res.MatchedCount == 0 {
			return apperr.ErrNotFound
		}
	}
	return nil
}

func decodeImportStream(r io.Reader) ([]bson.D, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperr.Wrap(apperr.IO, "read import stream", err)
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, apperr.New(apperr.Parse, "empty import stream")
	}

	if trimmed[0] == '[' {
		var arr bson.A
		if err := bson.UnmarshalExtJSON([]byte(trimmed), false, &arr); err != nil {
			return nil, apperr.Wrap(apperr.Parse, "malformed JSON array", err)
		}
		docs := make([]bson.D, 0, len(arr))
		for _, elem := range arr {
			d, ok := elem.(bson.D)
			if !ok {
				return nil, apperr.New(apperr.Parse, "array elements must be objects")
			}
			docs = append(docs, d)
		}
		return docs, nil
	}

	lines := nonBlankLines(trimmed)
	if len(lines) > 1 {
		if docs, ok := tryParseLines(lines); ok {
			return docs, nil
		}
	}

	doc, err := bsonutil.FromExtJSON(trimmed)
	if err != nil {
		return nil, err
	}
	return []bson.D{doc}, nil
}

func nonBlankLines(text string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func tryParseLines(lines []string) ([]bson.D, bool) {
	docs := make([]bson.D, 0, len(lines))
	for _, line := range lines {
		if len(line) == 0 || line[0] != '{' {
			return nil, false
		}
		doc, err := bsonutil.FromExtJSON(line)
		if err != nil {
			return nil, false
		}
		docs = append(docs, doc)
	}
	return docs, true
}
