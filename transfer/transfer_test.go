package transfer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/mongoforge/connection"
)

func testURI() string {
	if v := os.Getenv("MONGODB_URI"); v != "" {
		return v
	}
	return "mongodb://localhost:27017"
}

func setupTransferTest(t *testing.T) (*connection.Manager, connection.ConnID, string, func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mgr := connection.NewManager()
	dbName := fmt.Sprintf("mongoforge_transfer_test_%d", time.Now().UnixNano())
	connID := connection.ConnID("test")

	if _, err := mgr.Connect(ctx, connection.Profile{ID: connID, URI: testURI()}); err != nil {
		t.Skipf("cannot connect to MongoDB: %v", err)
	}
	if err := mgr.CreateCollection(ctx, connID, dbName, "src"); err != nil {
		t.Skipf("cannot create test collection: %v", err)
	}

	cleanup := func() {
		_ = mgr.DropDatabase(context.Background(), connID, dbName)
		_ = mgr.Disconnect(context.Background(), connID)
	}
	return mgr, connID, dbName, cleanup
}

func TestCopyCollectionStreamsAllDocuments(t *testing.T) {
	mgr, connID, dbName, cleanup := setupTransferTest(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := mgr.InsertOne(ctx, connID, dbName, "src", bson.D{{Key: "n", Value: i}}); err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}

	opts := Options{BatchSize: 2}
	copied, err := CopyCollection(ctx, mgr, connID, dbName, "src", connID, dbName, "dst", opts, nil, nil)
	if err != nil {
		t.Fatalf("CopyCollection failed: %v", err)
	}
	if copied != 5 {
		t.Fatalf("expected 5 copied, got %d", copied)
	}

	docs, total, err := mgr.FindDocuments(ctx, connID, dbName, "dst", connection.FindQuery{})
	if err != nil {
		t.Fatalf("FindDocuments failed: %v", err)
	}
	if total != 5 || len(docs) != 5 {
		t.Fatalf("expected 5 documents in dst, got %d (%d)", len(docs), total)
	}
}

func TestCopyCollectionHonorsCancellation(t *testing.T) {
	mgr, connID, dbName, cleanup := setupTransferTest(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := mgr.InsertOne(ctx, connID, dbName, "src", bson.D{{Key: "n", Value: i}}); err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}

	cancel := NewCancelToken()
	cancel.Cancel()
	_, err := CopyCollection(ctx, mgr, connID, dbName, "src", connID, dbName, "dst", Options{BatchSize: 1}, cancel, nil)
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestExportJSONLinesAndImportRoundTrip(t *testing.T) {
	mgr, connID, dbName, cleanup := setupTransferTest(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := mgr.InsertOne(ctx, connID, dbName, "src", bson.D{{Key: "name", Value: "widget-1"}}); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}
	if _, err := mgr.InsertOne(ctx, connID, dbName, "src", bson.D{{Key: "name", Value: "widget-2"}}); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	var buf bytes.Buffer
	n, err := Export(ctx, mgr, connID, dbName, "src", connection.FindQuery{}, Options{Format: FormatJSONLines}, &buf, nil)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 exported documents, got %d", n)
	}

	res, err := Import(ctx, mgr, connID, dbName, "dst", strings.NewReader(buf.String()), Options{InsertMode: InsertModeInsert}, nil)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Processed != 2 {
		t.Fatalf("expected 2 processed, got %d", res.Processed)
	}

	_, total, err := mgr.FindDocuments(ctx, connID, dbName, "dst", connection.FindQuery{})
	if err != nil {
		t.Fatalf("FindDocuments failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 documents in dst, got %d", total)
	}
}

func TestImportUpsertReplacesByID(t *testing.T) {
	mgr, connID, dbName, cleanup := setupTransferTest(t)
	defer cleanup()
	ctx := context.Background()

	id, err := mgr.InsertOne(ctx, connID, dbName, "src", bson.D{{Key: "name", Value: "original"}})
	if err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	text, err := bson.MarshalExtJSON(bson.D{{Key: "_id", Value: id}, {Key: "name", Value: "updated"}}, false, false)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	res, err := Import(ctx, mgr, connID, dbName, "src", strings.NewReader(string(text)), Options{InsertMode: InsertModeUpsert}, nil)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Processed != 1 {
		t.Fatalf("expected 1 processed, got %d", res.Processed)
	}

	docs, _, err := mgr.FindDocuments(ctx, connID, dbName, "src", connection.FindQuery{})
	if err != nil {
		t.Fatalf("FindDocuments failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	for _, e := range docs[0] {
		if e.Key == "name" && e.Value != "updated" {
			t.Fatalf("expected name=updated, got %v", e.Value)
		}
	}
}

func TestCopyDatabaseSkipsSystemAndExcluded(t *testing.T) {
	mgr, connID, dbName, cleanup := setupTransferTest(t)
	defer cleanup()
	ctx := context.Background()

	if err := mgr.CreateCollection(ctx, connID, dbName, "keep"); err != nil {
		t.Skipf("cannot create collection: %v", err)
	}
	if err := mgr.CreateCollection(ctx, connID, dbName, "skip"); err != nil {
		t.Skipf("cannot create collection: %v", err)
	}
	if _, err := mgr.InsertOne(ctx, connID, dbName, "keep", bson.D{{Key: "n", Value: 1}}); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}
	if _, err := mgr.InsertOne(ctx, connID, dbName, "skip", bson.D{{Key: "n", Value: 1}}); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	destDB := dbName + "_dest"
	opts := Options{BatchSize: 10, ExcludedNames: map[string]struct{}{"skip": {}}}
	total, progress, err := CopyDatabase(ctx, mgr, connID, dbName, connID, destDB, opts, nil, nil)
	if err != nil {
		t.Fatalf("CopyDatabase failed: %v", err)
	}
	defer func() { _ = mgr.DropDatabase(ctx, connID, destDB) }()

	if total != 1 {
		t.Fatalf("expected 1 document copied, got %d", total)
	}
	for _, c := range progress.Collections {
		if c.Name == "skip" {
			t.Fatalf("excluded collection should not appear in progress: %v", progress.Collections)
		}
	}
}
