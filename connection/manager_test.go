package connection

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func testURI() string {
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		return uri
	}
	return "mongodb://localhost:27017"
}

func setupTestManager(t *testing.T) (context.Context, *Manager, ConnID, string, func()) {
	t.Helper()
	ctx := context.Background()
	m := NewManager()

	id := ConnID("test")
	if _, err := m.Connect(ctx, Profile{ID: id, URI: testURI()}); err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}

	dbName := fmt.Sprintf("mongoforge_conn_test_%d", time.Now().UnixNano())
	c, err := m.Collection(id, dbName, "_auth_check")
	if err != nil {
		t.Fatalf("Collection: %v", err)
	}
	if _, err := c.InsertOne(ctx, bson.D{{Key: "ok", Value: true}}); err != nil {
		_ = m.Disconnect(ctx, id)
		t.Skipf("MongoDB not writable (auth required?): %v", err)
	}
	_ = c.Drop(ctx)

	cleanup := func() {
		if d, err := m.Database(id, dbName); err == nil {
			_ = d.Drop(ctx)
		}
		_ = m.Disconnect(ctx, id)
	}
	return ctx, m, id, dbName, cleanup
}

func TestConnectAndDisconnect(t *testing.T) {
	ctx, m, id, _, cleanup := setupTestManager(t)
	defer cleanup()

	if len(m.ConnectedIDs()) != 1 {
		t.Fatalf("expected exactly one connected id, got %v", m.ConnectedIDs())
	}
	if ro, err := m.IsReadOnly(id); err != nil || ro {
		t.Fatalf("expected non-read-only fresh connection, got %v, %v", ro, err)
	}

	if err := m.Disconnect(ctx, id); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if _, err := m.IsReadOnly(id); err == nil {
		t.Fatal("expected error looking up a disconnected id")
	}
	// Disconnecting an already-missing id is a no-op.
	if err := m.Disconnect(ctx, id); err != nil {
		t.Fatalf("expected idempotent disconnect, got %v", err)
	}
}

func TestCRUDRoundTrip(t *testing.T) {
	ctx, m, id, db, cleanup := setupTestManager(t)
	defer cleanup()

	insertedID, err := m.InsertOne(ctx, id, db, "widgets", bson.D{{Key: "name", Value: "a"}})
	if err != nil {
		t.Fatalf("InsertOne: %v", err)
	}

	docs, total, err := m.FindDocuments(ctx, id, db, "widgets", FindQuery{})
	if err != nil {
		t.Fatalf("FindDocuments: %v", err)
	}
	if total != 1 || len(docs) != 1 {
		t.Fatalf("expected 1 doc, got total=%d len=%d", total, len(docs))
	}

	modified, err := m.UpdateOne(ctx, id, db, "widgets",
		bson.D{{Key: "_id", Value: insertedID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "name", Value: "b"}}}})
	if err != nil {
		t.Fatalf("UpdateOne: %v", err)
	}
	if modified != 1 {
		t.Fatalf("expected 1 modified, got %d", modified)
	}

	deleted, err := m.DeleteOne(ctx, id, db, "widgets", bson.D{{Key: "_id", Value: insertedID}})
	if err != nil {
		t.Fatalf("DeleteOne: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}
}

func TestCreateAndDropDatabase(t *testing.T) {
	ctx, m, id, _, cleanup := setupTestManager(t)
	defer cleanup()

	dbName := fmt.Sprintf("mongoforge_create_test_%d", time.Now().UnixNano())
	if err := m.CreateDatabase(ctx, id, dbName); err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}

	names, err := m.ListDatabases(ctx, id)
	if err != nil {
		t.Fatalf("ListDatabases: %v", err)
	}
	found := false
	for _, n := range names {
		if n == dbName {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %q among databases %v", dbName, names)
	}

	if err := m.DropDatabase(ctx, id, dbName); err != nil {
		t.Fatalf("DropDatabase: %v", err)
	}
}

func TestCreateDropAndRenameCollection(t *testing.T) {
	ctx, m, id, db, cleanup := setupTestManager(t)
	defer cleanup()

	if err := m.CreateCollection(ctx, id, db, "first"); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if err := m.RenameCollection(ctx, id, db, "first", "second"); err != nil {
		t.Fatalf("RenameCollection: %v", err)
	}

	names, err := m.ListCollections(ctx, id, db)
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	var has bool
	for _, n := range names {
		if n == "second" {
			has = true
		}
	}
	if !has {
		t.Fatalf("expected renamed collection among %v", names)
	}

	if err := m.DropCollection(ctx, id, db, "second"); err != nil {
		t.Fatalf("DropCollection: %v", err)
	}
}

func TestTestConnectionTimeout(t *testing.T) {
	ctx := context.Background()
	err := TestConnection(ctx, "mongodb://192.0.2.1:1", 200*time.Millisecond)
	if err == nil {
		t.Fatal("expected an error probing an unreachable host")
	}
}

func TestCancelToken(t *testing.T) {
	tok := NewCancelToken()
	if tok.Cancelled() {
		t.Fatal("expected fresh token to be uncancelled")
	}
	tok.Cancel()
	if !tok.Cancelled() {
		t.Fatal("expected token to report cancelled after Cancel")
	}
}
