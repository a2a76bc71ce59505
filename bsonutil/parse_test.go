package bsonutil

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/mongoforge/apperr"
)

func TestParseEditedValue(t *testing.T) {
	if v, err := ParseEditedValue("old", "new"); err != nil || v != "new" {
		t.Fatalf("string: got %v, %v", v, err)
	}

	if v, err := ParseEditedValue(int32(1), "42"); err != nil || v != int32(42) {
		t.Fatalf("int32: got %v, %v", v, err)
	}
	if _, err := ParseEditedValue(int32(1), "nope"); !apperr.IsParse(err) {
		t.Fatalf("expected parse error for bad int32, got %v", err)
	}

	if v, err := ParseEditedValue(int64(1), "9999999999"); err != nil || v != int64(9999999999) {
		t.Fatalf("int64: got %v, %v", v, err)
	}

	if v, err := ParseEditedValue(float64(1), "3.5"); err != nil || v != 3.5 {
		t.Fatalf("float64: got %v, %v", v, err)
	}

	if v, err := ParseEditedValue(true, "false"); err != nil || v != false {
		t.Fatalf("bool: got %v, %v", v, err)
	}

	if v, err := ParseEditedValue(nil, "null"); err != nil || v != nil {
		t.Fatalf("null: got %v, %v", v, err)
	}
	if _, err := ParseEditedValue(nil, "something"); !apperr.IsParse(err) {
		t.Fatalf("expected parse error setting null field to non-null, got %v", err)
	}

	id := bson.NewObjectID()
	if v, err := ParseEditedValue(id, id.Hex()); err != nil || v != id {
		t.Fatalf("objectId: got %v, %v", v, err)
	}
	if _, err := ParseEditedValue(id, "not-hex"); !apperr.IsParse(err) {
		t.Fatalf("expected parse error for bad ObjectId, got %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	text := now.Format(time.RFC3339)
	v, err := ParseEditedValue(now, text)
	if err != nil {
		t.Fatalf("date: unexpected error %v", err)
	}
	parsed, ok := v.(time.Time)
	if !ok || !parsed.Equal(now) {
		t.Fatalf("date: expected %v, got %v", now, v)
	}

	if _, err := ParseEditedValue(bson.A{1, 2}, "[1,2]"); !apperr.IsParse(err) {
		t.Fatalf("expected unsupported type to fail inline editing, got %v", err)
	}
}

func TestParseDocumentFromJSON(t *testing.T) {
	doc, err := ParseDocumentFromJSON(`{"name": "Ada", "age": 30}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(doc))
	}

	if _, err := ParseDocumentFromJSON(`[1,2,3]`); !apperr.IsParse(err) {
		t.Fatalf("expected array root to be rejected, got %v", err)
	}
	if _, err := ParseDocumentFromJSON(`"just a string"`); !apperr.IsParse(err) {
		t.Fatalf("expected scalar root to be rejected, got %v", err)
	}
}

func TestParseDocumentsFromJSONArray(t *testing.T) {
	docs, err := ParseDocumentsFromJSON(`[{"a":1},{"a":2}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
}

func TestParseDocumentsFromJSONSingleObject(t *testing.T) {
	docs, err := ParseDocumentsFromJSON(`{"a":1}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
}

func TestParseDocumentsFromJSONLineDelimited(t *testing.T) {
	input := "{\"a\":1}\n{\"a\":2}\n{\"a\":3}\n"
	docs, err := ParseDocumentsFromJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(docs))
	}
}

func TestParseDocumentsFromJSONEmpty(t *testing.T) {
	docs, err := ParseDocumentsFromJSON("")
	if err != nil {
		t.Fatalf("unexpected error for empty input: %v", err)
	}
	if docs != nil {
		t.Fatalf("expected nil docs for empty input, got %v", docs)
	}
}

func TestDocKeyFromID(t *testing.T) {
	id := bson.NewObjectID()
	key, ok := DocKeyFromID(id)
	if !ok {
		t.Fatal("expected ok=true for ObjectID")
	}
	if key == "" {
		t.Fatal("expected non-empty key")
	}

	if _, ok := DocKeyFromID(nil); ok {
		t.Fatal("expected ok=false for nil id")
	}
}
