package state

import (
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/mongoforge/bsonutil"
)

func TestEffectiveSort(t *testing.T) {
	if got := EffectiveSort(bson.D{}); len(got) != 1 || got[0].Key != "$natural" {
		t.Fatalf("expected natural sort default, got %v", got)
	}
	raw := bson.D{{Key: "name", Value: 1}}
	if got := EffectiveSort(raw); got[0].Key != "name" {
		t.Fatalf("expected user sort preserved, got %v", got)
	}
}

func TestNextRequestIDAndSetDocumentsStaleness(t *testing.T) {
	sess := newCollectionSession()
	id1 := NextRequestID(sess)
	id2 := NextRequestID(sess)
	if id2 != id1+1 {
		t.Fatalf("expected monotonic request ids, got %d then %d", id1, id2)
	}

	items := []SessionDocument{{Key: "k1", Doc: bson.D{{Key: "_id", Value: "k1"}}}}
	if ok := SetDocuments(sess, id1, items, 1); ok {
		t.Fatalf("expected stale requestID to be rejected")
	}
	if ok := SetDocuments(sess, id2, items, 1); !ok {
		t.Fatalf("expected current requestID to be accepted")
	}
	if len(sess.Data.Items) != 1 || sess.Data.Total != 1 {
		t.Fatalf("expected items applied, got %v", sess.Data)
	}
	if sess.Data.IndexByKey["k1"] != 0 {
		t.Fatalf("expected index built for k1")
	}
}

func TestUpdateDraftValueCreatesAndClearsDraft(t *testing.T) {
	sess := newCollectionSession()
	original := bson.D{{Key: "_id", Value: "k1"}, {Key: "name", Value: "alice"}}
	path := bsonutil.Path{bsonutil.Key("name")}

	if ok := UpdateDraftValue(sess, "k1", original, path, "bob"); !ok {
		t.Fatalf("expected writable path to succeed")
	}
	if !sess.View.Dirty["k1"] {
		t.Fatalf("expected k1 marked dirty")
	}
	draft, ok := sess.View.Drafts["k1"]
	if !ok {
		t.Fatalf("expected draft created")
	}
	val, _ := bsonutil.GetAtPath(draft, path)
	if val != "bob" {
		t.Fatalf("expected draft name=bob, got %v", val)
	}

	// setting it back to the original value clears the draft
	if ok := UpdateDraftValue(sess, "k1", original, path, "alice"); !ok {
		t.Fatalf("expected revert to succeed")
	}
	if sess.View.Dirty["k1"] {
		t.Fatalf("expected k1 no longer dirty after reverting to original value")
	}
	if _, ok := sess.View.Drafts["k1"]; ok {
		t.Fatalf("expected draft removed after reverting to original value")
	}
}

func TestUpdateDraftValueNestedPathDoesNotMutateOriginal(t *testing.T) {
	sess := newCollectionSession()
	original := bson.D{
		{Key: "_id", Value: "k1"},
		{Key: "addr", Value: bson.D{{Key: "city", Value: "NYC"}}},
	}
	path := bsonutil.Path{bsonutil.Key("addr"), bsonutil.Key("city")}

	if ok := UpdateDraftValue(sess, "k1", original, path, "LA"); !ok {
		t.Fatalf("expected writable nested path to succeed")
	}
	if !sess.View.Dirty["k1"] {
		t.Fatalf("expected k1 marked dirty")
	}

	origCity, _ := bsonutil.GetAtPath(original, path)
	if origCity != "NYC" {
		t.Fatalf("expected original document untouched, got addr.city=%v", origCity)
	}

	draft := sess.View.Drafts["k1"]
	draftCity, _ := bsonutil.GetAtPath(draft, path)
	if draftCity != "LA" {
		t.Fatalf("expected draft addr.city=LA, got %v", draftCity)
	}
}

func TestUpdateDraftValueUnwritablePath(t *testing.T) {
	sess := newCollectionSession()
	original := bson.D{{Key: "_id", Value: "k1"}}
	path := bsonutil.Path{bsonutil.Key("missing"), bsonutil.Key("nested")}
	if ok := UpdateDraftValue(sess, "k1", original, path, "x"); ok {
		t.Fatalf("expected unwritable nested path to fail")
	}
}

func TestDiscardDraft(t *testing.T) {
	sess := newCollectionSession()
	sess.View.Drafts["k1"] = bson.D{{Key: "_id", Value: "k1"}}
	sess.View.Dirty["k1"] = true
	DiscardDraft(sess, "k1")
	if _, ok := sess.View.Drafts["k1"]; ok {
		t.Fatalf("expected draft discarded")
	}
	if sess.View.Dirty["k1"] {
		t.Fatalf("expected dirty cleared")
	}
}
