package tree

import (
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/mongoforge/bsonutil"
	"github.com/dwoolworth/mongoforge/state"
)

func testSession(t *testing.T) *state.CollectionSession {
	t.Helper()
	s := state.NewStore()
	key := state.SessionKey{ConnID: "c1", Database: "d", Collection: "coll"}
	return s.Session(key)
}

func seedItems(sess *state.CollectionSession) {
	sess.Data.Items = []state.SessionDocument{
		{Key: "k1", Doc: bson.D{
			{Key: "_id", Value: "k1"},
			{Key: "name", Value: "alice"},
			{Key: "tags", Value: bson.A{"x", "y"}},
		}},
		{Key: "k2", Doc: bson.D{{Key: "_id", Value: "k2"}, {Key: "name", Value: "bob"}}},
	}
	sess.Data.IndexByKey = map[state.DocKey]int{"k1": 0, "k2": 1}
}

func TestVisibleRowsRootsOnlyWhenCollapsed(t *testing.T) {
	sess := testSession(t)
	seedItems(sess)
	rows := VisibleRows(sess)
	if len(rows) != 2 {
		t.Fatalf("expected 2 root rows, got %d", len(rows))
	}
	if !rows[0].IsFolder {
		t.Fatalf("expected root row with object doc to be a folder")
	}
}

func TestVisibleRowsExpandsChildren(t *testing.T) {
	sess := testSession(t)
	seedItems(sess)
	root := VisibleRows(sess)[0]
	SetExpanded(sess, root.NodeID, true)

	rows := VisibleRows(sess)
	if len(rows) != 5 { // 2 roots + 3 fields of k1 (name, tags array folder, _id)
		t.Fatalf("expected 5 rows after expanding k1, got %d: %+v", len(rows), rows)
	}
	var sawTags bool
	for _, r := range rows {
		if r.KeyLabel == "tags" {
			sawTags = true
			if !r.IsFolder {
				t.Fatalf("expected tags array row to be a folder")
			}
		}
	}
	if !sawTags {
		t.Fatalf("expected a tags row among children")
	}
}

func TestVisibleRowsNestedArrayExpansion(t *testing.T) {
	sess := testSession(t)
	seedItems(sess)
	root := VisibleRows(sess)[0]
	SetExpanded(sess, root.NodeID, true)

	var tagsRow Row
	for _, r := range VisibleRows(sess) {
		if r.KeyLabel == "tags" {
			tagsRow = r
		}
	}
	SetExpanded(sess, tagsRow.NodeID, true)
	rows := VisibleRows(sess)
	var sawIndex0 bool
	for _, r := range rows {
		if r.KeyLabel == "[0]" {
			sawIndex0 = true
		}
	}
	if !sawIndex0 {
		t.Fatalf("expected array index row [0] among expanded tags children, got %+v", rows)
	}
}

func TestMetaUsesDraftOverOriginal(t *testing.T) {
	sess := testSession(t)
	seedItems(sess)
	path := bsonutil.Path{bsonutil.Key("name")}
	sess.View.Drafts["k1"] = bson.D{{Key: "_id", Value: "k1"}, {Key: "name", Value: "ALICE"}, {Key: "tags", Value: bson.A{"x", "y"}}}

	row := Row{DocKey: "k1", Path: path}
	meta := Meta(sess, row)
	if meta.Preview != `"ALICE"` {
		t.Fatalf("expected meta to reflect draft value, got %q", meta.Preview)
	}
}

func TestToggleExpanded(t *testing.T) {
	sess := testSession(t)
	ToggleExpanded(sess, "doc:k1")
	if !sess.View.ExpandedNodes["doc:k1"] {
		t.Fatalf("expected node expanded after toggle")
	}
	ToggleExpanded(sess, "doc:k1")
	if sess.View.ExpandedNodes["doc:k1"] {
		t.Fatalf("expected node collapsed after second toggle")
	}
}
