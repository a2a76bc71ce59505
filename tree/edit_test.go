package tree

import (
	"testing"

	"github.com/dwoolworth/mongoforge/bsonutil"
)

func TestBeginInlineEditReturnsEditableText(t *testing.T) {
	sess := testSession(t)
	seedItems(sess)
	row := Row{DocKey: "k1", Path: bsonutil.Path{bsonutil.Key("name")}}

	text, ok := BeginInlineEdit(sess, row)
	if !ok || text != "alice" {
		t.Fatalf("expected editable text \"alice\", got %q ok=%v", text, ok)
	}
}

func TestBeginInlineEditMissingPath(t *testing.T) {
	sess := testSession(t)
	seedItems(sess)
	row := Row{DocKey: "k1", Path: bsonutil.Path{bsonutil.Key("nope")}}
	if _, ok := BeginInlineEdit(sess, row); ok {
		t.Fatalf("expected missing path to fail")
	}
}

func TestCommitEditWritesDraft(t *testing.T) {
	sess := testSession(t)
	seedItems(sess)
	row := Row{DocKey: "k1", Path: bsonutil.Path{bsonutil.Key("name")}}

	if err := CommitEdit(sess, row, "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	draft, ok := sess.View.Drafts["k1"]
	if !ok {
		t.Fatalf("expected draft created")
	}
	val, _ := bsonutil.GetAtPath(draft, row.Path)
	if val != "bob" {
		t.Fatalf("expected draft name=bob, got %v", val)
	}
	if !sess.View.Dirty["k1"] {
		t.Fatalf("expected k1 marked dirty")
	}
}

func TestCommitEditDocumentGone(t *testing.T) {
	sess := testSession(t)
	seedItems(sess)
	row := Row{DocKey: "missing-key", Path: bsonutil.Path{bsonutil.Key("name")}}
	if err := CommitEdit(sess, row, "x"); err != errDocumentGone {
		t.Fatalf("expected errDocumentGone, got %v", err)
	}
}

func TestCommitEditRevertingToOriginalClearsDirty(t *testing.T) {
	sess := testSession(t)
	seedItems(sess)
	row := Row{DocKey: "k1", Path: bsonutil.Path{bsonutil.Key("name")}}
	if err := CommitEdit(sess, row, "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CommitEdit(sess, row, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.View.Dirty["k1"] {
		t.Fatalf("expected dirty cleared after reverting to original value")
	}
	if _, ok := sess.View.Drafts["k1"]; ok {
		t.Fatalf("expected draft removed after reverting to original value")
	}
}
