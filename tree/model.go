// Package tree computes the documents tree model: given a collection
// session's loaded items, drafts and expansion set, it produces the
// ordered sequence of visible rows the UI renders, lazily, without ever
// materializing a full tree for large result pages.
package tree

import (
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/mongoforge/bsonutil"
	"github.com/dwoolworth/mongoforge/state"
)

// Row is one visible row of the documents tree: either a document root or
// a descendant field/array element, present only if its parent is
// expanded.
type Row struct {
	NodeID      string
	Depth       int
	KeyLabel    string
	Path        bsonutil.Path
	IsFolder    bool
	IsExpanded  bool
	DocIndex    int
	DocKey      state.DocKey
}

// RowMeta is a row's display metadata, computed on demand rather than
// stored on Row so VisibleRows stays cheap for unrendered rows.
type RowMeta struct {
	Preview   string
	TypeLabel string
	ColorClass string
}

// VisibleRows walks sess's loaded items and expansion set, returning the
// ordered sequence of rows currently visible: every document root, plus
// descendant rows for any node present (and true) in sess.View.ExpandedNodes.
func VisibleRows(sess *state.CollectionSession) []Row {
	var rows []Row
	for docIndex, item := range sess.Data.Items {
		doc := effectiveDoc(sess, item)
		rootID := bsonutil.DocRootID(string(item.Key))
		rootPath := bsonutil.Path{}
		rows = append(rows, Row{
			NodeID:     rootID,
			Depth:      0,
			KeyLabel:   string(item.Key),
			Path:       rootPath,
			IsFolder:   isContainer(doc),
			IsExpanded: sess.View.ExpandedNodes[rootID],
			DocIndex:   docIndex,
			DocKey:     item.Key,
		})
		if sess.View.ExpandedNodes[rootID] {
			rows = append(rows, childRows(sess, item.Key, doc, docIndex, rootPath, 1)...)
		}
	}
	return rows
}

func effectiveDoc(sess *state.CollectionSession, item state.SessionDocument) bson.D {
	if draft, ok := sess.View.Drafts[item.Key]; ok {
		return draft
	}
	return item.Doc
}

func isContainer(v interface{}) bool {
	switch v.(type) {
	case bson.D:
		return true
	case bson.M:
		return true
	case bson.A:
		return true
	default:
		return false
	}
}

func childRows(sess *state.CollectionSession, docKey state.DocKey, container interface{}, docIndex int, parentPath bsonutil.Path, depth int) []Row {
	var rows []Row
	for _, child := range containerChildren(container) {
		path := append(append(bsonutil.Path{}, parentPath...), child.seg)
		nodeID := bsonutil.PathToID(string(docKey), path)
		rows = append(rows, Row{
			NodeID:     nodeID,
			Depth:      depth,
			KeyLabel:   child.label,
			Path:       path,
			IsFolder:   isContainer(child.value),
			IsExpanded: sess.View.ExpandedNodes[nodeID],
			DocIndex:   docIndex,
			DocKey:     docKey,
		})
		if sess.View.ExpandedNodes[nodeID] {
			rows = append(rows, childRows(sess, docKey, child.value, docIndex, path, depth+1)...)
		}
	}
	return rows
}

type childEntry struct {
	seg   bsonutil.PathSegment
	label string
	value interface{}
}

func containerChildren(container interface{}) []childEntry {
	switch c := container.(type) {
	case bson.D:
		out := make([]childEntry, 0, len(c))
		for _, e := range c {
			out = append(out, childEntry{seg: bsonutil.Key(e.Key), label: e.Key, value: e.Value})
		}
		return out
	case bson.M:
		keys := make([]string, 0, len(c))
		for k := range c {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]childEntry, 0, len(keys))
		for _, k := range keys {
			out = append(out, childEntry{seg: bsonutil.Key(k), label: k, value: c[k]})
		}
		return out
	case bson.A:
		out := make([]childEntry, 0, len(c))
		for i, v := range c {
			out = append(out, childEntry{seg: bsonutil.Index(i), label: fmt.Sprintf("[%d]", i), value: v})
		}
		return out
	}
	return nil
}

const defaultPreviewChars = 80

// Meta computes a row's lazily-evaluated display metadata by reading the
// document's current (draft-aware) value at the row's path.
func Meta(sess *state.CollectionSession, row Row) RowMeta {
	for _, item := range sess.Data.Items {
		if item.Key != row.DocKey {
			continue
		}
		doc := effectiveDoc(sess, item)
		val, ok := bsonutil.GetAtPath(doc, row.Path)
		if !ok {
			return RowMeta{Preview: "", TypeLabel: "missing", ColorClass: "muted"}
		}
		return RowMeta{
			Preview:    bsonutil.ValuePreview(val, defaultPreviewChars),
			TypeLabel:  bsonutil.TypeLabel(val),
			ColorClass: colorClassFor(val),
		}
	}
	return RowMeta{}
}

func colorClassFor(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case int32, int64, float64:
		return "number"
	case bool:
		return "bool"
	case nil:
		return "null"
	case bson.D, bson.M:
		return "object"
	case bson.A:
		return "array"
	default:
		return "other"
	}
}

// SetExpanded toggles a node's expansion state in the session view.
func SetExpanded(sess *state.CollectionSession, nodeID string, expanded bool) {
	if expanded {
		sess.View.ExpandedNodes[nodeID] = true
	} else {
		delete(sess.View.ExpandedNodes, nodeID)
	}
}

// ToggleExpanded flips a node's expansion state.
func ToggleExpanded(sess *state.CollectionSession, nodeID string) {
	SetExpanded(sess, nodeID, !sess.View.ExpandedNodes[nodeID])
}
