package tree

import (
	"errors"

	"github.com/dwoolworth/mongoforge/bsonutil"
	"github.com/dwoolworth/mongoforge/state"
)

// errDocumentGone is returned by CommitEdit when the row's document is no
// longer present in the session (e.g. the page was reloaded mid-edit).
var errDocumentGone = errors.New("tree: document no longer loaded")

// errUnwritablePath is returned when the row's path no longer resolves in
// the current document, so there is nothing to write the new value into.
var errUnwritablePath = errors.New("tree: path is not writable")

// EditSession is the transient state of an in-progress inline edit.
type EditSession struct {
	NodeID string
	DocKey state.DocKey
	Path   bsonutil.Path
}

// BeginInlineEdit starts editing row in sess, returning the editable text
// form of its current (draft-aware) value. ok is false if the row's path
// no longer resolves (the underlying document changed shape).
func BeginInlineEdit(sess *state.CollectionSession, row Row) (text string, ok bool) {
	for _, item := range sess.Data.Items {
		if item.Key != row.DocKey {
			continue
		}
		doc := effectiveDoc(sess, item)
		val, found := bsonutil.GetAtPath(doc, row.Path)
		if !found {
			return "", false
		}
		return bsonutil.ValueForEdit(val), true
	}
	return "", false
}

// CommitEdit parses text in the context of the row's original value and
// writes it into the session's draft for row's document, following the
// same write/verify/dirty rules as state.UpdateDraftValue.
func CommitEdit(sess *state.CollectionSession, row Row, text string) error {
	var original state.SessionDocument
	found := false
	for _, item := range sess.Data.Items {
		if item.Key == row.DocKey {
			original = item
			found = true
			break
		}
	}
	if !found {
		return errDocumentGone
	}
	origVal, ok := bsonutil.GetAtPath(original.Doc, row.Path)
	if !ok {
		return errUnwritablePath
	}
	newVal, err := bsonutil.ParseEditedValue(origVal, text)
	if err != nil {
		return err
	}
	if !state.UpdateDraftValue(sess, row.DocKey, original.Doc, row.Path, newVal) {
		return errUnwritablePath
	}
	return nil
}
