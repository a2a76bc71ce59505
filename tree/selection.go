package tree

import "github.com/dwoolworth/mongoforge/state"

// Select replaces the current selection with a single key.
func Select(sess *state.CollectionSession, key state.DocKey) {
	sess.View.SelectedDoc = key
	for k := range sess.View.SelectedDocs {
		delete(sess.View.SelectedDocs, k)
	}
	sess.View.SelectedDocs[key] = true
}

// ToggleSelect flips key's membership in the selection set, also updating
// the primary SelectedDoc to the most recently toggled-on key.
func ToggleSelect(sess *state.CollectionSession, key state.DocKey) {
	if sess.View.SelectedDocs[key] {
		delete(sess.View.SelectedDocs, key)
		if sess.View.SelectedDoc == key {
			sess.View.SelectedDoc = ""
		}
		return
	}
	sess.View.SelectedDocs[key] = true
	sess.View.SelectedDoc = key
}

// SelectRange selects every currently loaded item between primary and key,
// inclusive, in load order.
func SelectRange(sess *state.CollectionSession, primary, key state.DocKey) {
	startIdx, ok1 := sess.Data.IndexByKey[primary]
	endIdx, ok2 := sess.Data.IndexByKey[key]
	if !ok1 || !ok2 {
		Select(sess, key)
		return
	}
	if startIdx > endIdx {
		startIdx, endIdx = endIdx, startIdx
	}
	for k := range sess.View.SelectedDocs {
		delete(sess.View.SelectedDocs, k)
	}
	for i := startIdx; i <= endIdx; i++ {
		sess.View.SelectedDocs[sess.Data.Items[i].Key] = true
	}
	sess.View.SelectedDoc = key
}

// SelectAll selects every currently loaded item.
func SelectAll(sess *state.CollectionSession) {
	for _, item := range sess.Data.Items {
		sess.View.SelectedDocs[item.Key] = true
	}
}

// ClearSelection empties the selection set.
func ClearSelection(sess *state.CollectionSession) {
	for k := range sess.View.SelectedDocs {
		delete(sess.View.SelectedDocs, k)
	}
	sess.View.SelectedDoc = ""
}
