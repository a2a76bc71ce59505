package state

import (
	"reflect"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/mongoforge/bsonutil"
)

var naturalSort = bson.D{{Key: "$natural", Value: 1}}

// EffectiveSort returns raw if it has at least one key, else the natural
// order sort used when the user has not specified one.
func EffectiveSort(raw bson.D) bson.D {
	if len(raw) > 0 {
		return raw
	}
	return naturalSort
}

// NextRequestID bumps and returns sess's request id. Callers stamp this
// into the snapshot they hand to a background call; SetDocuments (and the
// other terminal reconcile steps) compare the id at apply time and drop
// stale results.
func NextRequestID(sess *CollectionSession) uint64 {
	sess.Data.RequestID++
	return sess.Data.RequestID
}

// SetDocuments applies a page of loaded documents to sess if requestID
// still matches the session's current request id; otherwise the call is a
// stale, discarded no-op and ok is false.
func SetDocuments(sess *CollectionSession, requestID uint64, items []SessionDocument, total int64) (ok bool) {
	if requestID != sess.Data.RequestID {
		return false
	}
	sess.Data.Items = items
	sess.Data.Total = total
	sess.Data.IsLoading = false
	sess.Data.IndexByKey = make(map[DocKey]int, len(items))
	for i, it := range items {
		sess.Data.IndexByKey[it.Key] = i
	}
	return true
}

// UpdateDraftValue writes newValue at path into doc's draft, creating the
// draft from originalDoc if it does not exist yet. If the resulting draft
// equals the server document, the draft is removed and the document is no
// longer dirty. Returns false if path does not address a writable location
// in the current draft/original.
func UpdateDraftValue(sess *CollectionSession, key DocKey, originalDoc bson.D, path bsonutil.Path, newValue interface{}) bool {
	draft, hasDraft := sess.View.Drafts[key]
	if !hasDraft {
		draft = deepCloneDoc(originalDoc)
	}
	if !bsonutil.SetAtPath(&draft, path, newValue) {
		return false
	}
	if documentsEqual(draft, originalDoc) {
		delete(sess.View.Drafts, key)
		delete(sess.View.Dirty, key)
		return true
	}
	sess.View.Drafts[key] = draft
	sess.View.Dirty[key] = true
	return true
}

// DiscardDraft removes a pending edit without applying it.
func DiscardDraft(sess *CollectionSession, key DocKey) {
	delete(sess.View.Drafts, key)
	delete(sess.View.Dirty, key)
}

// deepCloneDoc copies doc and every nested bson.D/bson.A it contains so that
// writing through SetAtPath at any depth never mutates the server-side
// document it was cloned from.
func deepCloneDoc(doc bson.D) bson.D {
	out := make(bson.D, len(doc))
	for i, e := range doc {
		out[i] = bson.E{Key: e.Key, Value: deepCloneValue(e.Value)}
	}
	return out
}

func deepCloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case bson.D:
		return deepCloneDoc(val)
	case bson.A:
		out := make(bson.A, len(val))
		for i, elem := range val {
			out[i] = deepCloneValue(elem)
		}
		return out
	default:
		return v
	}
}

func documentsEqual(a, b bson.D) bool {
	return reflect.DeepEqual(a, b)
}
