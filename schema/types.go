// Package schema analyzes the shape of an arbitrary live collection: field
// types and occurrence rates sampled from documents, and the indexes that
// actually exist. It is the browser's "describe what's there" counterpart to
// the command layer's "change what's there" operations in collection, and
// the connection manager's and transfer engine's shared source of index
// metadata.
package schema

// FieldInfo describes one field observed across a sample of a collection's
// documents.
type FieldInfo struct {
	BSONName  string // field name as stored
	GoType    string // inferred type label, e.g. "string", "int64", "[]string"
	Required  bool   // present in every sampled document
	Unique    bool   // backed by a single-field unique index
	Indexed   bool   // backed by a single-field non-unique index
}

// IndexInfo describes an index as reported by the server's listIndexes.
type IndexInfo struct {
	Name   string
	Keys   []string // field names, in key order
	Unique bool
}

// Analysis is the result of sampling a collection: its inferred fields, its
// actual indexes, and its document count.
type Analysis struct {
	Collection string
	Fields     []FieldInfo
	Indexes    []IndexInfo
	DocCount   int64
}

// FieldByName returns the FieldInfo for name, or nil if the sample never
// observed it.
func (a *Analysis) FieldByName(name string) *FieldInfo {
	for i := range a.Fields {
		if a.Fields[i].BSONName == name {
			return &a.Fields[i]
		}
	}
	return nil
}

// IndexSpec is a portable description of an index, used both to rebuild an
// index from one server's listIndexes output and as the shape the command
// layer's create/replace-index operations accept from the UI.
type IndexSpec struct {
	Keys               []IndexKey
	Name               string
	Unique             bool
	Sparse             bool
	Background         bool
	ExpireAfterSeconds *int32
}

// IndexKey is a single field/direction pair within an index.
type IndexKey struct {
	Field     string
	Direction int32 // 1 ascending, -1 descending
}

// CompoundIndex mirrors a multi-field index request made by a caller before
// it has a name: same shape as the teacher's CompoundIndex, generalized from
// "fields on a registered struct" to "fields a caller asked for".
type CompoundIndex struct {
	Fields []string
	Unique bool
}
