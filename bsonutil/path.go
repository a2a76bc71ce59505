// Package bsonutil provides path addressing, value preview and extended-JSON
// conversions over BSON documents. It is the one place in mongoforge that
// reaches into a document's shape directly; every other package works in
// terms of a DocKey/path pair and calls here.
package bsonutil

import (
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// SegmentKind distinguishes a map-key path segment from an array-index one.
type SegmentKind int

const (
	SegKey SegmentKind = iota
	SegIndex
)

// PathSegment is one step of a document path: either a field name or an
// array index.
type PathSegment struct {
	Kind SegmentKind
	Name string
	Idx  int
}

func Key(name string) PathSegment  { return PathSegment{Kind: SegKey, Name: name} }
func Index(i int) PathSegment       { return PathSegment{Kind: SegIndex, Idx: i} }

// Path is an ordered sequence of segments from a document root.
type Path []PathSegment

func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		if seg.Kind == SegKey {
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(seg.Name)
		} else {
			fmt.Fprintf(&b, "[%d]", seg.Idx)
		}
	}
	return b.String()
}

// GetAtPath navigates doc following path and returns the value found there.
// doc may be a bson.D, bson.M, bson.A, or a scalar bson.RawValue-equivalent
// reached via a previous step.
func GetAtPath(doc interface{}, path Path) (interface{}, bool) {
	cur := doc
	for _, seg := range path {
		switch seg.Kind {
		case SegKey:
			v, ok := fieldByKey(cur, seg.Name)
			if !ok {
				return nil, false
			}
			cur = v
		case SegIndex:
			arr, ok := cur.(bson.A)
			if !ok || seg.Idx < 0 || seg.Idx >= len(arr) {
				return nil, false
			}
			cur = arr[seg.Idx]
		}
	}
	return cur, true
}

func fieldByKey(doc interface{}, name string) (interface{}, bool) {
	switch d := doc.(type) {
	case bson.D:
		for _, e := range d {
			if e.Key == name {
				return e.Value, true
			}
		}
	case bson.M:
		v, ok := d[name]
		return v, ok
	}
	return nil, false
}

// SetAtPath writes value at path inside doc, returning whether the path was
// writable (the parent container existed and was itself a document/array).
// doc must be a pointer to bson.D or bson.M for in-place mutation to be
// observable by the caller.
func SetAtPath(doc interface{}, path Path, value interface{}) bool {
	if len(path) == 0 {
		return false
	}
	parent, ok := navigateParent(doc, path[:len(path)-1])
	if !ok {
		return false
	}
	last := path[len(path)-1]
	switch last.Kind {
	case SegKey:
		return setKey(parent, last.Name, value)
	case SegIndex:
		return setIndex(parent, last.Idx, value)
	}
	return false
}

// navigateParent walks to the container that should hold the final segment,
// dereferencing through pointers to bson.D/bson.M as needed.
func navigateParent(doc interface{}, path Path) (interface{}, bool) {
	cur := deref(doc)
	for _, seg := range path {
		next, ok := fieldByKey(cur, segName(seg))
		if !ok {
			if seg.Kind == SegIndex {
				arr, ok := cur.(bson.A)
				if !ok || seg.Idx < 0 || seg.Idx >= len(arr) {
					return nil, false
				}
				cur = deref(arr[seg.Idx])
				continue
			}
			return nil, false
		}
		cur = deref(next)
	}
	return cur, true
}

func segName(seg PathSegment) string {
	if seg.Kind == SegKey {
		return seg.Name
	}
	return ""
}

func deref(v interface{}) interface{} {
	switch d := v.(type) {
	case *bson.D:
		return *d
	case *bson.M:
		return *d
	default:
		return v
	}
}

func setKey(container interface{}, name string, value interface{}) bool {
	switch c := container.(type) {
	case bson.D:
		for i, e := range c {
			if e.Key == name {
				c[i].Value = value
				return true
			}
		}
		return false
	case bson.M:
		c[name] = value
		return true
	case *bson.D:
		for i, e := range *c {
			if e.Key == name {
				(*c)[i].Value = value
				return true
			}
		}
		*c = append(*c, bson.E{Key: name, Value: value})
		return true
	case *bson.M:
		(*c)[name] = value
		return true
	}
	return false
}

func setIndex(container interface{}, idx int, value interface{}) bool {
	switch c := container.(type) {
	case bson.A:
		if idx < 0 || idx >= len(c) {
			return false
		}
		c[idx] = value
		return true
	case *bson.A:
		if idx < 0 || idx >= len(*c) {
			return false
		}
		(*c)[idx] = value
		return true
	}
	return false
}

// PathToID builds the deterministic tree-node id for a (document key, path)
// pair: "doc:<key>" for the root, "doc:<key>:<path>" for a descendant.
func PathToID(docKey string, path Path) string {
	if len(path) == 0 {
		return DocRootID(docKey)
	}
	return fmt.Sprintf("doc:%s:%s", docKey, path.String())
}

// DocRootID is the tree-node id for a document's root row.
func DocRootID(docKey string) string {
	return "doc:" + docKey
}

// ParsePathString parses the textual form produced by Path.String back into
// a Path. Supports dotted keys and [N] index markers; malformed input
// returns (nil, false).
func ParsePathString(s string) (Path, bool) {
	if s == "" {
		return Path{}, true
	}
	var path Path
	var cur strings.Builder
	flush := func() bool {
		if cur.Len() == 0 {
			return true
		}
		path = append(path, Key(cur.String()))
		cur.Reset()
		return true
	}
	i := 0
	for i < len(s) {
		switch s[i] {
		case '.':
			if !flush() {
				return nil, false
			}
			i++
		case '[':
			if !flush() {
				return nil, false
			}
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, false
			}
			numStr := s[i+1 : i+end]
			n, err := strconv.Atoi(numStr)
			if err != nil {
				return nil, false
			}
			path = append(path, Index(n))
			i += end + 1
		default:
			cur.WriteByte(s[i])
			i++
		}
	}
	if !flush() {
		return nil, false
	}
	return path, true
}
