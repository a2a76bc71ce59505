package transfer

import (
	"sort"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/mongoforge/bsonutil"
)

// FlattenDocument turns doc into a dot-notation column->value map suitable
// for one CSV row. Nested documents flatten into dotted keys
// ("address.city"); arrays are serialized as a single JSON-string column
// rather than expanded, since CSV has no native repeated-field shape.
func FlattenDocument(doc bson.D) map[string]string {
	out := make(map[string]string)
	flattenInto(doc, "", out)
	return out
}

func flattenInto(doc bson.D, prefix string, out map[string]string) {
	for _, e := range doc {
		key := e.Key
		if prefix != "" {
			key = prefix + "." + e.Key
		}
		flattenValue(e.Value, key, out)
	}
}

func flattenValue(v interface{}, key string, out map[string]string) {
	switch val := v.(type) {
	case bson.D:
		flattenInto(val, key, out)
	case bson.M:
		// Stable order so repeated runs produce identical columns.
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := make(bson.D, 0, len(keys))
		for _, k := range keys {
			d = append(d, bson.E{Key: k, Value: val[k]})
		}
		flattenInto(d, key, out)
	case bson.A:
		out[key] = arrayJSON(val)
	case []interface{}:
		out[key] = arrayJSON(bson.A(val))
	default:
		out[key] = csvScalarString(val)
	}
}

func arrayJSON(a bson.A) string {
	// Extended JSON only marshals documents at the top level, so wrap the
	// array as {"v": [...]} and strip the wrapper again.
	text, err := bsonutil.ToRelaxedJSON(bson.D{{Key: "v", Value: a}})
	if err != nil {
		return ""
	}
	const prefix, suffix = `{"v":`, `}`
	if strings.HasPrefix(text, prefix) && strings.HasSuffix(text, suffix) {
		return text[len(prefix) : len(text)-len(suffix)]
	}
	return text
}

func csvScalarString(v interface{}) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case bool:
		return strconv.FormatBool(val)
	case string:
		return val
	default:
		return bsonutil.ValueForEdit(val)
	}
}

// CollectColumns returns the union of flattened column names across docs,
// in first-seen order, so CSV export gets a stable, readable header.
func CollectColumns(docs []bson.D) []string {
	seen := make(map[string]struct{})
	var order []string
	var walk func(doc bson.D, prefix string)
	walk = func(doc bson.D, prefix string) {
		for _, e := range doc {
			key := e.Key
			if prefix != "" {
				key = prefix + "." + e.Key
			}
			if nested, ok := e.Value.(bson.D); ok {
				walk(nested, key)
				continue
			}
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				order = append(order, key)
			}
		}
	}
	for _, d := range docs {
		walk(d, "")
	}
	return order
}

// UnflattenRow rebuilds a bson.D from a CSV row's column->value map,
// splitting dotted keys back into nested documents and type-coercing each
// leaf value with ParseCSVValue.
func UnflattenRow(row map[string]string) bson.D {
	root := bson.D{}
	for key, value := range row {
		setNested(&root, strings.Split(key, "."), value)
	}
	return root
}

func setNested(doc *bson.D, parts []string, value string) {
	key := parts[0]
	if len(parts) == 1 {
		*doc = setKey(*doc, key, ParseCSVValue(value))
		return
	}
	for i, e := range *doc {
		if e.Key == key {
			if nested, ok := e.Value.(bson.D); ok {
				setNested(&nested, parts[1:], value)
				(*doc)[i].Value = nested
				return
			}
			break
		}
	}
	nested := bson.D{}
	setNested(&nested, parts[1:], value)
	*doc = append(*doc, bson.E{Key: key, Value: nested})
}

func setKey(doc bson.D, key string, value interface{}) bson.D {
	for i, e := range doc {
		if e.Key == key {
			doc[i].Value = value
			return doc
		}
	}
	return append(doc, bson.E{Key: key, Value: value})
}

// ParseCSVValue type-coerces a raw CSV cell back into a BSON value: empty
// becomes nil, "true"/"false" (case-insensitive) becomes bool, integers
// that fit int32 stay int32 (matching the driver's own preference) and
// larger ones become int64, floats become float64, 24-char hex becomes an
// ObjectID, and a bracket/brace-wrapped value is parsed as extended JSON.
// Anything else stays a string.
func ParseCSVValue(raw string) interface{} {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if strings.EqualFold(trimmed, "true") {
		return true
	}
	if strings.EqualFold(trimmed, "false") {
		return false
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		if n >= -(1 << 31) && n <= (1<<31 - 1) {
			return int32(n)
		}
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	if len(trimmed) == 24 && isHex(trimmed) {
		if id, err := bson.ObjectIDFromHex(trimmed); err == nil {
			return id
		}
	}
	if isBracketed(trimmed) {
		if doc, err := bsonutil.FromExtJSON(trimmed); err == nil {
			return doc
		}
		var arr bson.A
		if err := bson.UnmarshalExtJSON([]byte(trimmed), false, &arr); err == nil {
			return arr
		}
	}
	return trimmed
}

func isHex(s string) bool {
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')) {
			return false
		}
	}
	return true
}

func isBracketed(s string) bool {
	if len(s) < 2 {
		return false
	}
	return (s[0] == '[' && s[len(s)-1] == ']') || (s[0] == '{' && s[len(s)-1] == '}')
}
