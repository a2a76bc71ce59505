package bsonutil

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// TypeLabel returns a short, stable label for a BSON runtime value's type,
// used by the tree view's type column.
func TypeLabel(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case int32:
		return "int32"
	case int64:
		return "int64"
	case float64:
		return "double"
	case bool:
		return "bool"
	case nil:
		return "null"
	case bson.ObjectID:
		return "objectId"
	case time.Time:
		return "date"
	case bson.D, bson.M:
		return "object"
	case bson.A:
		return "array"
	case bson.Decimal128:
		return "decimal128"
	case bson.Binary:
		return "binary"
	case bson.Timestamp:
		return "timestamp"
	case bson.Regex:
		return "regex"
	default:
		return "unknown"
	}
}

// ValuePreview renders a short, human readable preview of a value, truncated
// to maxChars. Objects and arrays are previewed by element count rather than
// full expansion, matching the tree view's lazy-row contract.
func ValuePreview(v interface{}, maxChars int) string {
	s := previewOne(v)
	if maxChars > 0 && len(s) > maxChars {
		if maxChars > 1 {
			return s[:maxChars-1] + "…"
		}
		return s[:maxChars]
	}
	return s
}

func previewOne(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int32:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		return fmt.Sprintf("%g", val)
	case bson.ObjectID:
		return "ObjectId(" + val.Hex() + ")"
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case bson.D:
		return fmt.Sprintf("{ %d field(s) }", len(val))
	case bson.M:
		return fmt.Sprintf("{ %d field(s) }", len(val))
	case bson.A:
		return fmt.Sprintf("[ %d item(s) ]", len(val))
	case bson.Decimal128:
		return val.String()
	case bson.Binary:
		return fmt.Sprintf("Binary(%d bytes)", len(val.Data))
	default:
		return fmt.Sprintf("%v", val)
	}
}

// ValueForEdit renders a value's full, editable textual form (not truncated),
// used to seed an inline editor.
func ValueForEdit(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int32:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", val), "0"), ".")
	case bson.ObjectID:
		return val.Hex()
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return previewOne(v)
	}
}
