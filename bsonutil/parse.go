package bsonutil

import (
	"bufio"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/mongoforge/apperr"
)

// ParseEditedValue parses text into a value of the same BSON type as
// original. It never widens to a different type than the one the cell
// started as; this is what lets the tree view offer a plain text box for
// any field without losing type fidelity. Supported original types: string,
// int32, int64, double (float64), bool, nil, bson.ObjectID, time.Time.
func ParseEditedValue(original interface{}, text string) (interface{}, error) {
	switch original.(type) {
	case string:
		return text, nil
	case int32:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 32)
		if err != nil {
			return nil, apperr.Wrap(apperr.Parse, "not a valid int32", err)
		}
		return int32(n), nil
	case int64:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return nil, apperr.Wrap(apperr.Parse, "not a valid int64", err)
		}
		return n, nil
	case float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, apperr.Wrap(apperr.Parse, "not a valid double", err)
		}
		return f, nil
	case bool:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return nil, apperr.Wrap(apperr.Parse, "not a valid boolean", err)
		}
		return b, nil
	case nil:
		trimmed := strings.TrimSpace(text)
		if trimmed != "" && trimmed != "null" {
			return nil, apperr.New(apperr.Parse, "null fields can only be set back to null")
		}
		return nil, nil
	case bson.ObjectID:
		id, err := bson.ObjectIDFromHex(strings.TrimSpace(text))
		if err != nil {
			return nil, apperr.Wrap(apperr.Parse, "not a valid ObjectId", err)
		}
		return id, nil
	case time.Time:
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(text))
		if err != nil {
			return nil, apperr.Wrap(apperr.Parse, "not a valid RFC3339 datetime", err)
		}
		return t, nil
	default:
		return nil, apperr.New(apperr.Parse, "field type does not support inline editing")
	}
}

// ParseDocumentFromJSON accepts a single JSON object and rejects non-object
// roots (arrays, scalars) with apperr.Parse.
func ParseDocumentFromJSON(text string) (bson.D, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed[0] != '{' {
		return nil, apperr.New(apperr.Parse, "expected a single JSON object")
	}
	doc, err := FromExtJSON(trimmed)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseDocumentsFromJSON accepts a JSON array of objects, a single JSON
// object, or a line-delimited stream of JSON objects, trying each form in
// that order (the autodetection order mandated by the spec).
func ParseDocumentsFromJSON(text string) ([]bson.D, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var raw bson.A
		if err := bson.UnmarshalExtJSON([]byte(trimmed), false, &raw); err != nil {
			return nil, apperr.Wrap(apperr.Parse, "malformed JSON array", err)
		}
		docs := make([]bson.D, 0, len(raw))
		for _, elem := range raw {
			d, ok := elem.(bson.D)
			if !ok {
				return nil, apperr.New(apperr.Parse, "array elements must be objects")
			}
			docs = append(docs, d)
		}
		return docs, nil

	case '{':
		// A lone object is one document; several objects (one per line)
		// are not valid JSON as a whole and fall through to the
		// line-delimited reader.
		if json.Valid([]byte(trimmed)) {
			doc, err := FromExtJSON(trimmed)
			if err != nil {
				return nil, err
			}
			return []bson.D{doc}, nil
		}
		fallthrough

	default:
		// Line-delimited stream: one JSON object per non-blank line.
		var docs []bson.D
		scanner := bufio.NewScanner(strings.NewReader(trimmed))
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			doc, err := FromExtJSON(line)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
		if err := scanner.Err(); err != nil {
			return nil, apperr.Wrap(apperr.Parse, "failed reading line-delimited JSON", err)
		}
		if docs == nil {
			return nil, apperr.New(apperr.Parse, "no documents found")
		}
		return docs, nil
	}
}

// DocKeyFromID derives the stable document-key string from a document's
// _id value: relaxed extended JSON of the id when present.
func DocKeyFromID(id interface{}) (string, bool) {
	if id == nil {
		return "", false
	}
	s, err := ToRelaxedJSON(bson.D{{Key: "v", Value: id}})
	if err != nil {
		return "", false
	}
	// ToRelaxedJSON wraps in {"v": ...}; strip the wrapper since callers
	// only want the value's own textual form.
	const prefix, suffix = `{"v":`, `}`
	if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, suffix) {
		return s[len(prefix) : len(s)-len(suffix)], true
	}
	return s, true
}
