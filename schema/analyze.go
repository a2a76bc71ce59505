package schema

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dwoolworth/mongoforge/apperr"
)

// DefaultSampleSize is used by Analyze when the caller passes sampleSize<=0.
const DefaultSampleSize = 500

// Analyze samples up to sampleSize documents from coll, infers each field's
// type and required-ness, counts the collection, and merges in index
// metadata so single-field indexes show up on the corresponding FieldInfo.
func Analyze(ctx context.Context, coll *mongo.Collection, sampleSize int) (*Analysis, error) {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	a := &Analysis{Collection: coll.Name()}

	count, err := coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Driver, "count documents", err)
	}
	a.DocCount = count

	fields, err := sampleFields(ctx, coll, sampleSize)
	if err != nil {
		return nil, err
	}
	a.Fields = fields

	indexes, err := listIndexInfo(ctx, coll)
	if err != nil {
		return nil, err
	}
	a.Indexes = indexes

	for i := range a.Fields {
		for _, idx := range a.Indexes {
			if len(idx.Keys) == 1 && idx.Keys[0] == a.Fields[i].BSONName {
				if idx.Unique {
					a.Fields[i].Unique = true
				} else {
					a.Fields[i].Indexed = true
				}
			}
		}
	}

	return a, nil
}

type fieldTracker struct {
	types map[string]bool
	count int
}

func sampleFields(ctx context.Context, coll *mongo.Collection, sampleSize int) ([]FieldInfo, error) {
	cursor, err := coll.Find(ctx, bson.D{}, options.Find().SetLimit(int64(sampleSize)))
	if err != nil {
		return nil, apperr.Wrap(apperr.Driver, "sample documents", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	trackers := make(map[string]*fieldTracker)
	var order []string
	total := 0

	for cursor.Next(ctx) {
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		total++
		for _, elem := range doc {
			ft, ok := trackers[elem.Key]
			if !ok {
				ft = &fieldTracker{types: make(map[string]bool)}
				trackers[elem.Key] = ft
				order = append(order, elem.Key)
			}
			ft.count++
			ft.types[inferGoType(elem.Value)] = true
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Driver, "sample documents", err)
	}
	if total == 0 {
		return nil, nil
	}

	fields := make([]FieldInfo, 0, len(order))
	for _, name := range order {
		ft := trackers[name]
		fields = append(fields, FieldInfo{
			BSONName: name,
			GoType:   resolveType(ft.types),
			Required: ft.count == total,
		})
	}
	return fields, nil
}

func listIndexInfo(ctx context.Context, coll *mongo.Collection) ([]IndexInfo, error) {
	cursor, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Driver, "list indexes", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var indexes []IndexInfo
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			continue
		}
		name, _ := raw["name"].(string)
		var keys []string
		if keyDoc, ok := raw["key"].(bson.D); ok {
			for _, k := range keyDoc {
				keys = append(keys, k.Key)
			}
		}
		unique, _ := raw["unique"].(bool)
		indexes = append(indexes, IndexInfo{Name: name, Keys: keys, Unique: unique})
	}
	return indexes, cursor.Err()
}

// inferGoType maps a single BSON runtime value to a type label.
func inferGoType(v interface{}) string {
	switch v := v.(type) {
	case string:
		return "string"
	case int32:
		return "int32"
	case int64:
		return "int64"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case bson.ObjectID:
		return "objectId"
	case time.Time:
		return "date"
	case bson.D:
		return "object"
	case bson.A:
		return inferArrayType(v)
	case bson.Decimal128:
		return "decimal128"
	case nil:
		return "null"
	default:
		return "interface{}"
	}
}

func inferArrayType(arr bson.A) string {
	if len(arr) == 0 {
		return "array"
	}
	first := inferGoType(arr[0])
	for _, elem := range arr[1:] {
		if inferGoType(elem) != first {
			return "array"
		}
	}
	if first == "null" {
		return "array"
	}
	return "[]" + first
}

// resolveType picks the most specific type label that covers every observed
// type, promoting int32+int64 to int64 and any-int+float64 to float64, and
// wrapping in a nullable marker when null was also observed.
func resolveType(types map[string]bool) string {
	hasNull := types["null"]
	delete(types, "null")

	if len(types) == 0 {
		return "null"
	}
	if types["int32"] && types["int64"] {
		delete(types, "int32")
	}
	if (types["int32"] || types["int64"]) && types["float64"] {
		delete(types, "int32")
		delete(types, "int64")
	}

	if len(types) == 1 {
		var t string
		for t = range types {
		}
		if hasNull {
			return t + "?"
		}
		return t
	}

	list := make([]string, 0, len(types))
	for t := range types {
		list = append(list, t)
	}
	sort.Strings(list)
	return "mixed"
}
