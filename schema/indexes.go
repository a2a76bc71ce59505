package schema

import (
	"context"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dwoolworth/mongoforge/apperr"
)

// ListExistingIndexes returns the set of index names that already exist on
// coll, keyed for quick membership checks by create paths that must skip
// ones that already exist.
func ListExistingIndexes(ctx context.Context, coll *mongo.Collection) (map[string]bool, error) {
	result := make(map[string]bool)

	cursor, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Driver, "list indexes", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	for cursor.Next(ctx) {
		var idx bson.M
		if err := cursor.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			result[name] = true
		}
	}
	return result, cursor.Err()
}

// CompoundIndexName derives the server's default index name for an ordered
// set of ascending keys, e.g. ["a","b"] -> "a_1_b_1".
func CompoundIndexName(fields []string) string {
	parts := make([]string, 0, len(fields)*2)
	for _, f := range fields {
		parts = append(parts, f, "1")
	}
	return strings.Join(parts, "_")
}

// BuildIndexModel converts a portable IndexSpec into the driver's
// mongo.IndexModel, ready to pass to coll.Indexes().CreateOne.
func BuildIndexModel(spec IndexSpec) mongo.IndexModel {
	keys := bson.D{}
	for _, k := range spec.Keys {
		dir := k.Direction
		if dir == 0 {
			dir = 1
		}
		keys = append(keys, bson.E{Key: k.Field, Value: dir})
	}

	opts := options.Index()
	if spec.Name != "" {
		opts.SetName(spec.Name)
	}
	if spec.Unique {
		opts.SetUnique(true)
	}
	if spec.Sparse {
		opts.SetSparse(true)
	}
	if spec.Background {
		opts.SetBackground(true)
	}
	if spec.ExpireAfterSeconds != nil {
		opts.SetExpireAfterSeconds(*spec.ExpireAfterSeconds)
	}

	return mongo.IndexModel{Keys: keys, Options: opts}
}

// DeriveIndexSpec converts a raw document returned by listIndexes (as
// produced by the driver's Indexes().List) into a portable IndexSpec,
// suitable for rebuilding the same index on another collection. The
// automatic "_id_" index is the caller's responsibility to skip.
func DeriveIndexSpec(raw bson.M) (IndexSpec, error) {
	spec := IndexSpec{}

	if name, ok := raw["name"].(string); ok {
		spec.Name = name
	}

	keyDoc, ok := raw["key"].(bson.D)
	if !ok {
		return spec, apperr.New(apperr.Parse, "index document missing key field")
	}
	for _, e := range keyDoc {
		dir := int32(1)
		switch v := e.Value.(type) {
		case int32:
			dir = v
		case int64:
			dir = int32(v)
		case float64:
			dir = int32(v)
		}
		spec.Keys = append(spec.Keys, IndexKey{Field: e.Key, Direction: dir})
	}

	if u, ok := raw["unique"].(bool); ok {
		spec.Unique = u
	}
	if s, ok := raw["sparse"].(bool); ok {
		spec.Sparse = s
	}
	if b, ok := raw["background"].(bool); ok {
		spec.Background = b
	}
	if exp, ok := raw["expireAfterSeconds"]; ok {
		var secs int32
		switch v := exp.(type) {
		case int32:
			secs = v
		case int64:
			secs = int32(v)
		case float64:
			secs = int32(v)
		}
		spec.ExpireAfterSeconds = &secs
	}

	return spec, nil
}

// ValidateIndexSpec checks a user-built IndexSpec before it is sent to the
// driver, collecting every problem at once rather than failing on the
// first one (a form with both an empty key list and a bad direction should
// report both).
func ValidateIndexSpec(spec IndexSpec) apperr.ValidationErrors {
	var errs apperr.ValidationErrors
	if len(spec.Keys) == 0 {
		errs = append(errs, apperr.ValidationError{Field: "keys", Message: "at least one field is required"})
	}
	seen := make(map[string]bool, len(spec.Keys))
	for _, k := range spec.Keys {
		if strings.TrimSpace(k.Field) == "" {
			errs = append(errs, apperr.ValidationError{Field: "keys", Message: "field name must not be empty"})
			continue
		}
		if seen[k.Field] {
			errs = append(errs, apperr.ValidationError{Field: "keys", Message: "field " + k.Field + " repeated"})
		}
		seen[k.Field] = true
		if k.Direction != 1 && k.Direction != -1 {
			errs = append(errs, apperr.ValidationError{Field: k.Field, Message: "direction must be 1 or -1"})
		}
	}
	if spec.ExpireAfterSeconds != nil && *spec.ExpireAfterSeconds < 0 {
		errs = append(errs, apperr.ValidationError{Field: "expireAfterSeconds", Message: "must not be negative"})
	}
	return errs
}

// IsAutoIDIndex reports whether name is the automatic primary-key index
// every collection is created with, which the transfer engine's index copy
// must never attempt to recreate.
func IsAutoIDIndex(name string) bool {
	return name == "_id_"
}

// Drift describes a field observed in sampled documents that the caller's
// known field set does not account for.
type Drift struct {
	Collection string
	Field      string
}

// DetectDrift reports fields present in a's sample that are not named in
// knownFields, letting a caller flag collections whose actual shape has
// grown beyond whatever schema it was expecting.
func DetectDrift(a *Analysis, knownFields map[string]bool) []Drift {
	var drifts []Drift
	for _, f := range a.Fields {
		if !knownFields[f.BSONName] {
			drifts = append(drifts, Drift{Collection: a.Collection, Field: f.BSONName})
		}
	}
	return drifts
}

// ParseExpireSeconds parses a TTL index's expireAfterSeconds text input,
// returning nil (no TTL) for an empty string.
func ParseExpireSeconds(text string) (*int32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return nil, apperr.Wrap(apperr.Parse, "invalid expireAfterSeconds", err)
	}
	v := int32(n)
	return &v, nil
}
