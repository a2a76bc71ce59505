package bsonutil

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ToRelaxedJSON renders doc as relaxed extended JSON text, the driver's own
// "human friendly" extended-JSON dialect (numbers stay numbers, dates stay
// ISO-8601 strings under $date, etc).
func ToRelaxedJSON(doc interface{}) (string, error) {
	b, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return "", fmt.Errorf("bsonutil: relaxed json marshal failed: %w", err)
	}
	return string(b), nil
}

// ToCanonicalJSON renders doc as canonical extended JSON text (every value
// carries an explicit type wrapper, e.g. {"$numberInt": "1"}).
func ToCanonicalJSON(doc interface{}) (string, error) {
	b, err := bson.MarshalExtJSON(doc, true, false)
	if err != nil {
		return "", fmt.Errorf("bsonutil: canonical json marshal failed: %w", err)
	}
	return string(b), nil
}

// FromExtJSON parses relaxed or canonical extended JSON text (either form
// round-trips through the same unmarshaler) into a bson.D.
func FromExtJSON(text string) (bson.D, error) {
	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(text), false, &doc); err != nil {
		return nil, fmt.Errorf("bsonutil: extended json parse failed: %w", err)
	}
	return doc, nil
}
