package transfer

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestFlattenDocumentNested(t *testing.T) {
	doc := bson.D{
		{Key: "name", Value: "John"},
		{Key: "age", Value: int32(30)},
		{Key: "address", Value: bson.D{{Key: "city", Value: "NYC"}}},
	}
	flat := FlattenDocument(doc)
	if flat["name"] != "John" {
		t.Fatalf("name = %q", flat["name"])
	}
	if flat["age"] != "30" {
		t.Fatalf("age = %q", flat["age"])
	}
	if flat["address.city"] != "NYC" {
		t.Fatalf("address.city = %q", flat["address.city"])
	}
}

func TestFlattenDocumentArrayAsJSON(t *testing.T) {
	doc := bson.D{{Key: "tags", Value: bson.A{"a", "b"}}}
	flat := FlattenDocument(doc)
	if flat["tags"] != `["a","b"]` {
		t.Fatalf("tags = %q", flat["tags"])
	}
}

func TestUnflattenRowNested(t *testing.T) {
	row := map[string]string{
		"user.name":         "John",
		"user.address.city": "NYC",
	}
	doc := UnflattenRow(row)
	var user bson.D
	for _, e := range doc {
		if e.Key == "user" {
			user = e.Value.(bson.D)
		}
	}
	if user == nil {
		t.Fatalf("expected nested user document, got %v", doc)
	}
	var name string
	var address bson.D
	for _, e := range user {
		switch e.Key {
		case "name":
			name = e.Value.(string)
		case "address":
			address = e.Value.(bson.D)
		}
	}
	if name != "John" {
		t.Fatalf("name = %q", name)
	}
	if address == nil || address[0].Key != "city" || address[0].Value != "NYC" {
		t.Fatalf("address = %v", address)
	}
}

func TestParseCSVValueTypeCoercion(t *testing.T) {
	cases := []struct {
		in   string
		want interface{}
	}{
		{"", nil},
		{"true", true},
		{"FALSE", false},
		{"42", int32(42)},
		{"9999999999", int64(9999999999)},
		{"3.14", 3.14},
		{"hello", "hello"},
	}
	for _, c := range cases {
		got := ParseCSVValue(c.in)
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("ParseCSVValue(%q) = %#v, want %#v", c.in, got, c.want)
		}
	}
}

func TestParseCSVValueObjectID(t *testing.T) {
	oid := bson.NewObjectID()
	got := ParseCSVValue(oid.Hex())
	parsed, ok := got.(bson.ObjectID)
	if !ok {
		t.Fatalf("expected ObjectID, got %T", got)
	}
	if parsed != oid {
		t.Fatalf("expected %v, got %v", oid, parsed)
	}
}

func TestFlattenUnflattenRoundTrip(t *testing.T) {
	doc := bson.D{
		{Key: "name", Value: "Widget"},
		{Key: "count", Value: int32(5)},
		{Key: "active", Value: true},
	}
	flat := FlattenDocument(doc)
	back := UnflattenRow(flat)

	byKey := func(d bson.D, key string) interface{} {
		for _, e := range d {
			if e.Key == key {
				return e.Value
			}
		}
		return nil
	}
	if byKey(back, "name") != "Widget" {
		t.Fatalf("name round-trip failed: %v", back)
	}
	if byKey(back, "count") != int32(5) {
		t.Fatalf("count round-trip failed: %v", back)
	}
	if byKey(back, "active") != true {
		t.Fatalf("active round-trip failed: %v", back)
	}
}

func TestCollectColumnsOrderAndDedup(t *testing.T) {
	docs := []bson.D{
		{{Key: "a", Value: 1}, {Key: "b", Value: 2}},
		{{Key: "b", Value: 3}, {Key: "c", Value: 4}},
	}
	cols := CollectColumns(docs)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(cols, want) {
		t.Fatalf("CollectColumns = %v, want %v", cols, want)
	}
}
