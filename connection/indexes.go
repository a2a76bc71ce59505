package connection

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/mongoforge/apperr"
	"github.com/dwoolworth/mongoforge/schema"
)

// ListIndexes returns every index document as reported by the server,
// including the automatic _id_ index.
func (m *Manager) ListIndexes(ctx context.Context, id ConnID, db, coll string) ([]bson.M, error) {
	c, err := m.Collection(id, db, coll)
	if err != nil {
		return nil, err
	}
	cursor, err := c.Indexes().List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Driver, "list indexes", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var out []bson.M
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperr.Wrap(apperr.Parse, "decode indexes", err)
	}
	return out, nil
}

// CreateIndex builds an index from a portable spec and creates it,
// returning the name the server assigned.
func (m *Manager) CreateIndex(ctx context.Context, id ConnID, db, coll string, spec schema.IndexSpec) (string, error) {
	c, err := m.Collection(id, db, coll)
	if err != nil {
		return "", err
	}
	model := schema.BuildIndexModel(spec)
	name, err := c.Indexes().CreateOne(ctx, model)
	if err != nil {
		return "", apperr.Wrap(apperr.Driver, "create index", err)
	}
	return name, nil
}

// DropIndex drops the index named name.
func (m *Manager) DropIndex(ctx context.Context, id ConnID, db, coll, name string) error {
	c, err := m.Collection(id, db, coll)
	if err != nil {
		return err
	}
	if _, err := c.Indexes().DropOne(ctx, name); err != nil {
		return apperr.Wrap(apperr.Driver, "drop index", err)
	}
	return nil
}
