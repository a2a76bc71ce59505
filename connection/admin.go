package connection

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dwoolworth/mongoforge/apperr"
)

// initCollectionName is the throwaway collection CreateDatabase writes to
// and immediately drops, since MongoDB has no explicit create-database
// command: a database exists once something has been written into it.
const initCollectionName = "__mongoforge_init__"

// ListDatabases returns every database name visible to id's client.
func (m *Manager) ListDatabases(ctx context.Context, id ConnID) ([]string, error) {
	mc, err := m.get(id)
	if err != nil {
		return nil, err
	}
	names, err := mc.client.ListDatabaseNames(ctx, bson.D{})
	if err != nil {
		return nil, apperr.Wrap(apperr.Driver, "list databases", err)
	}
	return names, nil
}

// ListCollections returns every collection name in db.
func (m *Manager) ListCollections(ctx context.Context, id ConnID, db string) ([]string, error) {
	d, err := m.Database(id, db)
	if err != nil {
		return nil, err
	}
	names, err := d.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, apperr.Wrap(apperr.Driver, "list collections", err)
	}
	return names, nil
}

// ListCollectionSpecs returns the server's full collection specifications
// (options, info, type) for db, richer than ListCollections' bare names.
func (m *Manager) ListCollectionSpecs(ctx context.Context, id ConnID, db string) ([]mongo.CollectionSpecification, error) {
	d, err := m.Database(id, db)
	if err != nil {
		return nil, err
	}
	specs, err := d.ListCollectionSpecifications(ctx, bson.D{})
	if err != nil {
		return nil, apperr.Wrap(apperr.Driver, "list collection specs", err)
	}
	return specs, nil
}

// CollectionStats runs {collStats: name} and returns the raw result
// document for the caller (the UI's Stats subview) to render as-is.
func (m *Manager) CollectionStats(ctx context.Context, id ConnID, db, coll string) (bson.M, error) {
	d, err := m.Database(id, db)
	if err != nil {
		return nil, err
	}
	var out bson.M
	if err := d.RunCommand(ctx, bson.D{{Key: "collStats", Value: coll}}).Decode(&out); err != nil {
		return nil, apperr.Wrap(apperr.Driver, "collStats", err)
	}
	return out, nil
}

// DatabaseStats runs {dbStats: 1} and returns the raw result document.
func (m *Manager) DatabaseStats(ctx context.Context, id ConnID, db string) (bson.M, error) {
	d, err := m.Database(id, db)
	if err != nil {
		return nil, err
	}
	var out bson.M
	if err := d.RunCommand(ctx, bson.D{{Key: "dbStats", Value: 1}}).Decode(&out); err != nil {
		return nil, apperr.Wrap(apperr.Driver, "dbStats", err)
	}
	return out, nil
}

// CreateCollection explicitly creates coll in db (as opposed to the implicit
// creation a first insert would trigger), so options (capped, validators,
// etc.) can be set up front by a future caller.
func (m *Manager) CreateCollection(ctx context.Context, id ConnID, db, coll string) error {
	d, err := m.Database(id, db)
	if err != nil {
		return err
	}
	if err := d.CreateCollection(ctx, coll); err != nil {
		return apperr.Wrap(apperr.Driver, "create collection", err)
	}
	return nil
}

// DropCollection drops coll from db.
func (m *Manager) DropCollection(ctx context.Context, id ConnID, db, coll string) error {
	c, err := m.Collection(id, db, coll)
	if err != nil {
		return err
	}
	if err := c.Drop(ctx); err != nil {
		return apperr.Wrap(apperr.Driver, "drop collection", err)
	}
	return nil
}

// RenameCollection issues the admin database's renameCollection command
// with dropTarget:false, matching the spec exactly.
func (m *Manager) RenameCollection(ctx context.Context, id ConnID, db, oldName, newName string) error {
	mc, err := m.get(id)
	if err != nil {
		return err
	}
	admin := mc.client.Database("admin")
	cmd := bson.D{
		{Key: "renameCollection", Value: fmt.Sprintf("%s.%s", db, oldName)},
		{Key: "to", Value: fmt.Sprintf("%s.%s", db, newName)},
		{Key: "dropTarget", Value: false},
	}
	if err := admin.RunCommand(ctx, cmd).Err(); err != nil {
		return apperr.Wrap(apperr.Driver, "rename collection", err)
	}
	return nil
}

// DropDatabase drops db entirely.
func (m *Manager) DropDatabase(ctx context.Context, id ConnID, db string) error {
	d, err := m.Database(id, db)
	if err != nil {
		return err
	}
	if err := d.Drop(ctx); err != nil {
		return apperr.Wrap(apperr.Driver, "drop database", err)
	}
	return nil
}

// CreateDatabase brings db into existence. MongoDB has no explicit
// create-database command — a database exists once a write has landed in
// it — so this inserts one throwaway document into initCollectionName and
// immediately drops that collection, leaving the (now persisted) empty
// database behind. Symmetric counterpart to DropDatabase.
func (m *Manager) CreateDatabase(ctx context.Context, id ConnID, db string) error {
	c, err := m.Collection(id, db, initCollectionName)
	if err != nil {
		return err
	}
	if _, err := c.InsertOne(ctx, bson.D{{Key: "_init", Value: true}}); err != nil {
		return apperr.Wrap(apperr.Driver, "create database", err)
	}
	if err := c.Drop(ctx); err != nil {
		return apperr.Wrap(apperr.Driver, "create database: cleanup", err)
	}
	return nil
}
