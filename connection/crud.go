package connection

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dwoolworth/mongoforge/apperr"
)

// naturalOrder is the sort applied when a caller leaves Sort unset, matching
// the spec's default of {$natural:1}.
var naturalOrder = bson.D{{Key: "$natural", Value: 1}}

// FindQuery bundles the inputs to FindDocuments.
type FindQuery struct {
	Filter     bson.D
	Sort       bson.D
	Projection bson.D
	Skip       int64
	Limit      int64
}

// FindDocuments runs q.Filter against db.coll and returns the matched page
// alongside the total count of documents matching the filter (ignoring
// skip/limit), so the caller can compute page counts.
func (m *Manager) FindDocuments(ctx context.Context, id ConnID, db, coll string, q FindQuery) ([]bson.D, int64, error) {
	c, err := m.Collection(id, db, coll)
	if err != nil {
		return nil, 0, err
	}

	sort := q.Sort
	if sort == nil {
		sort = naturalOrder
	}

	findOpts := options.Find().SetSort(sort)
	if q.Projection != nil {
		findOpts.SetProjection(q.Projection)
	}
	if q.Skip > 0 {
		findOpts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		findOpts.SetLimit(q.Limit)
	}

	filter := q.Filter
	if filter == nil {
		filter = bson.D{}
	}

	total, err := c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Driver, "count documents", err)
	}

	cursor, err := c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Driver, "find", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []bson.D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, apperr.Wrap(apperr.Parse, "decode cursor", err)
	}
	return docs, total, nil
}

// InsertOne inserts a single document.
func (m *Manager) InsertOne(ctx context.Context, id ConnID, db, coll string, doc bson.D) (interface{}, error) {
	c, err := m.Collection(id, db, coll)
	if err != nil {
		return nil, err
	}
	res, err := c.InsertOne(ctx, doc)
	if err != nil {
		return nil, apperr.Wrap(apperr.Driver, "insert one", err)
	}
	return res.InsertedID, nil
}

// InsertMany inserts docs unordered, matching the transfer engine's batching
// contract (a partial failure does not abort the remaining batch members).
func (m *Manager) InsertMany(ctx context.Context, id ConnID, db, coll string, docs []bson.D) ([]interface{}, error) {
	c, err := m.Collection(id, db, coll)
	if err != nil {
		return nil, err
	}
	toInsert := make([]interface{}, len(docs))
	for i, d := range docs {
		toInsert[i] = d
	}
	res, err := c.InsertMany(ctx, toInsert, options.InsertMany().SetOrdered(false))
	if err != nil {
		return nil, apperr.Wrap(apperr.Driver, "insert many", err)
	}
	return res.InsertedIDs, nil
}

// UpdateOne applies update to the first document matching filter.
func (m *Manager) UpdateOne(ctx context.Context, id ConnID, db, coll string, filter, update bson.D) (int64, error) {
	c, err := m.Collection(id, db, coll)
	if err != nil {
		return 0, err
	}
	res, err := c.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, apperr.Wrap(apperr.Driver, "update one", err)
	}
	return res.ModifiedCount, nil
}

// UpdateMany applies update to every document matching filter.
func (m *Manager) UpdateMany(ctx context.Context, id ConnID, db, coll string, filter, update bson.D) (int64, error) {
	c, err := m.Collection(id, db, coll)
	if err != nil {
		return 0, err
	}
	res, err := c.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, apperr.Wrap(apperr.Driver, "update many", err)
	}
	return res.ModifiedCount, nil
}

// ReplaceOne replaces the document with the given _id entirely.
func (m *Manager) ReplaceOne(ctx context.Context, id ConnID, db, coll string, docID interface{}, replacement bson.D) error {
	c, err := m.Collection(id, db, coll)
	if err != nil {
		return err
	}
	res, err := c.ReplaceOne(ctx, bson.D{{Key: "_id", Value: docID}}, replacement)
	if err != nil {
		return apperr.Wrap(apperr.Driver, "replace one", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteOne deletes the first document matching filter.
func (m *Manager) DeleteOne(ctx context.Context, id ConnID, db, coll string, filter bson.D) (int64, error) {
	c, err := m.Collection(id, db, coll)
	if err != nil {
		return 0, err
	}
	res, err := c.DeleteOne(ctx, filter)
	if err != nil {
		return 0, apperr.Wrap(apperr.Driver, "delete one", err)
	}
	return res.DeletedCount, nil
}

// DeleteMany deletes every document matching filter.
func (m *Manager) DeleteMany(ctx context.Context, id ConnID, db, coll string, filter bson.D) (int64, error) {
	c, err := m.Collection(id, db, coll)
	if err != nil {
		return 0, err
	}
	res, err := c.DeleteMany(ctx, filter)
	if err != nil {
		return 0, apperr.Wrap(apperr.Driver, "delete many", err)
	}
	return res.DeletedCount, nil
}

// SampleDocuments draws a random sample of size documents via $sample.
func (m *Manager) SampleDocuments(ctx context.Context, id ConnID, db, coll string, size int64) ([]bson.D, error) {
	c, err := m.Collection(id, db, coll)
	if err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: size}}}},
	}
	cursor, err := c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperr.Wrap(apperr.Driver, "sample documents", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []bson.D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperr.Wrap(apperr.Parse, "decode cursor", err)
	}
	return docs, nil
}

// EstimatedDocumentCount returns the collection's metadata-based count,
// cheaper than FindDocuments' exact CountDocuments but approximate under
// concurrent writes.
func (m *Manager) EstimatedDocumentCount(ctx context.Context, id ConnID, db, coll string) (int64, error) {
	c, err := m.Collection(id, db, coll)
	if err != nil {
		return 0, err
	}
	count, err := c.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, apperr.Wrap(apperr.Driver, "estimated document count", err)
	}
	return count, nil
}
