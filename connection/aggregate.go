package connection

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dwoolworth/mongoforge/apperr"
)

// AggregatePipeline runs an assembled pipeline and decodes every result
// document. limit, when non-nil, is appended as a trailing $limit stage
// (the aggregation package's executor builds its own pipelines directly
// against *mongo.Collection for the instrumented per-stage replay; this
// entry point is the plain pass-through the spec lists alongside the other
// manager operations, used by callers that just want a single pipeline's
// final results).
func (m *Manager) AggregatePipeline(ctx context.Context, id ConnID, db, coll string, pipeline mongo.Pipeline, limit *int64) ([]bson.D, error) {
	c, err := m.Collection(id, db, coll)
	if err != nil {
		return nil, err
	}

	stages := pipeline
	if limit != nil {
		stages = append(append(mongo.Pipeline{}, pipeline...), bson.D{{Key: "$limit", Value: *limit}})
	}

	cursor, err := c.Aggregate(ctx, stages)
	if err != nil {
		return nil, apperr.Wrap(apperr.Driver, "aggregate", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []bson.D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperr.Wrap(apperr.Parse, "decode cursor", err)
	}
	return docs, nil
}
