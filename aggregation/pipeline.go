// Package aggregation runs the stage-by-stage aggregation preview and the
// paged real execution behind a collection's aggregation tab: a pipeline
// assembled from user-edited stage text, a per-stage row count/timing
// replay, and a final paged run over the enabled prefix.
package aggregation

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dwoolworth/mongoforge/apperr"
)

// Pipeline is a fluent builder for aggregation stages, kept for
// programmatic use (the CLI harness and tests) alongside the text-driven
// PipelineStage list the UI edits.
type Pipeline struct {
	stages []bson.D
}

// NewPipeline creates an empty pipeline builder.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

func (p *Pipeline) Match(filter interface{}) *Pipeline {
	p.stages = append(p.stages, bson.D{{Key: "$match", Value: filter}})
	return p
}

func (p *Pipeline) Group(group interface{}) *Pipeline {
	p.stages = append(p.stages, bson.D{{Key: "$group", Value: group}})
	return p
}

func (p *Pipeline) Sort(sort interface{}) *Pipeline {
	p.stages = append(p.stages, bson.D{{Key: "$sort", Value: sort}})
	return p
}

func (p *Pipeline) Project(projection interface{}) *Pipeline {
	p.stages = append(p.stages, bson.D{{Key: "$project", Value: projection}})
	return p
}

func (p *Pipeline) Limit(n int64) *Pipeline {
	p.stages = append(p.stages, bson.D{{Key: "$limit", Value: n}})
	return p
}

func (p *Pipeline) Skip(n int64) *Pipeline {
	p.stages = append(p.stages, bson.D{{Key: "$skip", Value: n}})
	return p
}

func (p *Pipeline) Count(field string) *Pipeline {
	p.stages = append(p.stages, bson.D{{Key: "$count", Value: field}})
	return p
}

// Stage appends a raw stage not covered by the builder methods above.
func (p *Pipeline) Stage(stage bson.D) *Pipeline {
	p.stages = append(p.stages, stage)
	return p
}

// Stages returns the accumulated stages.
func (p *Pipeline) Stages() []bson.D {
	return p.stages
}

// Execute runs the pipeline against coll and decodes every result.
func (p *Pipeline) Execute(ctx context.Context, coll *mongo.Collection) ([]bson.D, error) {
	cursor, err := coll.Aggregate(ctx, p.stages)
	if err != nil {
		return nil, apperr.Wrap(apperr.Driver, "aggregate failed", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var out []bson.D
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperr.Wrap(apperr.Driver, "aggregate decode failed", err)
	}
	return out, nil
}

// Cursor runs the pipeline and returns the raw cursor for streaming use.
func (p *Pipeline) Cursor(ctx context.Context, coll *mongo.Collection) (*mongo.Cursor, error) {
	cursor, err := coll.Aggregate(ctx, p.stages)
	if err != nil {
		return nil, apperr.Wrap(apperr.Driver, "aggregate failed", err)
	}
	return cursor, nil
}

// PipelineStage is one user-edited stage: an operator name ("$match",
// "$group", ...) and its raw body text, parsed as relaxed JSON at run
// time. A disabled stage is skipped in execution but still counted in the
// per-stage stats rows.
type PipelineStage struct {
	Operator string
	Body     string
	Enabled  bool
}

// StageDocCount is one row of the per-stage replay: the document count
// flowing into and out of this stage, and the elapsed time to produce it. A
// disabled stage passes its input through unchanged, so Input == Output.
type StageDocCount struct {
	Stage  int
	Input  int64
	Output int64
	TimeMs int64
}

func parseStageBody(body string) (bson.D, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" || trimmed == "{}" {
		return bson.D{}, nil
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(trimmed), false, &doc); err != nil {
		return nil, apperr.Wrap(apperr.Parse, "invalid stage JSON", err)
	}
	return doc, nil
}

// BuildStageDoc turns one PipelineStage into its bson.D operator document,
// e.g. {Operator: "$match", Body: `{"active":true}`} -> {$match: {active:true}}.
func BuildStageDoc(stage PipelineStage) (bson.D, error) {
	body, err := parseStageBody(stage.Body)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", stage.Operator, err)
	}
	return bson.D{{Key: stage.Operator, Value: body}}, nil
}
