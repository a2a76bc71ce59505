package aggregation

import (
	"context"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dwoolworth/mongoforge/apperr"
)

// StageStatsMode controls whether the per-stage replay pass runs at all;
// it is expensive on large collections so the UI lets it be turned off.
type StageStatsMode int

const (
	StageStatsOff StageStatsMode = iota
	StageStatsOn
)

// Result is what a completed Run produces: the base count, one row per
// replayed stage, the real paged results, and total elapsed time.
type Result struct {
	BaseCount     int64
	StageCounts   []StageDocCount
	Results       []bson.D
	LastRunTimeMs int64
}

// AggregationState is the aggregation tab's full mutable state: the stage
// list, preview cursor, results, per-stage stats and the generation used
// to discard stale completions.
type AggregationState struct {
	Stages         []PipelineStage
	SelectedStage  *int
	StageStatsMode StageStatsMode

	ResultsPage int
	ResultLimit int64

	Results       []bson.D
	StageDocCounts []StageDocCount
	Loading       bool
	Error         string
	LastRunTimeMs int64

	RequestID uint64

	runGeneration atomic.Uint64
}

// NewAggregationState returns a state with a sane default page size.
func NewAggregationState() *AggregationState {
	return &AggregationState{ResultLimit: 50}
}

// BeginRun bumps the run generation, marking any in-flight run stale, and
// returns the new generation for the caller to stamp into its snapshot.
func (s *AggregationState) BeginRun() uint64 {
	return s.runGeneration.Add(1)
}

// IsCurrent reports whether generation is still the most recent one
// started, i.e. whether a completion stamped with it should be applied.
func (s *AggregationState) IsCurrent(generation uint64) bool {
	return s.runGeneration.Load() == generation
}

// Executor runs the three-step aggregation algorithm against a live
// collection.
type Executor struct{}

// NewExecutor returns an Executor. It is stateless; the generation guard
// lives on AggregationState instead so multiple concurrent runs across
// different sessions never interfere.
func NewExecutor() *Executor { return &Executor{} }

// enabledStages returns the stage documents for the stages to use, honoring
// both Enabled and, when set, SelectedStage (use only stages 0..=selected).
func enabledStages(state *AggregationState) ([]bson.D, error) {
	limit := len(state.Stages)
	if state.SelectedStage != nil && *state.SelectedStage+1 < limit {
		limit = *state.SelectedStage + 1
	}
	var docs []bson.D
	for i := 0; i < limit; i++ {
		st := state.Stages[i]
		if !st.Enabled {
			continue
		}
		doc, err := BuildStageDoc(st)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Run executes the base-count, per-stage replay and real-run steps against
// coll using state's current stage list, selected stage and paging.
func (e *Executor) Run(ctx context.Context, state *AggregationState, coll *mongo.Collection) (*Result, error) {
	started := time.Now()

	baseCount, err := runCount(ctx, coll, nil)
	if err != nil {
		return nil, err
	}

	limit := len(state.Stages)
	if state.SelectedStage != nil && *state.SelectedStage+1 < limit {
		limit = *state.SelectedStage + 1
	}

	var stageCounts []StageDocCount
	if state.StageStatsMode == StageStatsOn {
		var prefix []bson.D
		prevOutput := baseCount
		for i := 0; i < limit; i++ {
			st := state.Stages[i]
			input := prevOutput
			if !st.Enabled {
				stageCounts = append(stageCounts, StageDocCount{Stage: i, Input: input, Output: input, TimeMs: 0})
				continue
			}
			doc, err := BuildStageDoc(st)
			if err != nil {
				return nil, err
			}
			prefix = append(prefix, doc)
			stageStart := time.Now()
			count, err := runCount(ctx, coll, prefix)
			if err != nil {
				return nil, err
			}
			elapsed := time.Since(stageStart).Milliseconds()
			stageCounts = append(stageCounts, StageDocCount{Stage: i, Input: input, Output: count, TimeMs: elapsed})
			prevOutput = count
		}
	}

	docs, err := enabledStages(state)
	if err != nil {
		return nil, err
	}

	perPage := state.ResultLimit
	if perPage <= 0 {
		perPage = 50
	}
	realPipeline := append(append([]bson.D{}, docs...),
		bson.D{{Key: "$skip", Value: int64(state.ResultsPage) * perPage}},
		bson.D{{Key: "$limit", Value: perPage}},
	)

	cursor, err := coll.Aggregate(ctx, realPipeline)
	if err != nil {
		return nil, apperr.Wrap(apperr.Driver, "aggregation run failed", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var results []bson.D
	if err := cursor.All(ctx, &results); err != nil {
		return nil, apperr.Wrap(apperr.Driver, "aggregation decode failed", err)
	}

	return &Result{
		BaseCount:     baseCount,
		StageCounts:   stageCounts,
		Results:       results,
		LastRunTimeMs: time.Since(started).Milliseconds(),
	}, nil
}

func runCount(ctx context.Context, coll *mongo.Collection, prefix []bson.D) (int64, error) {
	pipeline := append(append([]bson.D{}, prefix...), bson.D{{Key: "$count", Value: "k"}})
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, apperr.Wrap(apperr.Driver, "count stage failed", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var rows []bson.M
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, apperr.Wrap(apperr.Driver, "count decode failed", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	switch v := rows[0]["k"].(type) {
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, nil
	}
}
