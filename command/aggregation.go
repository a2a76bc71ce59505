package command

import (
	"context"

	"github.com/dwoolworth/mongoforge/aggregation"
	"github.com/dwoolworth/mongoforge/state"
)

// RunAggregation runs the aggregation pipeline currently configured on the
// session's AggregationState against the live collection, following the
// five-step contract: snapshot + bump run_generation, flip Loading, run,
// then reapply only if still the current generation.
func RunAggregation(ctx context.Context, d Deps, key state.SessionKey) error {
	sess := d.Store.Session(key)
	if sess.Data.Aggregation == nil {
		sess.Data.Aggregation = aggregation.NewAggregationState()
	}
	agg := sess.Data.Aggregation
	generation := agg.BeginRun()
	agg.Loading = true
	agg.Error = ""

	op := &OpInfo{Operation: OpAggregation, ConnID: string(key.ConnID), Database: key.Database, Collection: key.Collection}
	return runMiddleware(ctx, op, func(ctx context.Context) error {
		coll, err := d.Manager.Collection(key.ConnID, key.Database, key.Collection)
		if err != nil {
			if !agg.IsCurrent(generation) {
				return nil
			}
			agg.Loading = false
			agg.Error = err.Error()
			d.Store.Emit(state.AggregationFailed{Session: key, Err: err})
			return err
		}

		exec := aggregation.NewExecutor()
		result, err := exec.Run(ctx, agg, coll)
		if !agg.IsCurrent(generation) {
			return nil // a newer run started; discard this completion
		}
		agg.Loading = false
		if err != nil {
			agg.Error = err.Error()
			d.Store.Emit(state.AggregationFailed{Session: key, Err: err})
			return err
		}
		agg.Results = result.Results
		agg.StageDocCounts = result.StageCounts
		agg.LastRunTimeMs = result.LastRunTimeMs
		d.Store.Emit(state.AggregationCompleted{Session: key})
		return nil
	})
}
