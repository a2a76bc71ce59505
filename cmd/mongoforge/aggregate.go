package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwoolworth/mongoforge/aggregation"
	"github.com/dwoolworth/mongoforge/bsonutil"
)

var (
	aggregateURI        string
	aggregateDB         string
	aggregateCollection string
	aggregatePipeline   string
	aggregateLimit      int64
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Run an aggregation pipeline and print the results as extended JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := pipelineSource(aggregatePipeline)
		if err != nil {
			return err
		}
		stages, err := bsonutil.ParseDocumentsFromJSON(raw)
		if err != nil {
			return fmt.Errorf("parse pipeline: %w", err)
		}

		mgr, id, cleanup, err := oneShotConnect(aggregateURI)
		if err != nil {
			return err
		}
		defer cleanup()

		coll, err := mgr.Collection(id, aggregateDB, aggregateCollection)
		if err != nil {
			return err
		}

		pipeline := aggregation.NewPipeline()
		for _, stage := range stages {
			pipeline.Stage(stage)
		}
		if aggregateLimit > 0 {
			pipeline.Limit(aggregateLimit)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		docs, err := pipeline.Execute(ctx, coll)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			text, err := bsonutil.ToRelaxedJSON(doc)
			if err != nil {
				return err
			}
			fmt.Println(text)
		}
		return nil
	},
}

// pipelineSource reads the pipeline JSON from a file when raw looks like a
// path (doesn't start with '['), otherwise treats it as inline JSON.
func pipelineSource(raw string) (string, error) {
	if len(raw) > 0 && raw[0] == '[' {
		return raw, nil
	}
	data, err := os.ReadFile(raw)
	if err != nil {
		return "", fmt.Errorf("read pipeline file: %w", err)
	}
	return string(data), nil
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateURI, "uri", "mongodb://localhost:27017", "MongoDB connection URI")
	aggregateCmd.Flags().StringVar(&aggregateDB, "db", "", "database name")
	aggregateCmd.Flags().StringVar(&aggregateCollection, "collection", "", "collection name")
	aggregateCmd.Flags().StringVar(&aggregatePipeline, "pipeline", "", "inline JSON array of stages, or a path to a file containing one")
	aggregateCmd.Flags().Int64Var(&aggregateLimit, "limit", 0, "limit appended as a final stage when > 0")
	_ = aggregateCmd.MarkFlagRequired("db")
	_ = aggregateCmd.MarkFlagRequired("collection")
	_ = aggregateCmd.MarkFlagRequired("pipeline")
}
