package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwoolworth/mongoforge/bsonutil"
	"github.com/dwoolworth/mongoforge/connection"
)

var (
	queryURI        string
	queryDB         string
	queryCollection string
	queryFilter     string
	querySort       string
	queryProjection string
	queryLimit      int64
	querySkip       int64
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Find documents in a collection and print them as extended JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := buildFindQuery()
		if err != nil {
			return err
		}

		mgr, id, cleanup, err := oneShotConnect(queryURI)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		docs, total, err := mgr.FindDocuments(ctx, id, queryDB, queryCollection, q)
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
		fmt.Printf("# %d of %d total\n", len(docs), total)
		return nil
	},
}

func buildFindQuery() (connection.FindQuery, error) {
	var q connection.FindQuery
	if queryFilter != "" {
		doc, err := bsonutil.ParseDocumentFromJSON(queryFilter)
		if err != nil {
			return q, fmt.Errorf("parse filter: %w", err)
		}
		q.Filter = doc
	}
	if querySort != "" {
		doc, err := bsonutil.ParseDocumentFromJSON(querySort)
		if err != nil {
			return q, fmt.Errorf("parse sort: %w", err)
		}
		q.Sort = doc
	}
	if queryProjection != "" {
		doc, err := bsonutil.ParseDocumentFromJSON(queryProjection)
		if err != nil {
			return q, fmt.Errorf("parse projection: %w", err)
		}
		q.Projection = doc
	}
	q.Limit = queryLimit
	q.Skip = querySkip
	return q, nil
}

func init() {
	queryCmd.Flags().StringVar(&queryURI, "uri", "mongodb://localhost:27017", "MongoDB connection URI")
	queryCmd.Flags().StringVar(&queryDB, "db", "", "database name")
	queryCmd.Flags().StringVar(&queryCollection, "collection", "", "collection name")
	queryCmd.Flags().StringVar(&queryFilter, "filter", "", "extended JSON filter, e.g. {\"status\":\"active\"}")
	queryCmd.Flags().StringVar(&querySort, "sort", "", "extended JSON sort spec")
	queryCmd.Flags().StringVar(&queryProjection, "projection", "", "extended JSON projection spec")
	queryCmd.Flags().Int64Var(&queryLimit, "limit", 20, "maximum documents to return")
	queryCmd.Flags().Int64Var(&querySkip, "skip", 0, "documents to skip")
	_ = queryCmd.MarkFlagRequired("db")
	_ = queryCmd.MarkFlagRequired("collection")
}
