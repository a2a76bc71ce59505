package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	browseURI string
	browseDB  string
)

var databasesCmd = &cobra.Command{
	Use:   "databases",
	Short: "List the databases visible on a connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, id, cleanup, err := oneShotConnect(browseURI)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
		defer cancel()

		names, err := mgr.ListDatabases(ctx, id)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the collections in a database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if browseDB == "" {
			return fmt.Errorf("--db is required")
		}
		mgr, id, cleanup, err := oneShotConnect(browseURI)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
		defer cancel()

		names, err := mgr.ListCollections(ctx, id, browseDB)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{databasesCmd, collectionsCmd} {
		cmd.Flags().StringVar(&browseURI, "uri", "mongodb://localhost:27017", "MongoDB connection URI")
	}
	collectionsCmd.Flags().StringVar(&browseDB, "db", "", "database name")
}
