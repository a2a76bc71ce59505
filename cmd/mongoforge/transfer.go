package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwoolworth/mongoforge/connection"
	"github.com/dwoolworth/mongoforge/transfer"
)

var (
	exportURI        string
	exportDB         string
	exportCollection string
	exportFile       string
	exportFormat     string
	exportCompress   bool

	importURI        string
	importDB         string
	importCollection string
	importFile       string
	importFormat     string
	importMode       string

	copySrcURI  string
	copySrcDB   string
	copySrcColl string
	copyDstURI  string
	copyDstDB   string
	copyDstColl string
	copyIndexes bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a collection to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := parseFormat(exportFormat)
		if err != nil {
			return err
		}

		mgr, id, cleanup, err := oneShotConnect(exportURI)
		if err != nil {
			return err
		}
		defer cleanup()

		f, err := os.Create(exportFile)
		if err != nil {
			return err
		}
		defer f.Close()

		opts := transfer.Options{Format: format, Compression: exportCompress}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		n, err := transfer.Export(ctx, mgr, id, exportDB, exportCollection, connection.FindQuery{}, opts, f, transfer.NewCancelToken())
		if err != nil {
			return err
		}
		fmt.Printf("exported %d documents to %s\n", n, exportFile)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a file into a collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := parseFormat(importFormat)
		if err != nil {
			return err
		}
		mode, err := parseInsertMode(importMode)
		if err != nil {
			return err
		}

		mgr, id, cleanup, err := oneShotConnect(importURI)
		if err != nil {
			return err
		}
		defer cleanup()

		f, err := os.Open(importFile)
		if err != nil {
			return err
		}
		defer f.Close()

		opts := transfer.Options{Format: format, InsertMode: mode}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		result, err := transfer.Import(ctx, mgr, id, importDB, importCollection, f, opts, transfer.NewCancelToken())
		if err != nil {
			return err
		}
		fmt.Printf("imported %d documents into %s.%s\n", result.Processed, importDB, importCollection)
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  warning: %s\n", e)
		}
		return nil
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy a collection to another connection/database/collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		// CopyCollection resolves both ends through a single Manager, so a
		// cross-server copy needs both the source and destination URI
		// registered under distinct connection ids in the same Manager.
		dstURI := copyDstURI
		if dstURI == "" {
			dstURI = copySrcURI
		}

		mgr := connection.NewManager()
		ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
		if _, err := mgr.Connect(ctx, connection.Profile{ID: "src", URI: copySrcURI}); err != nil {
			cancel()
			return err
		}
		if _, err := mgr.Connect(ctx, connection.Profile{ID: "dst", URI: dstURI}); err != nil {
			cancel()
			return err
		}
		cancel()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
			defer cancel()
			_ = mgr.Disconnect(ctx, "src")
			_ = mgr.Disconnect(ctx, "dst")
		}()

		opts := transfer.Options{CopyIndexes: copyIndexes}
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		n, err := transfer.CopyCollection(ctx, mgr, "src", copySrcDB, copySrcColl, "dst", copyDstDB, copyDstColl, opts, transfer.NewCancelToken(), nil)
		if err != nil {
			return err
		}
		fmt.Printf("copied %d documents to %s.%s\n", n, copyDstDB, copyDstColl)
		return nil
	},
}

func parseFormat(s string) (transfer.Format, error) {
	switch s {
	case "jsonl", "":
		return transfer.FormatJSONLines, nil
	case "json":
		return transfer.FormatJSONArray, nil
	case "csv":
		return transfer.FormatCSV, nil
	case "dump":
		return transfer.FormatDump, nil
	default:
		return 0, fmt.Errorf("unknown format %q (want jsonl, json, csv, or dump)", s)
	}
}

func parseInsertMode(s string) (transfer.InsertMode, error) {
	switch s {
	case "insert", "":
		return transfer.InsertModeInsert, nil
	case "upsert":
		return transfer.InsertModeUpsert, nil
	case "replace":
		return transfer.InsertModeReplace, nil
	default:
		return 0, fmt.Errorf("unknown insert mode %q (want insert, upsert, or replace)", s)
	}
}

func init() {
	exportCmd.Flags().StringVar(&exportURI, "uri", "mongodb://localhost:27017", "MongoDB connection URI")
	exportCmd.Flags().StringVar(&exportDB, "db", "", "database name")
	exportCmd.Flags().StringVar(&exportCollection, "collection", "", "collection name")
	exportCmd.Flags().StringVar(&exportFile, "out", "", "output file path")
	exportCmd.Flags().StringVar(&exportFormat, "format", "jsonl", "jsonl, json, csv, or dump")
	exportCmd.Flags().BoolVar(&exportCompress, "gzip", false, "gzip-compress the output")
	_ = exportCmd.MarkFlagRequired("db")
	_ = exportCmd.MarkFlagRequired("collection")
	_ = exportCmd.MarkFlagRequired("out")

	importCmd.Flags().StringVar(&importURI, "uri", "mongodb://localhost:27017", "MongoDB connection URI")
	importCmd.Flags().StringVar(&importDB, "db", "", "database name")
	importCmd.Flags().StringVar(&importCollection, "collection", "", "collection name")
	importCmd.Flags().StringVar(&importFile, "file", "", "input file path")
	importCmd.Flags().StringVar(&importFormat, "format", "jsonl", "jsonl, json, or csv")
	importCmd.Flags().StringVar(&importMode, "mode", "insert", "insert, upsert, or replace")
	_ = importCmd.MarkFlagRequired("db")
	_ = importCmd.MarkFlagRequired("collection")
	_ = importCmd.MarkFlagRequired("file")

	copyCmd.Flags().StringVar(&copySrcURI, "src-uri", "mongodb://localhost:27017", "source connection URI")
	copyCmd.Flags().StringVar(&copySrcDB, "src-db", "", "source database")
	copyCmd.Flags().StringVar(&copySrcColl, "src-collection", "", "source collection")
	copyCmd.Flags().StringVar(&copyDstURI, "dst-uri", "", "destination connection URI (defaults to src-uri)")
	copyCmd.Flags().StringVar(&copyDstDB, "dst-db", "", "destination database")
	copyCmd.Flags().StringVar(&copyDstColl, "dst-collection", "", "destination collection")
	copyCmd.Flags().BoolVar(&copyIndexes, "copy-indexes", false, "also copy non-_id indexes")
	_ = copyCmd.MarkFlagRequired("src-db")
	_ = copyCmd.MarkFlagRequired("src-collection")
	_ = copyCmd.MarkFlagRequired("dst-db")
	_ = copyCmd.MarkFlagRequired("dst-collection")
}
