// Command mongoforge is a headless CLI front end over the workbench
// engine: connect, browse, transfer, and run aggregations against MongoDB
// without the desktop UI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mongoforge",
	Short: "mongoforge — a MongoDB workbench engine, driven from the command line",
	Long:  "Connection management, transfers, and aggregation execution for MongoDB, usable standalone or as the backend for a desktop workbench.",
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(databasesCmd)
	rootCmd.AddCommand(collectionsCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(shellCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
