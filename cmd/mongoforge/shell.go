package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwoolworth/mongoforge/shell"
)

var (
	shellURI     string
	shellDB      string
	shellRuntime string
	shellCode    string
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Evaluate one snippet of scripting-shell code through the runtime bridge",
	Long:  "Starts the configured scripting runtime, opens a session against uri/db, evaluates code once, prints any print events it emits, and tears the session down.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if shellCode == "" {
			return fmt.Errorf("--code is required")
		}

		parts := strings.Fields(shellRuntime)
		if len(parts) == 0 {
			return fmt.Errorf("--runtime must name a command to run")
		}
		bridge := shell.NewBridge(parts[0], parts[1:]...)
		if err := bridge.Start(); err != nil {
			return err
		}
		defer bridge.Stop()

		var lines []string
		unsubscribe := bridge.Subscribe(func(ev shell.Event) {
			switch ev.Event {
			case "print":
				lines = append(lines, ev.Lines...)
				if len(ev.Payload) > 0 {
					lines = append(lines, string(ev.Payload))
				}
			case "clear":
				lines = nil
			}
		})
		defer unsubscribe()

		sessionID := shell.NewSessionID()
		ctx := context.Background()
		if err := bridge.CreateSession(ctx, sessionID, shellURI, shellDB); err != nil {
			return err
		}
		defer bridge.DisposeSession(ctx, sessionID)

		runID := shell.NewRunID()
		if err := bridge.Evaluate(ctx, sessionID, shellCode, runID); err != nil {
			return err
		}

		// Events arrive asynchronously; give the runtime a brief window to
		// emit before tearing the session down.
		time.Sleep(200 * time.Millisecond)

		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	shellCmd.Flags().StringVar(&shellURI, "uri", "mongodb://localhost:27017", "MongoDB connection URI for the session")
	shellCmd.Flags().StringVar(&shellDB, "db", "", "database name for the session")
	shellCmd.Flags().StringVar(&shellRuntime, "runtime", "", "scripting runtime command to launch, e.g. \"mongoforge-shell-runtime\"")
	shellCmd.Flags().StringVar(&shellCode, "code", "", "code to evaluate once the session is open")
	_ = shellCmd.MarkFlagRequired("db")
	_ = shellCmd.MarkFlagRequired("runtime")
	_ = shellCmd.MarkFlagRequired("code")
}
