package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/navlab-tools/habctl/internal/store"
)

var runsLimit int

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the local run history",
}

// runsListCmd represents the runs list command
var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

// runsShowCmd represents the runs show command
var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run including its full command line",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs to list")
}

func openHistoryStrict() (store.Store, error) {
	s := currentSettings()
	if s.StorePath == "" {
		return nil, fmt.Errorf("run history is disabled (store.path is empty)")
	}
	return store.NewSQLiteStore(s.StorePath)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	history, err := openHistoryStrict()
	if err != nil {
		return err
	}
	defer history.Close()

	runs, err := history.ListRuns(runsLimit)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(runs)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Kind", "Status", "Exit", "Started", "Duration")
	for _, run := range runs {
		table.Append(
			shortID(run.ID),
			run.Kind,
			string(run.Status),
			fmt.Sprintf("%d", run.ExitCode),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			(time.Duration(run.DurationMS) * time.Millisecond).String(),
		)
	}
	table.Render()
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	history, err := openHistoryStrict()
	if err != nil {
		return err
	}
	defer history.Close()

	run, err := history.GetRun(args[0])
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(run)
	}

	fmt.Printf("ID:        %s\n", run.ID)
	fmt.Printf("Kind:      %s\n", run.Kind)
	fmt.Printf("Status:    %s\n", run.Status)
	fmt.Printf("Exit code: %d\n", run.ExitCode)
	fmt.Printf("Env:       %s\n", run.Env)
	fmt.Printf("Workdir:   %s\n", run.Workdir)
	fmt.Printf("Started:   %s\n", run.StartedAt.Local().Format(time.RFC3339))
	if run.CompletedAt != nil {
		fmt.Printf("Completed: %s\n", run.CompletedAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("Command:   %s\n", strings.Join(run.Argv, " "))
	if run.Error != "" {
		fmt.Printf("Error:     %s\n", run.Error)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
