package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shufflebench/internal/ui"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived runs",
	Args:  cobra.NoArgs,
	RunE:  runListRuns,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete archived runs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDeleteRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	runsCmd.Flags().Int("limit", 20, "Maximum number of runs to show, 0 for all")
	addStoreFlags(runsCmd)
	addStoreFlags(runsDeleteCmd)
}

func runListRuns(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No archived runs.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.RunsTable(runs))
	return nil
}

func runDeleteRuns(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, id := range args {
		if err := store.DeleteRun(id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
	}
	return nil
}
