package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brainmesh/brain/pkg/api"
)

var listVerbose bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Enumerate the mappings in .neurons",
	Long: `List every mapping declared in .neurons: its brain, source, and
destination. With --verbose, also show whether each destination has a
recorded baseline and whether it has diverged locally since.`,
	Example: `  brain list            # Simple list
  brain list --verbose  # Include baseline state`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVarP(&listVerbose, "verbose", "v", false, "show baseline state per mapping")
}

func runList(cmd *cobra.Command, args []string) error {
	statuses, err := api.ComputeStatuses(".")
	if err != nil {
		return fmt.Errorf("compute mapping status: %w", err)
	}

	if len(statuses) == 0 {
		fmt.Println("No neurons mapped. Use 'brain add-neuron <brain_id::source::destination>' to add one.")
		return nil
	}

	for _, s := range statuses {
		kind := "file"
		if s.Kind == "dir" {
			kind = "dir"
		}
		if !listVerbose {
			fmt.Printf("  %-30s <- %s::%s (%s)\n", s.Destination, s.BrainID, s.Source, kind)
			continue
		}

		state := "unsynced"
		switch {
		case !s.DestinationOK:
			state = "missing"
		case s.LocalChanged:
			state = "locally modified"
		case s.HasBaseline:
			state = "in sync"
		}

		fmt.Printf("  %-30s <- %s::%s (%s)\n", s.Destination, s.BrainID, s.Source, kind)
		fmt.Printf("      state: %-18s baseline commit: %s\n", state, shortCommit(s.BrainCommit))
	}

	return nil
}

func shortCommit(commit string) string {
	if commit == "" {
		return "(none)"
	}
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
