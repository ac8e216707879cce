package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brainmesh/brain/pkg/materializer"
	"github.com/brainmesh/brain/pkg/orchestrator"
)

var syncVerboseLog bool

var syncCmd = &cobra.Command{
	Use:   "sync [destination]",
	Short: "Fetch brains and materialize neurons",
	Long: `Run the sync engine: fetch every brain referenced by .neurons,
materialize each mapping's source into its destination, resolve
conflicts per SYNC_POLICY, and merge dependency manifests.

With a destination argument, sync only the mapping for that
destination instead of the whole .neurons file.`,
	Example: `  brain sync                  # sync every mapping
  brain sync app/strings.py   # sync a single mapping`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&syncVerboseLog, "debug", false, "log at debug level")
}

func runSync(cmd *cobra.Command, args []string) error {
	if err := requireGitRepo("."); err != nil {
		return err
	}

	opts := orchestrator.Options{Logger: buildConsoleLogger(syncVerboseLog)}

	if len(args) == 1 {
		res, err := orchestrator.SyncOneByDestination(context.Background(), ".", args[0], opts)
		if err != nil {
			return err
		}
		printSyncResult(res)
		if res.Status == materializer.StatusError {
			os.Exit(1)
		}
		return nil
	}

	results, err := orchestrator.SyncAll(context.Background(), ".", opts)
	if err != nil && len(results) == 0 {
		return err
	}

	failed := false
	for _, res := range results {
		printSyncResult(res)
		if res.Status == materializer.StatusError {
			failed = true
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "sync: %v\n", err)
		failed = true
	}
	if failed {
		os.Exit(1)
	}
	return nil
}
