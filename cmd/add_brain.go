package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brainmesh/brain/pkg/config"
	"github.com/brainmesh/brain/pkg/external"
)

var addBrainCmd = &cobra.Command{
	Use:   "add-brain <id> <remote-url> [branch]",
	Short: "Register a brain with the consumer's .neurons file",
	Long: `Append or update a [BRAIN:<id>] entry in .neurons, pointing at
remote-url pinned to branch (default "main").

Creates .neurons in the current directory if it does not exist yet.`,
	Example: `  brain add-brain shared-libs git@github.com:org/shared-libs.git
  brain add-brain shared-libs git@github.com:org/shared-libs.git develop`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runAddBrain,
}

func init() {
	rootCmd.AddCommand(addBrainCmd)
}

func runAddBrain(cmd *cobra.Command, args []string) error {
	id, remote := args[0], args[1]
	branch := "main"
	if len(args) == 3 {
		branch = args[2]
	}

	if err := external.VerifyRemote(remote); err != nil {
		return fmt.Errorf("remote %s is not reachable: %w", remote, err)
	}

	manifest, path, err := loadOrCreateConsumerManifest()
	if err != nil {
		return err
	}

	manifest.AddOrUpdateBrain(id, remote, branch)

	if err := config.SaveConsumer(manifest, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	fmt.Printf("OK: registered brain %q (%s@%s)\n", id, remote, branch)
	return nil
}

// loadOrCreateConsumerManifest loads .neurons from the current
// directory, or returns a fresh manifest if none exists yet.
func loadOrCreateConsumerManifest() (*config.ConsumerManifest, string, error) {
	path := config.ConsumerManifestPath(".")
	manifest, err := config.LoadConsumer(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config.NewConsumerManifest(), path, nil
		}
		return nil, "", fmt.Errorf("load %s: %w", path, err)
	}
	return manifest, path, nil
}
