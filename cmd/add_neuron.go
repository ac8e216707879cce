package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brainmesh/brain/pkg/config"
	"github.com/brainmesh/brain/pkg/orchestrator"
)

var addNeuronCmd = &cobra.Command{
	Use:   "add-neuron <brain_id::source::destination>",
	Short: "Add a mapping and materialize it immediately",
	Long: `Append a mapping to .neurons and run a single sync for it.

The mapping grammar is brain_id::source::destination. A trailing slash
on both source and destination declares a directory mapping.`,
	Example: `  brain add-neuron shared-libs::libs/strings.py::app/strings.py
  brain add-neuron shared-libs::libs/utils/::app/utils/`,
	Args: cobra.ExactArgs(1),
	RunE: runAddNeuron,
}

func init() {
	rootCmd.AddCommand(addNeuronCmd)
}

func runAddNeuron(cmd *cobra.Command, args []string) error {
	raw := args[0]
	path := config.ConsumerManifestPath(".")

	manifest, err := config.LoadConsumer(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	entry, err := manifest.AddMapping(raw, raw)
	if err != nil {
		return fmt.Errorf("add mapping: %w", err)
	}
	// Use the destination as the durable map key rather than the raw
	// triple: it is already guaranteed unique and reads better in
	// .neurons than a repeated brain_id::source::destination string.
	manifest.Map[len(manifest.Map)-1].Key = entry.Destination

	if err := config.SaveConsumer(manifest, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	res, err := orchestrator.SyncOneByDestination(context.Background(), ".", entry.Destination, orchestrator.Options{})
	if err != nil {
		return fmt.Errorf("materialize %s: %w", entry.Destination, err)
	}

	fmt.Printf("OK: added neuron %q\n", entry.Destination)
	printSyncResult(res)
	return nil
}
