package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brainmesh/brain/pkg/baseline"
	"github.com/brainmesh/brain/pkg/config"
)

var removeNeuronDelete bool

var removeNeuronCmd = &cobra.Command{
	Use:   "remove-neuron <destination>",
	Short: "Drop a mapping from .neurons",
	Long: `Remove the mapping whose destination matches the given path and
its Baseline entry. The materialized file or directory is left in
place unless --delete is given.`,
	Example: `  brain remove-neuron app/strings.py
  brain remove-neuron app/utils/ --delete`,
	Args: cobra.ExactArgs(1),
	RunE: runRemoveNeuron,
}

func init() {
	rootCmd.AddCommand(removeNeuronCmd)
	removeNeuronCmd.Flags().BoolVar(&removeNeuronDelete, "delete", false, "also remove the destination from the working tree")
}

func runRemoveNeuron(cmd *cobra.Command, args []string) error {
	destination := args[0]
	path := config.ConsumerManifestPath(".")

	manifest, err := config.LoadConsumer(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	mapping, ok := manifest.MappingByDestination(destination)
	if !ok {
		return fmt.Errorf("no mapping with destination %q", destination)
	}
	manifest.RemoveMapping(destination)

	if err := config.SaveConsumer(manifest, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	baselinePath, err := config.BaselinePath(".")
	if err != nil {
		return fmt.Errorf("resolve baseline path: %w", err)
	}
	bl, err := baseline.Load(baselinePath)
	if err != nil {
		return fmt.Errorf("load baseline: %w", err)
	}
	if mapping.Kind == config.KindDir {
		prefix := strings.TrimSuffix(destination, "/") + "/"
		for key := range bl.Entries {
			if strings.HasPrefix(key, prefix) {
				bl.Remove(key)
			}
		}
	} else {
		bl.Remove(destination)
	}
	if err := baseline.Save(bl, baselinePath); err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}

	if removeNeuronDelete {
		if err := os.RemoveAll(filepath.Join(".", destination)); err != nil {
			return fmt.Errorf("delete %s: %w", destination, err)
		}
		fmt.Printf("OK: removed mapping and deleted %s\n", destination)
	} else {
		fmt.Printf("OK: removed mapping for %s (left on disk)\n", destination)
	}

	return nil
}
