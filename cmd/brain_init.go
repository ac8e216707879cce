package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brainmesh/brain/pkg/config"
	"github.com/brainmesh/brain/pkg/fileutil"
)

var (
	brainInitID          string
	brainInitDescription string
	brainInitExport      []string
)

var brainInitCmd = &cobra.Command{
	Use:   "brain-init",
	Short: "Write a new .brain manifest in the working directory",
	Long: `Initialize the current directory as a brain: write a .brain file
declaring its id and the paths it exports.

Each --export flag takes pattern=permission, where permission is
readonly or readwrite, e.g. --export "libs/**=readwrite".`,
	Example: `  brain brain-init --id my-brain --export "libs/**=readwrite"
  brain brain-init --id my-brain --description "shared libs" --export "libs/**=readonly" --export "docs/**=readwrite"`,
	RunE: runBrainInit,
}

func init() {
	rootCmd.AddCommand(brainInitCmd)

	brainInitCmd.Flags().StringVar(&brainInitID, "id", "", "unique identifier for this brain (required)")
	brainInitCmd.Flags().StringVar(&brainInitDescription, "description", "", "free-text description")
	brainInitCmd.Flags().StringArrayVar(&brainInitExport, "export", nil, "pattern=permission, repeatable")
	_ = brainInitCmd.MarkFlagRequired("id")
}

func runBrainInit(cmd *cobra.Command, args []string) error {
	path := config.BrainManifestPath(".")
	if fileutil.FileExists(path) {
		return fmt.Errorf("%s already exists", path)
	}

	export, err := parseExportFlags(brainInitExport)
	if err != nil {
		return err
	}
	if len(export) == 0 {
		return fmt.Errorf("at least one --export entry is required")
	}

	manifest := config.NewBrainManifest(brainInitID, brainInitDescription, export)
	if err := config.SaveBrain(manifest, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Printf("OK: wrote %s for brain %q\n", path, brainInitID)
	return nil
}

func parseExportFlags(raw []string) ([]config.ExportEntry, error) {
	var out []config.ExportEntry
	for _, r := range raw {
		pattern, perm, ok := strings.Cut(r, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --export %q, want pattern=permission", r)
		}
		permission := config.Permission(strings.ToLower(strings.TrimSpace(perm)))
		if permission != config.PermReadonly && permission != config.PermReadwrite {
			return nil, fmt.Errorf("invalid permission %q in --export %q, want readonly or readwrite", perm, r)
		}
		out = append(out, config.ExportEntry{Pattern: strings.TrimSpace(pattern), Permission: permission})
	}
	return out, nil
}
