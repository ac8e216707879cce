package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brainmesh/brain/pkg/baseline"
	"github.com/brainmesh/brain/pkg/config"
	"github.com/brainmesh/brain/pkg/exporter"
)

var exportForce bool
var exportDebugLog bool

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Write a local edit back to its brain",
	Long: `Export copies the consumer's file at path into the brain it is
mapped from, subject to the brain's EXPORT permission and
UPDATE_POLICY.PROTECTED_PATHS, then commits and pushes.

--force bypasses the PROTECTED_PATHS check; it never bypasses a
readonly EXPORT permission. Every bypass is logged as a warning.`,
	Example: `  brain export app/strings.py
  brain export app/strings.py --force`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().BoolVar(&exportForce, "force", false, "bypass PROTECTED_PATHS (never bypasses a readonly permission)")
	exportCmd.Flags().BoolVar(&exportDebugLog, "debug", false, "log at debug level")
}

func runExport(cmd *cobra.Command, args []string) error {
	localPath := args[0]

	if err := requireGitRepo("."); err != nil {
		return err
	}

	baselinePath, err := config.BaselinePath(".")
	if err != nil {
		return fmt.Errorf("resolve baseline path: %w", err)
	}
	bl, err := baseline.Load(baselinePath)
	if err != nil {
		return fmt.Errorf("load baseline: %w", err)
	}

	res, err := exporter.Export(".", localPath, exportForce, bl, buildConsoleLogger(exportDebugLog))
	if err != nil {
		fmt.Fprintf(os.Stderr, "export %s: %v\n", localPath, err)
		os.Exit(1)
	}

	if err := baseline.Save(bl, baselinePath); err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}

	fmt.Printf("OK: exported %s -> %s and pushed\n", res.Destination, res.BrainSource)
	return nil
}
