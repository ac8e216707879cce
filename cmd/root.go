package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = buildVersion()
}

// buildVersion constructs a detailed version string
func buildVersion() string {
	result := version
	if commit != "unknown" {
		result += fmt.Sprintf(" (commit: %s)", commit)
	}
	if date != "unknown" {
		result += fmt.Sprintf(" (built: %s)", date)
	}
	return result
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "brain",
	Short: "Share files and directories between repositories",
	Long: `git-brain lets many consumer repositories share selected files and
directories ("neurons") hosted in a separate repository (a "brain").

A consumer declares brain_id::source::destination mappings in a
.neurons file at its root. Syncing fetches the brain at its pinned
branch, materializes only the requested paths, detects local
divergence against the last sync, resolves conflicts per policy, and
merges dependency manifests (requirements.txt). Edits can be exported
back to the brain where the brain's .brain file grants write access.

Commands that aren't about the core sync engine (status, pull, push,
clone, checkout, init) pass straight through to git; pull and clone
additionally trigger a sync when the resulting working tree has
AUTO_SYNC_ON_PULL enabled.`,
	Version: buildVersion(),
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
