package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brainmesh/brain/pkg/external"
	"github.com/brainmesh/brain/pkg/orchestrator"
)

// These commands are thin wrappers around the host git tool: the sync
// engine only needs to know about them to run its post-hooks (pull,
// clone) after the underlying git operation succeeds.

var statusCmd = &cobra.Command{
	Use:                "status [git-args...]",
	Short:              "git status, unchanged",
	DisableFlagParsing: true,
	RunE:               runPassthrough("status"),
}

var pullCmd = &cobra.Command{
	Use:                "pull [git-args...]",
	Short:              "git pull, then sync if AUTO_SYNC_ON_PULL is set",
	DisableFlagParsing: true,
	RunE:               runPullOrClone("pull"),
}

var pushCmd = &cobra.Command{
	Use:                "push [git-args...]",
	Short:              "git push, unchanged",
	DisableFlagParsing: true,
	RunE:               runPassthrough("push"),
}

var cloneCmd = &cobra.Command{
	Use:                "clone [git-args...]",
	Short:              "git clone, then sync the result if AUTO_SYNC_ON_PULL is set",
	DisableFlagParsing: true,
	RunE:               runClone,
}

var checkoutCmd = &cobra.Command{
	Use:                "checkout [git-args...]",
	Short:              "git checkout, unchanged",
	DisableFlagParsing: true,
	RunE:               runPassthrough("checkout"),
}

var initCmd = &cobra.Command{
	Use:                "init [git-args...]",
	Short:              "git init, unchanged",
	DisableFlagParsing: true,
	RunE:               runPassthrough("init"),
}

func init() {
	rootCmd.AddCommand(statusCmd, pullCmd, pushCmd, cloneCmd, checkoutCmd, initCmd)
}

func runPassthrough(sub string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		gitArgs := append([]string{sub}, args...)
		if err := external.RunInherit(".", gitArgs...); err != nil {
			os.Exit(1)
		}
		return nil
	}
}

func runPullOrClone(sub string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		gitArgs := append([]string{sub}, args...)
		if err := external.RunInherit(".", gitArgs...); err != nil {
			os.Exit(1)
		}
		runAutoSync(".")
		return nil
	}
}

func runClone(cmd *cobra.Command, args []string) error {
	gitArgs := append([]string{"clone"}, args...)
	if err := external.RunInherit("", gitArgs...); err != nil {
		os.Exit(1)
	}
	runAutoSync(cloneDestination(args))
	return nil
}

// cloneDestination best-effort guesses the directory `git clone` left
// its working tree in, for the auto-sync post-hook: the last
// non-flag argument if one was given, otherwise the repo name derived
// from the first non-flag argument (the remote URL).
func cloneDestination(args []string) string {
	var positional []string
	for _, a := range args {
		if len(a) > 0 && a[0] == '-' {
			continue
		}
		positional = append(positional, a)
	}
	switch len(positional) {
	case 0:
		return "."
	case 1:
		return external.ExtractRepoName(positional[0])
	default:
		return positional[len(positional)-1]
	}
}

func runAutoSync(consumerRoot string) {
	results, err := orchestrator.AutoSyncIfConfigured(context.Background(), consumerRoot, orchestrator.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "auto-sync: %v\n", err)
		return
	}
	for _, res := range results {
		printSyncResult(res)
	}
}
