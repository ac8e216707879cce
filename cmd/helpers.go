package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/brainmesh/brain/pkg/external"
	"github.com/brainmesh/brain/pkg/materializer"
)

// requireGitRepo fails fast with a clear message when a command that
// assumes a consumer working tree (sync, export) is run outside one,
// rather than letting the underlying git subprocess calls fail with a
// more confusing error later.
func requireGitRepo(path string) error {
	if !external.IsGitRepo(path) {
		return fmt.Errorf("%s is not a git repository", path)
	}
	return nil
}

// buildConsoleLogger constructs the zap.SugaredLogger every command
// that drives the sync/export engine passes down for audit/debug
// output, falling back to a no-op logger if zap's config fails to
// build (it shouldn't, but logging setup must never be what aborts a
// command).
func buildConsoleLogger(debug bool) *zap.SugaredLogger {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

// printSyncResult renders one mapping's sync outcome the way `sync`
// and `add-neuron` report it.
func printSyncResult(res materializer.Result) {
	switch res.Status {
	case materializer.StatusSuccess:
		fmt.Printf("  %s: synced", res.Destination)
		if res.RequirementsMerged {
			fmt.Printf(" (requirements.txt merged)")
		}
		fmt.Println()
	case materializer.StatusSkipped:
		fmt.Printf("  %s: up to date\n", res.Destination)
	case materializer.StatusConflict:
		fmt.Printf("  %s: conflict resolved - %s\n", res.Destination, res.Message)
	case materializer.StatusError:
		fmt.Printf("  %s: FAILED - %s\n", res.Destination, res.Message)
	}
}
