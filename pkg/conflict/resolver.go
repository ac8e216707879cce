// Package conflict applies a consumer's configured policy when a
// mapping's destination and its brain source have both changed since
// the last successful sync.
package conflict

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/brainmesh/brain/pkg/config"
)

// Resolution identifies which side's content won a conflict.
type Resolution string

const (
	ResolutionBrain Resolution = "brain"
	ResolutionLocal Resolution = "local"
)

// Result is the outcome of resolving one conflict: which side won, and
// the bytes the Materializer should write (nil when ResolutionLocal,
// since the destination is left untouched).
type Result struct {
	Resolution Resolution
	Content    []byte
}

// ConflictUnresolved reports a prompt-strategy conflict in a
// non-interactive context where even the prefer_brain fallback has no
// content to offer (the brain side no longer has the file).
type ConflictUnresolved struct {
	Destination string
}

func (e *ConflictUnresolved) Error() string {
	return fmt.Sprintf("conflict on %s could not be resolved without a terminal: brain side has no content to fall back to", e.Destination)
}

// Prompter asks a human to choose a side for one conflicting
// destination. The default implementation drives an interactive
// github.com/charmbracelet/huh form; tests substitute a scripted
// Prompter.
type Prompter interface {
	Prompt(destination string) (Resolution, error)
}

// InteractivePrompter renders a terminal form via huh.
type InteractivePrompter struct{}

func (InteractivePrompter) Prompt(destination string) (Resolution, error) {
	var choice string
	err := huh.NewSelect[string]().
		Title(fmt.Sprintf("Conflict on %s: both the brain and your working copy changed", destination)).
		Options(
			huh.NewOption("Keep the brain's version", string(ResolutionBrain)),
			huh.NewOption("Keep my local version", string(ResolutionLocal)),
		).
		Value(&choice).
		Run()
	if err != nil {
		return "", fmt.Errorf("prompt for %s: %w", destination, err)
	}
	return Resolution(choice), nil
}

// Resolve applies policy to a single conflict. In prompt mode, when
// stdin is not a terminal (non-interactive invocation), it falls back
// to prefer_brain and reports a warning message the caller should log.
// When allowLocalModifications is false, the brain always wins
// regardless of the configured strategy (spec's "local loses" rule).
// A plain prefer_brain resolution returns an empty warning message, so
// overwritten local edits are not reported as a warning in that case.
// The returned error is non-nil only as a *ConflictUnresolved.
func Resolve(policy config.ConflictStrategy, allowLocalModifications bool, destination string, brainBytes, localBytes []byte, prompter Prompter) (Result, string, error) {
	if !allowLocalModifications {
		return Result{Resolution: ResolutionBrain, Content: brainBytes},
			fmt.Sprintf("local modifications are not allowed for this consumer: conflict on %s forced to prefer_brain", destination), nil
	}

	switch policy {
	case config.StrategyPreferLocal:
		return Result{Resolution: ResolutionLocal}, "", nil

	case config.StrategyPrompt:
		if !isInteractive() {
			if brainBytes == nil {
				return Result{}, "", &ConflictUnresolved{Destination: destination}
			}
			return Result{Resolution: ResolutionBrain, Content: brainBytes},
				fmt.Sprintf("non-interactive session: conflict on %s resolved to prefer_brain", destination), nil
		}
		choice, err := prompter.Prompt(destination)
		if err != nil {
			if brainBytes == nil {
				return Result{}, "", &ConflictUnresolved{Destination: destination}
			}
			return Result{Resolution: ResolutionBrain, Content: brainBytes},
				fmt.Sprintf("conflict prompt failed for %s, falling back to prefer_brain: %v", destination, err), nil
		}
		if choice == ResolutionLocal {
			return Result{Resolution: ResolutionLocal}, "", nil
		}
		return Result{Resolution: ResolutionBrain, Content: brainBytes}, "", nil

	case config.StrategyPreferBrain:
		fallthrough
	default:
		return Result{Resolution: ResolutionBrain, Content: brainBytes}, "", nil
	}
}

func isInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
