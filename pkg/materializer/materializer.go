// Package materializer copies a mapping's source content from a
// brain's cache into the consumer's working tree, resolving conflicts
// against the recorded Baseline and running the Requirements Merger
// side-effect.
package materializer

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/brainmesh/brain/pkg/baseline"
	"github.com/brainmesh/brain/pkg/braincache"
	"github.com/brainmesh/brain/pkg/config"
	"github.com/brainmesh/brain/pkg/conflict"
	"github.com/brainmesh/brain/pkg/fileutil"
	"github.com/brainmesh/brain/pkg/requirements"
)

// Cache is the subset of *braincache.Handle the Materializer depends
// on; narrowed to an interface so tests can substitute an in-memory
// fake instead of a real git working copy.
type Cache interface {
	ReadFile(source string) ([]byte, error)
	IsDir(source string) (bool, error)
	ListDir(source string) ([]braincache.FileEntry, error)
	HeadCommit() (string, error)
}

// Status is the outcome category of one mapping's sync.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusSkipped  Status = "skipped"
	StatusConflict Status = "conflict"
	StatusError    Status = "error"
)

// Result is the outcome of syncing one mapping.
type Result struct {
	Status             Status
	Destination        string
	RequirementsMerged bool
	Message            string
}

// requirementsFileName is the consumer-root file the side-merge writes
// to, regardless of which mapping triggered it.
const requirementsFileName = "requirements.txt"

// SyncOne materializes a single mapping: it determines file vs
// directory kind, applies the brain/local/conflict decision per
// destination, runs the requirements side-merge, and refreshes the
// Baseline for everything it wrote.
func SyncOne(consumerRoot string, cache Cache, mapping config.MapEntry, policy config.SyncPolicy, bl *baseline.File, prompter conflict.Prompter) Result {
	isDir, err := cache.IsDir(mapping.Source)
	if err != nil {
		return Result{Status: StatusError, Destination: mapping.Destination,
			Message: (&SyncError{Kind: ErrUnknownDestination, Destination: mapping.Destination, Err: err}).Error()}
	}
	wantDir := mapping.Kind == config.KindDir
	if isDir != wantDir {
		return Result{Status: StatusError, Destination: mapping.Destination,
			Message: (&SyncError{Kind: ErrTypeMismatch, Destination: mapping.Destination}).Error()}
	}

	brainHead, err := cache.HeadCommit()
	if err != nil {
		return Result{Status: StatusError, Destination: mapping.Destination, Message: err.Error()}
	}

	if mapping.Kind == config.KindFile {
		return syncFile(consumerRoot, cache, mapping.Source, mapping.Destination, brainHead, policy, bl, prompter, true)
	}
	return syncDir(consumerRoot, cache, mapping, brainHead, policy, bl, prompter)
}

// syncFile applies the four-case decision table to a single file and,
// when runSideMerge is true, also runs the manifest side-merge relative
// to source. A lone file mapping always merges its own sibling; a file
// inside a directory mapping does not (syncDir runs the side-merge once
// for the directory as a whole, see siblingRequirementsPath).
func syncFile(consumerRoot string, cache Cache, source, destination, brainHead string, policy config.SyncPolicy, bl *baseline.File, prompter conflict.Prompter, runSideMerge bool) Result {
	brainBytes, err := cache.ReadFile(source)
	if err != nil {
		return Result{Status: StatusError, Destination: destination,
			Message: (&SyncError{Kind: ErrUnreadable, Destination: destination, Err: err}).Error()}
	}

	destPath := filepath.Join(consumerRoot, destination)
	result := writeFileDecision(destPath, destination, brainBytes, brainHead, policy, bl, prompter)

	merged := false
	if runSideMerge {
		var mergeErr error
		merged, mergeErr = sideMergeRequirements(consumerRoot, cache, source)
		if mergeErr != nil && result.Status != StatusError {
			result.Message = joinMessage(result.Message, fmt.Sprintf("requirements side-merge failed: %v", mergeErr))
		}
	}
	result.RequirementsMerged = merged
	return result
}

// writeFileDecision implements §4.5 step 2: the brain/local/conflict
// table for one destination, given the brain's current bytes.
func writeFileDecision(destPath, destination string, brainBytes []byte, brainHead string, policy config.SyncPolicy, bl *baseline.File, prompter conflict.Prompter) Result {
	exists := fileutil.FileExists(destPath)

	if !exists {
		if err := fileutil.EnsureDir(filepath.Dir(destPath)); err != nil {
			return Result{Status: StatusError, Destination: destination, Message: err.Error()}
		}
		if err := fileutil.AtomicWriteFile(destPath, brainBytes); err != nil {
			return Result{Status: StatusError, Destination: destination, Message: err.Error()}
		}
		fp := baseline.Hash(brainBytes)
		bl.Set(destination, baseline.Entry{BrainCommit: brainHead, BrainFingerprint: fp, LocalFingerprint: fp})
		return Result{Status: StatusSuccess, Destination: destination}
	}

	destBytes, err := os.ReadFile(destPath)
	if err != nil {
		return Result{Status: StatusError, Destination: destination,
			Message: (&SyncError{Kind: ErrUnreadable, Destination: destination, Err: err}).Error()}
	}

	entry, hasBaseline := bl.Get(destination)
	classification := baseline.Classify(true, destBytes, brainBytes, entry, hasBaseline)

	switch {
	case !classification.BrainChanged && !classification.LocalChanged:
		return Result{Status: StatusSkipped, Destination: destination}

	case classification.BrainChanged && !classification.LocalChanged:
		if err := fileutil.AtomicWriteFile(destPath, brainBytes); err != nil {
			return Result{Status: StatusError, Destination: destination, Message: err.Error()}
		}
		fp := baseline.Hash(brainBytes)
		bl.Set(destination, baseline.Entry{BrainCommit: brainHead, BrainFingerprint: fp, LocalFingerprint: fp})
		return Result{Status: StatusSuccess, Destination: destination}

	case !classification.BrainChanged && classification.LocalChanged:
		return Result{Status: StatusSkipped, Destination: destination,
			Message: "local modifications present, brain unchanged: left in place"}

	default: // both changed: conflict path
		res, warning, err := conflict.Resolve(policy.ConflictStrategy, policy.AllowLocalModifications, destination, brainBytes, destBytes, prompter)
		if err != nil {
			return Result{Status: StatusError, Destination: destination, Message: err.Error()}
		}
		if res.Resolution == conflict.ResolutionLocal {
			return Result{Status: StatusConflict, Destination: destination, Message: warning}
		}
		if err := fileutil.AtomicWriteFile(destPath, res.Content); err != nil {
			return Result{Status: StatusError, Destination: destination, Message: err.Error()}
		}
		fp := baseline.Hash(res.Content)
		bl.Set(destination, baseline.Entry{BrainCommit: brainHead, BrainFingerprint: fp, LocalFingerprint: fp})
		status := StatusSuccess
		if warning != "" {
			status = StatusConflict
		}
		return Result{Status: status, Destination: destination, Message: warning}
	}
}

// syncDir walks the cache subtree rooted at mapping.Source, mirroring
// every file it finds under mapping.Destination. Consumer-only files
// are never touched or deleted.
func syncDir(consumerRoot string, cache Cache, mapping config.MapEntry, brainHead string, policy config.SyncPolicy, bl *baseline.File, prompter conflict.Prompter) Result {
	sourceRoot := trimTrailingSlash(mapping.Source)
	destRoot := trimTrailingSlash(mapping.Destination)

	files, err := walkCacheDir(cache, sourceRoot)
	if err != nil {
		return Result{Status: StatusError, Destination: mapping.Destination, Message: err.Error()}
	}

	manifestRel := path.Base(sourceRoot) + "requirements.txt"

	worst := StatusSkipped
	var messages []string

	for _, rel := range files {
		if rel == manifestRel {
			// The directory's own requirements manifest is merged
			// below, not mirrored into the destination as a file.
			continue
		}
		source := path.Join(sourceRoot, rel)
		destination := path.Join(destRoot, rel)

		// A directory mapping's requirements manifest, if any, is
		// merged once below for the directory as a whole, not once
		// per file inside it.
		r := syncFile(consumerRoot, cache, source, destination, brainHead, policy, bl, false)
		if r.Message != "" {
			messages = append(messages, r.Message)
		}
		worst = worstStatus(worst, r.Status)
	}

	merged, mergeErr := sideMergeRequirements(consumerRoot, cache, sourceRoot+"/")
	if mergeErr != nil {
		messages = append(messages, fmt.Sprintf("requirements side-merge failed: %v", mergeErr))
		worst = worstStatus(worst, StatusError)
	}

	return Result{
		Status:             worst,
		Destination:        mapping.Destination,
		RequirementsMerged: merged,
		Message:            joinAll(messages),
	}
}

func worstStatus(a, b Status) Status {
	rank := map[Status]int{StatusSkipped: 0, StatusSuccess: 1, StatusConflict: 2, StatusError: 3}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// walkCacheDir recursively lists every regular file under root in the
// cache, returning paths relative to root in sorted, deterministic
// order.
func walkCacheDir(cache Cache, root string) ([]string, error) {
	var out []string
	var walk func(rel string) error
	walk = func(rel string) error {
		entries, err := cache.ListDir(path.Join(root, rel))
		if err != nil {
			return err
		}
		for _, e := range entries {
			childRel := e.Name
			if rel != "" {
				childRel = path.Join(rel, e.Name)
			}
			if e.IsDir {
				if err := walk(childRel); err != nil {
					return err
				}
				continue
			}
			out = append(out, childRel)
		}
		return nil
	}
	if err := walk(""); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// siblingRequirementsPath computes the manifest path §4.5 step 4 looks
// for next to source. A file mapping's sibling is named by concatenating
// "requirements.txt" directly onto the file name (libs/strings.py ->
// libs/strings.pyrequirements.txt); a directory mapping's sibling lives
// inside the directory, named after the directory itself
// (dir_neuron/ -> dir_neuron/dir_neuronrequirements.txt), matching the
// convention the original sync tool used for a whole-neuron manifest.
func siblingRequirementsPath(source string) string {
	if strings.HasSuffix(source, "/") {
		dir := strings.TrimSuffix(source, "/")
		return path.Join(dir, path.Base(dir)+"requirements.txt")
	}
	return source + "requirements.txt"
}

// sideMergeRequirements implements §4.5 step 4: if source has a sibling
// requirements manifest in the cache (see siblingRequirementsPath),
// merge it into the consumer root's requirements.txt.
func sideMergeRequirements(consumerRoot string, cache Cache, source string) (bool, error) {
	siblingSource := siblingRequirementsPath(source)

	neuronBytes, err := cache.ReadFile(siblingSource)
	if err != nil {
		return false, nil // no sibling manifest: not an error, just nothing to merge
	}

	consumerPath := filepath.Join(consumerRoot, requirementsFileName)
	var existingText string
	if fileutil.FileExists(consumerPath) {
		data, err := os.ReadFile(consumerPath)
		if err != nil {
			return false, fmt.Errorf("read %s: %w", requirementsFileName, err)
		}
		existingText = string(data)
	}

	consumerReq := requirements.Parse(existingText)
	neuronReq := requirements.Parse(string(neuronBytes))
	merged := requirements.Merge(consumerReq, neuronReq)

	if err := fileutil.AtomicWriteFile(consumerPath, []byte(merged)); err != nil {
		return false, fmt.Errorf("write %s: %w", requirementsFileName, err)
	}
	return true, nil
}

func trimTrailingSlash(p string) string {
	if len(p) > 0 && p[len(p)-1] == '/' {
		return p[:len(p)-1]
	}
	return p
}

func joinMessage(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}

func joinAll(msgs []string) string {
	out := ""
	for _, m := range msgs {
		out = joinMessage(out, m)
	}
	return out
}
