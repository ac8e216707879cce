// Package braincache maintains, per brain id, a local sparse working
// copy pinned to a configured branch and populated only with the paths
// a consumer's current mapping set requires.
package braincache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/brainmesh/brain/pkg/fileutil"
)

// Handle is a live reference to one brain's local working copy.
type Handle struct {
	BrainID string
	Remote  string
	Branch  string
	Dir     string
}

// FileEntry is one entry returned by ListDir.
type FileEntry struct {
	Name  string
	IsDir bool
}

// Ensure creates the working copy for brainID if absent, or brings an
// existing one up to date: points the origin remote at remote,
// reconfigures the sparse set to the directories containing
// requiredPaths (see sparseConePaths), fetches branch, and hard-resets
// the checkout to the fetched remote branch. Idempotent across runs;
// safe to call once per brain id at the start of a sync run.
func Ensure(cacheDir, brainID, remote, branch string, requiredPaths []string) (*Handle, error) {
	h := &Handle{BrainID: brainID, Remote: remote, Branch: branch, Dir: cacheDir}

	if _, err := os.Stat(filepath.Join(cacheDir, ".git")); err != nil {
		if err := fileutil.EnsureDir(filepath.Dir(cacheDir)); err != nil {
			return nil, newCacheError(ErrClone, brainID, err)
		}
		if err := gitInitBareClone(cacheDir, remote); err != nil {
			return nil, newCacheError(ErrClone, brainID, err)
		}
		if err := gitSparseCheckoutInit(cacheDir); err != nil {
			return nil, newCacheError(ErrCheckout, brainID, err)
		}
	} else {
		if err := gitSetRemoteURL(cacheDir, remote); err != nil {
			return nil, newCacheError(ErrFetch, brainID, err)
		}
	}

	if err := gitSparseCheckoutSet(cacheDir, requiredPaths); err != nil {
		return nil, newCacheError(ErrCheckout, brainID, err)
	}
	if err := gitFetchBranch(cacheDir, branch); err != nil {
		return nil, newCacheError(ErrFetch, brainID, err)
	}
	if err := gitCheckoutBranch(cacheDir, branch); err != nil {
		return nil, newCacheError(ErrCheckout, brainID, err)
	}
	if err := gitResetHardToRemote(cacheDir, branch); err != nil {
		return nil, newCacheError(ErrCheckout, brainID, err)
	}

	return h, nil
}

// ReadFile reads the bytes of a source path materialized in the cache.
func (h *Handle) ReadFile(source string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(h.Dir, source))
	if err != nil {
		return nil, fmt.Errorf("read %s from brain %s: %w", source, h.BrainID, err)
	}
	return data, nil
}

// IsDir reports whether source names a directory in the cache.
func (h *Handle) IsDir(source string) (bool, error) {
	info, err := os.Stat(filepath.Join(h.Dir, source))
	if err != nil {
		return false, fmt.Errorf("stat %s from brain %s: %w", source, h.BrainID, err)
	}
	return info.IsDir(), nil
}

// ListDir enumerates the entries directly under source in the cache,
// sorted by name for deterministic processing order. Entries whose name
// starts with ".git" are skipped.
func (h *Handle) ListDir(source string) ([]FileEntry, error) {
	entries, err := os.ReadDir(filepath.Join(h.Dir, source))
	if err != nil {
		return nil, fmt.Errorf("list %s from brain %s: %w", source, h.BrainID, err)
	}
	out := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".git") {
			continue
		}
		out = append(out, FileEntry{Name: e.Name(), IsDir: e.IsDir()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// WritePath writes bytes to source within the cache, creating parent
// directories as needed, for the export path.
func (h *Handle) WritePath(source string, data []byte) error {
	dest := filepath.Join(h.Dir, source)
	if err := fileutil.EnsureDir(filepath.Dir(dest)); err != nil {
		return fmt.Errorf("prepare export path %s in brain %s: %w", source, h.BrainID, err)
	}
	if err := fileutil.AtomicWriteFile(dest, data); err != nil {
		return fmt.Errorf("write export path %s in brain %s: %w", source, h.BrainID, err)
	}
	return nil
}

// Commit stages every change in the working copy and commits it on the
// pinned branch.
func (h *Handle) Commit(message string) error {
	if err := gitAddAll(h.Dir); err != nil {
		return newCacheError(ErrCommit, h.BrainID, err)
	}
	if err := gitCommit(h.Dir, message); err != nil {
		return newCacheError(ErrCommit, h.BrainID, err)
	}
	return nil
}

// Push pushes the pinned branch's HEAD to the remote. The local commit
// is retained on failure so the caller can retry.
func (h *Handle) Push() error {
	if err := gitPush(h.Dir, h.Branch); err != nil {
		return newCacheError(ErrPush, h.BrainID, err)
	}
	return nil
}

// HeadCommit returns the current commit id checked out in the cache.
func (h *Handle) HeadCommit() (string, error) {
	commit, err := gitHeadCommit(h.Dir)
	if err != nil {
		return "", newCacheError(ErrFetch, h.BrainID, err)
	}
	return commit, nil
}
