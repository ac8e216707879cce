package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/cespare/xxhash/v2"

	"github.com/brainmesh/brain/pkg/fileutil"
)

// ManifestFileName is the consumer-side dependency manifest at the root
// of a consumer repository, created by `add-brain` if absent.
const ManifestFileName = ".neurons"

// BrainFileName is the file a brain repository carries at its root to
// declare what it exports.
const BrainFileName = ".brain"

// metadataAppName namespaces this tool's slice of the user's XDG cache
// directory from every other tool's.
const metadataAppName = "git-brain"

// ConsumerManifestPath returns the path to the .neurons file for a
// consumer rooted at consumerRoot.
func ConsumerManifestPath(consumerRoot string) string {
	return filepath.Join(consumerRoot, ManifestFileName)
}

// BrainManifestPath returns the path to the .brain file for a brain
// repository checked out at brainRoot.
func BrainManifestPath(brainRoot string) string {
	return filepath.Join(brainRoot, BrainFileName)
}

// LockPath returns the advisory lock path for a consumer, adjacent to
// .neurons as required for the sync orchestrator's exclusive lock.
func LockPath(consumerRoot string) string {
	return ConsumerManifestPath(consumerRoot) + ".lock"
}

// consumerKey derives a stable, filesystem-safe identifier for a
// consumer root so its cache and baseline survive renames of sibling
// directories but not of the consumer itself. Collisions are
// astronomically unlikely (64-bit hash of an absolute path) and are not
// guarded against, matching the teacher's tolerance for best-effort
// path-derived naming (pkg/external.ExtractRepoName).
func consumerKey(consumerRoot string) (string, error) {
	abs, err := filepath.Abs(consumerRoot)
	if err != nil {
		return "", fmt.Errorf("resolve consumer root: %w", err)
	}
	sum := xxhash.Sum64String(abs)
	return fmt.Sprintf("%s-%016x", filepath.Base(abs), sum), nil
}

// MetadataDir returns the hidden metadata directory for a consumer: the
// home of its Baseline file and its slice of the Brain Cache. It lives
// under the user's XDG cache home rather than inside the consumer's
// working tree, so it never needs a .gitignore entry and survives a
// `git clean -fdx`.
func MetadataDir(consumerRoot string) (string, error) {
	key, err := consumerKey(consumerRoot)
	if err != nil {
		return "", err
	}
	dir, err := xdg.CacheFile(filepath.Join(metadataAppName, key, ".keep"))
	if err != nil {
		return "", fmt.Errorf("resolve metadata directory: %w", err)
	}
	return filepath.Dir(dir), nil
}

// BaselinePath returns the path of the Baseline file for a consumer.
func BaselinePath(consumerRoot string) (string, error) {
	dir, err := MetadataDir(consumerRoot)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "baseline.yaml"), nil
}

// BrainCacheDir returns the root of a single brain's sparse fetch cache
// within the consumer's metadata directory.
func BrainCacheDir(consumerRoot, brainID string) (string, error) {
	dir, err := MetadataDir(consumerRoot)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache", brainID), nil
}

// EnsureMetadataDir makes sure the consumer's metadata directory (and
// its cache subdirectory) exist.
func EnsureMetadataDir(consumerRoot string) (string, error) {
	dir, err := MetadataDir(consumerRoot)
	if err != nil {
		return "", err
	}
	if err := fileutil.EnsureDir(filepath.Join(dir, "cache")); err != nil {
		return "", fmt.Errorf("create metadata directory: %w", err)
	}
	return dir, nil
}

// FindConsumerRoot walks upward from start looking for a .neurons file,
// the way git walks upward looking for .git. It returns os.ErrNotExist
// if no consumer root is found before reaching the filesystem root.
func FindConsumerRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if fileutil.FileExists(ConsumerManifestPath(dir)) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found above %s: %w", ManifestFileName, start, os.ErrNotExist)
		}
		dir = parent
	}
}
