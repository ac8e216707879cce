// Package exporter implements the reverse data flow of §4.9: writing a
// consumer's local edits back into a brain, subject to the brain's
// EXPORT permissions and protected-path rules.
package exporter

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/brainmesh/brain/pkg/baseline"
	"github.com/brainmesh/brain/pkg/braincache"
	"github.com/brainmesh/brain/pkg/config"
	"github.com/brainmesh/brain/pkg/external"
	"github.com/brainmesh/brain/pkg/pathmatch"
)

// Result mirrors the Materializer's result shape for a single exported
// file.
type Result struct {
	Destination string
	BrainSource string
	Pushed      bool
}

// Export copies the consumer's file at localPath into its mapped
// brain, commits, and pushes, enforcing EXPORT permissions and
// UPDATE_POLICY.PROTECTED_PATHS. log may be nil, in which case a
// no-op logger is used; every caller that cares about the --force
// audit trail should pass a real one.
func Export(consumerRoot, localPath string, force bool, bl *baseline.File, log *zap.SugaredLogger) (Result, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	manifest, err := config.LoadConsumer(config.ConsumerManifestPath(consumerRoot))
	if err != nil {
		return Result{}, fmt.Errorf("load consumer manifest: %w", err)
	}

	mapping, offset, ok := findMapping(manifest, localPath)
	if !ok {
		return Result{}, &ExportError{Kind: ErrNotMapped, LocalPath: localPath}
	}

	source := mapping.Source
	if mapping.Kind == config.KindDir {
		source = path.Join(strings.TrimSuffix(mapping.Source, "/"), offset)
	}

	if !manifest.Policy.AllowPushToBrain {
		return Result{}, &ExportError{Kind: ErrReadOnly, LocalPath: localPath,
			Err: fmt.Errorf("ALLOW_PUSH_TO_BRAIN is false for this consumer")}
	}

	brainRef, ok := manifest.BrainByID(mapping.BrainID)
	if !ok {
		return Result{}, fmt.Errorf("brain %s referenced by mapping is not registered", mapping.BrainID)
	}

	cacheDir, err := config.BrainCacheDir(consumerRoot, mapping.BrainID)
	if err != nil {
		return Result{}, fmt.Errorf("resolve cache dir: %w", err)
	}
	handle, err := braincache.Ensure(cacheDir, mapping.BrainID, brainRef.Remote, brainRef.Branch, []string{source})
	if err != nil {
		return Result{}, err
	}

	clean, err := external.IsClean(handle.Dir)
	if err != nil {
		return Result{}, fmt.Errorf("check brain cache state: %w", err)
	}
	if !clean {
		return Result{}, fmt.Errorf("brain %s cache has uncommitted changes; refusing to export over it", mapping.BrainID)
	}

	brainManifest, err := config.LoadBrain(config.BrainManifestPath(handle.Dir))
	if err != nil {
		return Result{}, fmt.Errorf("load brain manifest: %w", err)
	}

	if exportPermission(brainManifest, source) != config.PermReadwrite {
		return Result{}, &ExportError{Kind: ErrReadOnly, LocalPath: localPath}
	}

	protected := pathmatch.AnyMatches(brainManifest.Update.ProtectedPaths(), source)
	if protected && !force {
		return Result{}, &ExportError{Kind: ErrProtected, LocalPath: localPath}
	}
	if protected && force {
		log.Warnw("export bypassed a protected path", "brain", mapping.BrainID, "source", source, "local_path", localPath)
	}

	localBytes, err := os.ReadFile(filepath.Join(consumerRoot, localPath))
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", localPath, err)
	}

	if err := handle.WritePath(source, localBytes); err != nil {
		return Result{}, fmt.Errorf("stage export: %w", err)
	}
	if err := handle.Commit(fmt.Sprintf("export: update %s from consumer", source)); err != nil {
		return Result{}, fmt.Errorf("commit export: %w", err)
	}
	if err := handle.Push(); err != nil {
		return Result{}, &ExportError{Kind: ErrPush, LocalPath: localPath, Err: err}
	}

	newHead, err := handle.HeadCommit()
	if err != nil {
		return Result{}, fmt.Errorf("resolve new brain head: %w", err)
	}
	fp := baseline.Hash(localBytes)
	bl.Set(path.Clean(localPath), baseline.Entry{BrainCommit: newHead, BrainFingerprint: fp, LocalFingerprint: fp})

	return Result{Destination: localPath, BrainSource: source, Pushed: true}, nil
}

// exportPermission resolves the EXPORT permission that applies to
// source: the last matching pattern wins, mirroring the
// most-specific-pattern-last convention of .gitignore-style files.
func exportPermission(m *config.BrainManifest, source string) config.Permission {
	perm := config.PermReadonly
	found := false
	for _, e := range m.Export {
		if pathmatch.Matches(e.Pattern, source) {
			perm = e.Permission
			found = true
		}
	}
	if !found {
		return config.PermReadonly
	}
	return perm
}

// findMapping locates the mapping whose destination contains
// localPath: an exact match for a file mapping, or a path beneath the
// destination root for a directory mapping. It returns the offset
// within the directory mapping, "" for a file mapping.
func findMapping(manifest *config.ConsumerManifest, localPath string) (config.MapEntry, string, bool) {
	clean := path.Clean(localPath)

	for _, m := range manifest.Map {
		if m.Kind == config.KindFile {
			if m.Destination == clean {
				return m, "", true
			}
			continue
		}

		destRoot := strings.TrimSuffix(m.Destination, "/")
		if clean == destRoot {
			continue
		}
		if strings.HasPrefix(clean, destRoot+"/") {
			return m, strings.TrimPrefix(clean, destRoot+"/"), true
		}
	}

	return config.MapEntry{}, "", false
}
