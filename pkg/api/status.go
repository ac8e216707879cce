// Package api exposes the read-only, cross-cutting views the CLI
// surface (currently `list`) needs over a consumer's
// mappings and their Baseline state, without itself owning a version
// control or conflict-resolution policy.
package api

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/brainmesh/brain/pkg/baseline"
	"github.com/brainmesh/brain/pkg/config"
)

// MappingStatus is one mapping's resolved configuration plus its
// recorded Baseline state, the shape `list --verbose` reports.
type MappingStatus struct {
	Key           string
	BrainID       string
	Source        string
	Destination   string
	Kind          config.MappingKind
	HasBaseline   bool
	LocalChanged  bool
	BrainCommit   string
	DestinationOK bool // false if destination is missing from the working tree
}

// ComputeStatuses resolves the current status of every mapping in the
// consumer's .neurons file. It is offline: brain-side drift is not
// probed here (that would require a fetch), only whether the
// destination has moved since the last recorded sync.
func ComputeStatuses(consumerRoot string) ([]MappingStatus, error) {
	manifest, err := config.LoadConsumer(config.ConsumerManifestPath(consumerRoot))
	if err != nil {
		return nil, fmt.Errorf("load consumer manifest: %w", err)
	}

	baselinePath, err := config.BaselinePath(consumerRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve baseline path: %w", err)
	}
	bl, err := baseline.Load(baselinePath)
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}

	statuses := make([]MappingStatus, 0, len(manifest.Map))
	for _, m := range manifest.Map {
		statuses = append(statuses, statusFor(consumerRoot, m, bl))
	}
	return statuses, nil
}

func statusFor(consumerRoot string, m config.MapEntry, bl *baseline.File) MappingStatus {
	status := MappingStatus{
		Key:         m.Key,
		BrainID:     m.BrainID,
		Source:      m.Source,
		Destination: m.Destination,
		Kind:        m.Kind,
	}

	if m.Kind == config.KindDir {
		return dirStatus(consumerRoot, m, bl, status)
	}
	return fileStatus(consumerRoot, m.Destination, bl, status)
}

func fileStatus(consumerRoot, destination string, bl *baseline.File, status MappingStatus) MappingStatus {
	entry, hasBaseline := bl.Get(destination)
	status.HasBaseline = hasBaseline
	status.BrainCommit = entry.BrainCommit

	destPath := filepath.Join(consumerRoot, destination)
	data, err := os.ReadFile(destPath)
	if err != nil {
		status.DestinationOK = false
		return status
	}
	status.DestinationOK = true

	if !hasBaseline {
		status.LocalChanged = true
		return status
	}
	status.LocalChanged = entry.LocalFingerprint != baseline.Hash(data)
	return status
}

// dirStatus aggregates the per-file baseline entries recorded under a
// directory mapping's destination: any drifted file marks the whole
// mapping as locally changed.
func dirStatus(consumerRoot string, m config.MapEntry, bl *baseline.File, status MappingStatus) MappingStatus {
	prefix := trimTrailingSlash(m.Destination) + "/"

	status.DestinationOK = dirExists(filepath.Join(consumerRoot, m.Destination))

	for destination, entry := range bl.Entries {
		if !hasPrefix(destination, prefix) {
			continue
		}
		status.HasBaseline = true
		if status.BrainCommit == "" {
			status.BrainCommit = entry.BrainCommit
		}

		data, err := os.ReadFile(filepath.Join(consumerRoot, destination))
		if err != nil {
			status.LocalChanged = true
			continue
		}
		if entry.LocalFingerprint != baseline.Hash(data) {
			status.LocalChanged = true
		}
	}

	return status
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func trimTrailingSlash(p string) string {
	if len(p) > 0 && p[len(p)-1] == '/' {
		return p[:len(p)-1]
	}
	return p
}

// GetModified returns every mapping whose destination shows local
// modifications relative to its baseline, per §4.6. No command calls it
// at present; `export` and `status` do not report unrelated drift.
func GetModified(consumerRoot string) ([]MappingStatus, error) {
	all, err := ComputeStatuses(consumerRoot)
	if err != nil {
		return nil, err
	}
	var out []MappingStatus
	for _, s := range all {
		if s.LocalChanged {
			out = append(out, s)
		}
	}
	return out, nil
}
