// Package baseline tracks, per mapping, the brain commit and content
// fingerprints last seen at a successful sync, and classifies whether
// the brain or consumer side has drifted since.
package baseline

import (
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/brainmesh/brain/pkg/fileutil"
)

// Fingerprint is a fast, non-cryptographic content hash used only to
// detect "did this change", never for integrity or security purposes.
type Fingerprint uint64

func Hash(data []byte) Fingerprint {
	return Fingerprint(xxhash.Sum64(data))
}

// Entry is the recorded state of one mapping at its last successful
// sync.
type Entry struct {
	BrainCommit      string       `yaml:"brain_commit"`
	BrainFingerprint Fingerprint  `yaml:"brain_fingerprint"`
	LocalFingerprint Fingerprint  `yaml:"local_fingerprint"`
}

// File is the on-disk Baseline: one Entry per mapping destination.
type File struct {
	Entries map[string]Entry `yaml:"entries"`
}

// Load reads the Baseline file. A missing file is not an error: it
// simply yields an empty File, matching "created on first successful
// sync of a mapping".
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{Entries: make(map[string]Entry)}, nil
		}
		return nil, fmt.Errorf("read baseline: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse baseline: %w", err)
	}
	if f.Entries == nil {
		f.Entries = make(map[string]Entry)
	}
	return &f, nil
}

// Save writes the Baseline file atomically.
func Save(f *File, path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal baseline: %w", err)
	}
	if err := fileutil.AtomicWriteFile(path, data); err != nil {
		return fmt.Errorf("write baseline: %w", err)
	}
	return nil
}

// Get returns the recorded entry for destination, if any.
func (f *File) Get(destination string) (Entry, bool) {
	e, ok := f.Entries[destination]
	return e, ok
}

// Set records or refreshes the entry for destination.
func (f *File) Set(destination string, e Entry) {
	if f.Entries == nil {
		f.Entries = make(map[string]Entry)
	}
	f.Entries[destination] = e
}

// Remove drops the entry for destination, e.g. when its mapping is
// removed from .neurons.
func (f *File) Remove(destination string) {
	delete(f.Entries, destination)
}

// Classification is the result of comparing a destination's and a
// brain source's current content against the recorded baseline.
type Classification struct {
	BrainChanged bool
	LocalChanged bool
}

// Classify implements the Diff & Baseline decision table: brainChanged
// is true when there is no baseline or the brain's fingerprint moved;
// localChanged is true when the destination exists and either there is
// no baseline or its content fingerprint moved. A pre-existing
// destination with no baseline and content that differs from the brain
// is treated as both-changed (first adoption of a pre-existing file).
func Classify(destinationExists bool, destinationBytes, brainBytes []byte, entry Entry, hasBaseline bool) Classification {
	brainFP := Hash(brainBytes)

	brainChanged := !hasBaseline || entry.BrainFingerprint != brainFP

	var localChanged bool
	if destinationExists {
		if !hasBaseline {
			localChanged = true
		} else {
			localChanged = entry.LocalFingerprint != Hash(destinationBytes)
		}
	}

	return Classification{BrainChanged: brainChanged, LocalChanged: localChanged}
}
