package config

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/brainmesh/brain/pkg/fileutil"
)

// ConflictStrategy is the consumer-wide policy for resolving conflicts
// where both the brain and the local destination changed since baseline.
type ConflictStrategy string

const (
	StrategyPreferBrain ConflictStrategy = "prefer_brain"
	StrategyPreferLocal ConflictStrategy = "prefer_local"
	StrategyPrompt       ConflictStrategy = "prompt"
)

// BrainRef is one [BRAIN:<id>] entry.
type BrainRef struct {
	ID     string
	Remote string
	Branch string
}

// SyncPolicy is the consumer's [SYNC_POLICY] section.
type SyncPolicy struct {
	AutoSyncOnPull           bool
	ConflictStrategy         ConflictStrategy
	AllowLocalModifications  bool
	AllowPushToBrain         bool
}

func defaultSyncPolicy() SyncPolicy {
	return SyncPolicy{
		AutoSyncOnPull:          true,
		ConflictStrategy:        StrategyPrompt,
		AllowLocalModifications: true,
		AllowPushToBrain:        false,
	}
}

// MappingKind distinguishes a file mapping from a directory mapping,
// determined by the trailing slash on the destination (spec §3).
type MappingKind string

const (
	KindFile MappingKind = "file"
	KindDir  MappingKind = "dir"
)

// MapEntry is one [MAP] line: a user-chosen key and the resolved triple.
type MapEntry struct {
	Key         string
	BrainID     string
	Source      string
	Destination string
	Kind        MappingKind
}

// Raw reproduces the "brain_id::source::destination" encoding.
func (m MapEntry) Raw() string {
	return m.BrainID + "::" + m.Source + "::" + m.Destination
}

// ConsumerManifest is the parsed, validated contents of a .neurons file.
type ConsumerManifest struct {
	Brains []BrainRef
	Policy SyncPolicy
	Map    []MapEntry
}

// NewConsumerManifest builds an empty manifest with default policy.
func NewConsumerManifest() *ConsumerManifest {
	return &ConsumerManifest{Policy: defaultSyncPolicy()}
}

// BrainByID looks up a registered brain reference.
func (c *ConsumerManifest) BrainByID(id string) (BrainRef, bool) {
	for _, b := range c.Brains {
		if b.ID == id {
			return b, true
		}
	}
	return BrainRef{}, false
}

// MappingByDestination looks up a mapping by its destination path.
func (c *ConsumerManifest) MappingByDestination(dest string) (MapEntry, bool) {
	for _, m := range c.Map {
		if m.Destination == dest {
			return m, true
		}
	}
	return MapEntry{}, false
}

// AddOrUpdateBrain appends a new [BRAIN:<id>] entry, or updates the
// remote/branch of an existing one in place (preserving its original
// position — spec §3 "order of first introduction").
func (c *ConsumerManifest) AddOrUpdateBrain(id, remote, branch string) {
	if branch == "" {
		branch = "main"
	}
	for i, b := range c.Brains {
		if b.ID == id {
			c.Brains[i].Remote = remote
			c.Brains[i].Branch = branch
			return
		}
	}
	c.Brains = append(c.Brains, BrainRef{ID: id, Remote: remote, Branch: branch})
}

// AddMapping validates and appends a mapping under the given user key.
// It enforces the invariants of spec §3: known brain id, unique
// destination, relative non-escaping destination, and source/destination
// trailing-slash agreement.
func (c *ConsumerManifest) AddMapping(key, rawMapping string) (MapEntry, error) {
	parts := strings.SplitN(rawMapping, "::", 3)
	if len(parts) != 3 {
		return MapEntry{}, newConfigError(ErrBadSyntax, key, "mapping must be brain_id::source::destination")
	}
	brainID, source, destination := parts[0], parts[1], parts[2]

	if _, ok := c.BrainByID(brainID); !ok {
		return MapEntry{}, newConfigError(ErrUnknownBrain, key, fmt.Sprintf("brain %q is not registered", brainID))
	}

	srcIsDir := strings.HasSuffix(source, "/")
	dstIsDir := strings.HasSuffix(destination, "/")
	if srcIsDir != dstIsDir {
		return MapEntry{}, newConfigError(ErrBadSyntax, key, "source and destination trailing slash must agree")
	}

	if path.IsAbs(destination) {
		return MapEntry{}, newConfigError(ErrBadSyntax, key, "destination must be relative")
	}
	cleanDest := path.Clean(strings.TrimSuffix(destination, "/"))
	if cleanDest == ".." || strings.HasPrefix(cleanDest, "../") {
		return MapEntry{}, newConfigError(ErrBadSyntax, key, "destination must not escape the consumer root")
	}

	if _, exists := c.MappingByDestination(destination); exists {
		return MapEntry{}, newConfigError(ErrDuplicateKey, key, fmt.Sprintf("destination %q already mapped", destination))
	}

	kind := KindFile
	if dstIsDir {
		kind = KindDir
	}

	entry := MapEntry{Key: key, BrainID: brainID, Source: source, Destination: destination, Kind: kind}
	c.Map = append(c.Map, entry)
	return entry, nil
}

// RemoveMapping drops the mapping with the given destination. Returns
// false if no such mapping exists.
func (c *ConsumerManifest) RemoveMapping(destination string) bool {
	for i, m := range c.Map {
		if m.Destination == destination {
			c.Map = append(c.Map[:i], c.Map[i+1:]...)
			return true
		}
	}
	return false
}

// LoadConsumer parses a .neurons file from disk.
func LoadConsumer(path string) (*ConsumerManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	sections, err := parseSections(data, path)
	if err != nil {
		return nil, err
	}

	c := &ConsumerManifest{Policy: defaultSyncPolicy()}

	for _, s := range sections {
		switch {
		case s.Name() == "BRAIN":
			id := s.ID()
			if id == "" {
				return nil, newConfigError(ErrBadSyntax, path, "[BRAIN:<id>] section requires an id")
			}
			remote, ok := s.get("REMOTE")
			if !ok || strings.TrimSpace(remote) == "" {
				return nil, newConfigError(ErrMissingField, path, fmt.Sprintf("[BRAIN:%s].REMOTE is required", id))
			}
			branch := "main"
			if b, ok := s.get("BRANCH"); ok && strings.TrimSpace(b) != "" {
				branch = b
			}
			c.Brains = append(c.Brains, BrainRef{ID: id, Remote: remote, Branch: branch})

		case s.Name() == "SYNC_POLICY":
			if v, ok := s.get("AUTO_SYNC_ON_PULL"); ok {
				c.Policy.AutoSyncOnPull = parseBool(v, true)
			}
			if v, ok := s.get("CONFLICT_STRATEGY"); ok {
				c.Policy.ConflictStrategy = ConflictStrategy(strings.ToLower(strings.TrimSpace(v)))
			}
			if v, ok := s.get("ALLOW_LOCAL_MODIFICATIONS"); ok {
				c.Policy.AllowLocalModifications = parseBool(v, true)
			}
			if v, ok := s.get("ALLOW_PUSH_TO_BRAIN"); ok {
				c.Policy.AllowPushToBrain = parseBool(v, false)
			}

		case s.Name() == "MAP":
			for _, e := range s.Entries {
				if _, err := c.AddMapping(e.Key, e.Value); err != nil {
					return nil, err
				}
			}
		}
	}

	if len(c.Brains) == 0 {
		return nil, newConfigError(ErrMissingField, path, "at least one [BRAIN:<id>] section is required")
	}
	switch c.Policy.ConflictStrategy {
	case StrategyPreferBrain, StrategyPreferLocal, StrategyPrompt:
	default:
		return nil, newConfigError(ErrBadSyntax, path, fmt.Sprintf("invalid CONFLICT_STRATEGY %q", c.Policy.ConflictStrategy))
	}

	return c, nil
}

func (c *ConsumerManifest) toSections() []section {
	var out []section

	for _, b := range c.Brains {
		out = append(out, section{
			Header: "BRAIN:" + b.ID,
			Entries: []kv{
				{Key: "REMOTE", Value: b.Remote},
				{Key: "BRANCH", Value: b.Branch},
			},
		})
	}

	out = append(out, section{
		Header: "SYNC_POLICY",
		Entries: []kv{
			{Key: "AUTO_SYNC_ON_PULL", Value: boolStr(c.Policy.AutoSyncOnPull)},
			{Key: "CONFLICT_STRATEGY", Value: string(c.Policy.ConflictStrategy)},
			{Key: "ALLOW_LOCAL_MODIFICATIONS", Value: boolStr(c.Policy.AllowLocalModifications)},
			{Key: "ALLOW_PUSH_TO_BRAIN", Value: boolStr(c.Policy.AllowPushToBrain)},
		},
	})

	mapSection := section{Header: "MAP"}
	for _, m := range c.Map {
		mapSection.Entries = append(mapSection.Entries, kv{Key: m.Key, Value: m.Raw()})
	}
	out = append(out, mapSection)

	return out
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// SaveConsumer writes the manifest back to path, atomically.
func SaveConsumer(c *ConsumerManifest, path string) error {
	data := writeSections(c.toSections())
	return fileutil.AtomicWriteFile(path, data)
}
