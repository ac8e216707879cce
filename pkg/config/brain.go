package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/brainmesh/brain/pkg/fileutil"
)

// Permission is the access level a brain grants an exported path.
type Permission string

const (
	PermReadonly  Permission = "readonly"
	PermReadwrite Permission = "readwrite"
)

// ExportEntry is one ordered EXPORT rule: a path pattern and the
// permission a consumer's export operation is allowed for it.
type ExportEntry struct {
	Pattern    string
	Permission Permission
}

// AccessEntry lists the path patterns a named principal may reach.
type AccessEntry struct {
	Principal string
	Patterns  []string
}

// UpdatePolicy carries the brain's named update options. Raw preserves
// every key exactly as read (for round-trip); the typed accessors below
// interpret the well-known keys spec §3 names.
type UpdatePolicy struct {
	Raw []kv
}

func (p UpdatePolicy) value(key string) (string, bool) {
	for _, e := range p.Raw {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// RequireReview reports UPDATE_POLICY.REQUIRE_REVIEW, default false.
func (p UpdatePolicy) RequireReview() bool {
	v, _ := p.value("REQUIRE_REVIEW")
	return parseBool(v, false)
}

// ProtectedPaths reports UPDATE_POLICY.PROTECTED_PATHS, default none.
func (p UpdatePolicy) ProtectedPaths() []string {
	v, ok := p.value("PROTECTED_PATHS")
	if !ok {
		return nil
	}
	return splitList(v)
}

// NotifyList reports UPDATE_POLICY.NOTIFY_LIST, default "".
func (p UpdatePolicy) NotifyList() string {
	v, _ := p.value("NOTIFY_LIST")
	return v
}

// BrainManifest is the parsed, validated contents of a .brain file.
type BrainManifest struct {
	ID          string
	Description string
	Export      []ExportEntry
	Access      []AccessEntry
	Update      UpdatePolicy
}

// NewBrainManifest builds a fresh manifest (used by `brain-init`).
func NewBrainManifest(id, description string, export []ExportEntry) *BrainManifest {
	return &BrainManifest{
		ID:          id,
		Description: description,
		Export:      export,
	}
}

// LoadBrain parses a .brain file from disk.
func LoadBrain(path string) (*BrainManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	sections, err := parseSections(data, path)
	if err != nil {
		return nil, err
	}

	m := &BrainManifest{}

	var sawBrain bool
	for _, s := range sections {
		switch s.Name() {
		case "BRAIN":
			sawBrain = true
			id, ok := s.get("ID")
			if !ok || strings.TrimSpace(id) == "" {
				return nil, newConfigError(ErrMissingField, path, "[BRAIN].ID is required")
			}
			m.ID = id
			if desc, ok := s.get("DESCRIPTION"); ok {
				m.Description = desc
			}
		case "EXPORT":
			seen := make(map[string]bool, len(s.Entries))
			for _, e := range s.Entries {
				if seen[e.Key] {
					return nil, newConfigError(ErrDuplicateKey, path, fmt.Sprintf("duplicate EXPORT pattern %q", e.Key))
				}
				seen[e.Key] = true
				perm := Permission(strings.ToLower(strings.TrimSpace(e.Value)))
				if perm != PermReadonly && perm != PermReadwrite {
					return nil, newConfigError(ErrBadSyntax, path, fmt.Sprintf("EXPORT %q has invalid permission %q", e.Key, e.Value))
				}
				m.Export = append(m.Export, ExportEntry{Pattern: e.Key, Permission: perm})
			}
		case "ACCESS":
			for _, e := range s.Entries {
				m.Access = append(m.Access, AccessEntry{Principal: e.Key, Patterns: splitList(e.Value)})
			}
		case "UPDATE_POLICY":
			m.Update = UpdatePolicy{Raw: append([]kv(nil), s.Entries...)}
		}
	}

	if !sawBrain {
		return nil, newConfigError(ErrMissingField, path, "[BRAIN] section is required")
	}
	if len(m.Export) == 0 {
		return nil, newConfigError(ErrMissingField, path, "[EXPORT] must contain at least one entry")
	}

	return m, nil
}

// ExportPermission returns the permission configured for an exact path
// pattern, or ("", false) if the pattern has no EXPORT entry.
func (m *BrainManifest) ExportPermission(pattern string) (Permission, bool) {
	for _, e := range m.Export {
		if e.Pattern == pattern {
			return e.Permission, true
		}
	}
	return "", false
}

// toSections rebuilds the canonical section layout from the typed,
// normalized fields, the same way ConsumerManifest.toSections does.
// It never round-trips the original source text: LoadBrain already
// lowercases EXPORT permissions into m.Export, so always rebuilding
// from the typed fields is what makes save(load(f)) == f after
// normalization (spec §8) instead of reproducing un-normalized casing.
func (m *BrainManifest) toSections() []section {
	var out []section

	brain := section{Header: "BRAIN", Entries: []kv{{Key: "ID", Value: m.ID}}}
	if m.Description != "" {
		brain.Entries = append(brain.Entries, kv{Key: "DESCRIPTION", Value: m.Description})
	}
	out = append(out, brain)

	export := section{Header: "EXPORT"}
	for _, e := range m.Export {
		export.Entries = append(export.Entries, kv{Key: e.Pattern, Value: string(e.Permission)})
	}
	out = append(out, export)

	if len(m.Access) > 0 {
		access := section{Header: "ACCESS"}
		for _, a := range m.Access {
			access.Entries = append(access.Entries, kv{Key: a.Principal, Value: joinList(a.Patterns)})
		}
		out = append(out, access)
	}

	if len(m.Update.Raw) > 0 {
		out = append(out, section{Header: "UPDATE_POLICY", Entries: m.Update.Raw})
	}

	return out
}

// SaveBrain writes the manifest back to path, atomically.
func SaveBrain(m *BrainManifest, path string) error {
	data := writeSections(m.toSections())
	return fileutil.AtomicWriteFile(path, data)
}
