// Package requirements parses and merges the line-oriented
// "name[==version]" dependency manifests (the style used by Python
// requirements.txt, and close enough to Go/Node lockfile fragments that
// the same grammar covers them) a neuron may carry alongside its files.
package requirements

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// LineKind distinguishes the three kinds of line a requirements file
// may contain.
type LineKind int

const (
	LineBlank LineKind = iota
	LineComment
	LineRequirement
)

// Line is one line of a RequirementsFile, in source order.
type Line struct {
	Kind    LineKind
	Raw     string // verbatim text for LineBlank/LineComment
	Name    string // for LineRequirement
	Version string // for LineRequirement; "" if unpinned
}

// RequirementsFile is a parsed dependency manifest: an ordered line
// list plus an index from package name to its line position, for O(1)
// conflict resolution during merge.
type RequirementsFile struct {
	Lines []Line
	index map[string]int
}

// Parse reads a requirements file's text into a RequirementsFile.
func Parse(text string) *RequirementsFile {
	rf := &RequirementsFile{index: make(map[string]int)}

	raw := strings.Split(text, "\n")
	// A trailing "" from the final newline is not a real blank line.
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	for _, l := range raw {
		trimmed := strings.TrimSpace(l)
		switch {
		case trimmed == "":
			rf.Lines = append(rf.Lines, Line{Kind: LineBlank, Raw: l})
		case strings.HasPrefix(trimmed, "#"):
			rf.Lines = append(rf.Lines, Line{Kind: LineComment, Raw: l})
		default:
			name, version := splitRequirement(trimmed)
			rf.index[name] = len(rf.Lines)
			rf.Lines = append(rf.Lines, Line{Kind: LineRequirement, Name: name, Version: version})
		}
	}

	return rf
}

func splitRequirement(s string) (name, version string) {
	if idx := strings.Index(s, "=="); idx >= 0 {
		return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+2:])
	}
	return s, ""
}

// Get returns the requirement line for name, if present.
func (rf *RequirementsFile) Get(name string) (Line, bool) {
	i, ok := rf.index[name]
	if !ok {
		return Line{}, false
	}
	return rf.Lines[i], true
}

// Names returns every requirement name in source order.
func (rf *RequirementsFile) Names() []string {
	out := make([]string, 0, len(rf.index))
	for _, l := range rf.Lines {
		if l.Kind == LineRequirement {
			out = append(out, l.Name)
		}
	}
	return out
}

func (l Line) render() string {
	if l.Kind != LineRequirement {
		return l.Raw
	}
	if l.Version == "" {
		return l.Name
	}
	return l.Name + "==" + l.Version
}

// Merge combines a consumer's existing requirements file with a
// neuron's, per the rule that on a name collision the neuron's version
// wins outright (pinned or not), even over a consumer pin. The
// consumer's line order and every comment/blank line is preserved
// verbatim; names new to the neuron are appended in the neuron's
// relative order. The result always ends with exactly one trailing
// newline.
func Merge(consumer, neuron *RequirementsFile) string {
	var out []Line

	for _, l := range consumer.Lines {
		if l.Kind != LineRequirement {
			out = append(out, l)
			continue
		}
		if n, ok := neuron.Get(l.Name); ok {
			out = append(out, n)
		} else {
			out = append(out, l)
		}
	}

	for _, name := range neuron.Names() {
		if _, ok := consumer.Get(name); ok {
			continue
		}
		n, _ := neuron.Get(name)
		out = append(out, n)
	}

	var b strings.Builder
	for _, l := range out {
		b.WriteString(l.render())
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// CompareVersions is a best-effort semver comparison of two version
// strings; non-semver versions compare equal. Merge does not call it,
// so merging emits no upgrade/downgrade diagnostics.
func CompareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA != nil || errB != nil {
		return 0
	}
	return va.Compare(vb)
}
