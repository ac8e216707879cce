package baseline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyNoBaselineDestinationMatchesBrain(t *testing.T) {
	c := Classify(true, []byte("same"), []byte("same"), Entry{}, false)
	assert.True(t, c.BrainChanged)
	assert.True(t, c.LocalChanged)
}

func TestClassifyBothUnchanged(t *testing.T) {
	brain := []byte("# v1\n")
	entry := Entry{BrainFingerprint: Hash(brain), LocalFingerprint: Hash(brain)}

	c := Classify(true, brain, brain, entry, true)
	assert.False(t, c.BrainChanged)
	assert.False(t, c.LocalChanged)
}

func TestClassifyOnlyBrainChanged(t *testing.T) {
	v1 := []byte("# v1\n")
	v2 := []byte("# v2\n")
	entry := Entry{BrainFingerprint: Hash(v1), LocalFingerprint: Hash(v1)}

	c := Classify(true, v1, v2, entry, true)
	assert.True(t, c.BrainChanged)
	assert.False(t, c.LocalChanged)
}

func TestClassifyOnlyLocalChanged(t *testing.T) {
	v1 := []byte("# v1\n")
	local := []byte("# local edit\n")
	entry := Entry{BrainFingerprint: Hash(v1), LocalFingerprint: Hash(v1)}

	c := Classify(true, local, v1, entry, true)
	assert.False(t, c.BrainChanged)
	assert.True(t, c.LocalChanged)
}

func TestClassifyDestinationAbsent(t *testing.T) {
	c := Classify(false, nil, []byte("content"), Entry{}, false)
	assert.True(t, c.BrainChanged)
	assert.False(t, c.LocalChanged)
}

func TestLoadMissingFileYieldsEmpty(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, f.Entries)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.yaml")

	f := &File{Entries: make(map[string]Entry)}
	f.Set("app/strings.py", Entry{BrainCommit: "abc123", BrainFingerprint: 42, LocalFingerprint: 42})

	require.NoError(t, Save(f, path))

	loaded, err := Load(path)
	require.NoError(t, err)

	entry, ok := loaded.Get("app/strings.py")
	require.True(t, ok)
	assert.Equal(t, "abc123", entry.BrainCommit)
	assert.Equal(t, Fingerprint(42), entry.BrainFingerprint)
}

func TestRemove(t *testing.T) {
	f := &File{Entries: map[string]Entry{"a": {}}}
	f.Remove("a")
	_, ok := f.Get("a")
	assert.False(t, ok)
}
