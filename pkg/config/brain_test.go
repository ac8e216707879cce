package config

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBrainRequiresID(t *testing.T) {
	path := writeFile(t, "[BRAIN]\n[EXPORT]\nlibs/ = readonly\n")
	_, err := LoadBrain(path)
	require.Error(t, err)
}

func TestLoadBrainRequiresExport(t *testing.T) {
	path := writeFile(t, "[BRAIN]\nID = shared-libs\n")
	_, err := LoadBrain(path)
	require.Error(t, err)
}

func TestLoadBrainLowercasesExportPermission(t *testing.T) {
	path := writeFile(t, "[BRAIN]\nID = shared-libs\n[EXPORT]\nlibs/ = ReadOnly\n")
	m, err := LoadBrain(path)
	require.NoError(t, err)

	perm, ok := m.ExportPermission("libs/")
	require.True(t, ok)
	assert.Equal(t, PermReadonly, perm)
}

func TestLoadBrainDuplicateExportPattern(t *testing.T) {
	path := writeFile(t, "[BRAIN]\nID = shared-libs\n[EXPORT]\nlibs/ = readonly\nlibs/ = readwrite\n")
	_, err := LoadBrain(path)
	require.Error(t, err)
}

func TestSaveLoadBrainRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".brain")

	m := NewBrainManifest("shared-libs", "a shared brain", []ExportEntry{
		{Pattern: "libs/", Permission: PermReadonly},
		{Pattern: "app/config.py", Permission: PermReadwrite},
	})
	require.NoError(t, SaveBrain(m, path))

	loaded, err := LoadBrain(path)
	require.NoError(t, err)
	assert.Equal(t, m.ID, loaded.ID)
	assert.Equal(t, m.Description, loaded.Description)
	if diff := cmp.Diff(m.Export, loaded.Export); diff != "" {
		t.Errorf("Export mismatch after round trip (-want +got):\n%s", diff)
	}
}

// TestSaveLoadBrainNormalizesMixedCasePermissions is the regression test
// for the round-trip invariant in spec §8: a .brain written with
// mixed-case EXPORT permissions must come back lowercased after a
// load->save cycle, not reproduce the original casing.
func TestSaveLoadBrainNormalizesMixedCasePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".brain")
	original := "[BRAIN]\nID = shared-libs\n\n[EXPORT]\nlibs/ = ReadOnly\napp/config.py = ReadWrite\n"
	require.NoError(t, writeExact(path, original))

	m, err := LoadBrain(path)
	require.NoError(t, err)
	require.NoError(t, SaveBrain(m, path))

	reloaded, err := LoadBrain(path)
	require.NoError(t, err)

	permLibs, ok := reloaded.ExportPermission("libs/")
	require.True(t, ok)
	assert.Equal(t, PermReadonly, permLibs)

	permApp, ok := reloaded.ExportPermission("app/config.py")
	require.True(t, ok)
	assert.Equal(t, PermReadwrite, permApp)

	data, err := readFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "libs/ = readonly")
	assert.Contains(t, string(data), "app/config.py = readwrite")
	assert.NotContains(t, string(data), "ReadOnly")
	assert.NotContains(t, string(data), "ReadWrite")
}

func TestSaveLoadBrainIdempotentAfterSecondRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".brain")

	m := NewBrainManifest("shared-libs", "", []ExportEntry{{Pattern: "libs/", Permission: PermReadonly}})
	require.NoError(t, SaveBrain(m, path))
	first, err := readFile(path)
	require.NoError(t, err)

	loaded, err := LoadBrain(path)
	require.NoError(t, err)
	require.NoError(t, SaveBrain(loaded, path))
	second, err := readFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}
