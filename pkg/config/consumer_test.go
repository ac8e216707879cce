package config

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConsumerRequiresBrain(t *testing.T) {
	path := writeFile(t, "[SYNC_POLICY]\nAUTO_SYNC_ON_PULL = true\n")
	_, err := LoadConsumer(path)
	require.Error(t, err)
}

func TestLoadConsumerDefaultsBranchToMain(t *testing.T) {
	path := writeFile(t, "[BRAIN:shared-libs]\nREMOTE = git@example.com:shared-libs.git\n")
	c, err := LoadConsumer(path)
	require.NoError(t, err)

	ref, ok := c.BrainByID("shared-libs")
	require.True(t, ok)
	assert.Equal(t, "main", ref.Branch)
}

func TestLoadConsumerRejectsInvalidConflictStrategy(t *testing.T) {
	path := writeFile(t, "[BRAIN:shared-libs]\nREMOTE = git@example.com:shared-libs.git\n\n[SYNC_POLICY]\nCONFLICT_STRATEGY = whatever\n")
	_, err := LoadConsumer(path)
	require.Error(t, err)
}

func TestLoadConsumerParsesMapEntries(t *testing.T) {
	path := writeFile(t, `[BRAIN:shared-libs]
REMOTE = git@example.com:shared-libs.git

[MAP]
app/strings.py = shared-libs::libs/strings.py::app/strings.py
`)
	c, err := LoadConsumer(path)
	require.NoError(t, err)
	require.Len(t, c.Map, 1)
	assert.Equal(t, KindFile, c.Map[0].Kind)
	assert.Equal(t, "app/strings.py", c.Map[0].Destination)
}

func TestSaveLoadConsumerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".neurons")

	c := NewConsumerManifest()
	c.AddOrUpdateBrain("shared-libs", "git@example.com:shared-libs.git", "main")
	_, err := c.AddMapping("app/strings.py", "shared-libs::libs/strings.py::app/strings.py")
	require.NoError(t, err)
	c.Policy.ConflictStrategy = StrategyPreferBrain

	require.NoError(t, SaveConsumer(c, path))

	loaded, err := LoadConsumer(path)
	require.NoError(t, err)
	if diff := cmp.Diff(c.Brains, loaded.Brains); diff != "" {
		t.Errorf("Brains mismatch after round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(c.Policy, loaded.Policy); diff != "" {
		t.Errorf("Policy mismatch after round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(c.Map, loaded.Map); diff != "" {
		t.Errorf("Map mismatch after round trip (-want +got):\n%s", diff)
	}
}

// TestSaveLoadConsumerNormalizesMixedCasePolicy is the .neurons analogue of
// the .brain mixed-case regression: SYNC_POLICY.CONFLICT_STRATEGY must
// come back lowercased after a load->save cycle.
func TestSaveLoadConsumerNormalizesMixedCasePolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".neurons")
	original := "[BRAIN:shared-libs]\nREMOTE = git@example.com:shared-libs.git\n\n[SYNC_POLICY]\nCONFLICT_STRATEGY = Prefer_Brain\n"
	require.NoError(t, writeExact(path, original))

	c, err := LoadConsumer(path)
	require.NoError(t, err)
	assert.Equal(t, StrategyPreferBrain, c.Policy.ConflictStrategy)

	require.NoError(t, SaveConsumer(c, path))
	data, err := readFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CONFLICT_STRATEGY = prefer_brain")
	assert.NotContains(t, string(data), "Prefer_Brain")
}

func TestRemoveMapping(t *testing.T) {
	c := NewConsumerManifest()
	c.AddOrUpdateBrain("shared-libs", "git@example.com:shared-libs.git", "main")
	_, err := c.AddMapping("app/strings.py", "shared-libs::libs/strings.py::app/strings.py")
	require.NoError(t, err)

	require.True(t, c.RemoveMapping("app/strings.py"))
	_, ok := c.MappingByDestination("app/strings.py")
	assert.False(t, ok)
}
