package exporter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainmesh/brain/pkg/baseline"
	"github.com/brainmesh/brain/pkg/config"
	"github.com/brainmesh/brain/pkg/testutil"
)

func setupConsumer(t *testing.T, world *testutil.TestWorld, brain *testutil.TestBrain, export []config.ExportEntry) string {
	t.Helper()

	brainManifest := config.NewBrainManifest("sync-brain", "demo brain", export)
	require.NoError(t, config.SaveBrain(brainManifest, filepath.Join(brain.Dir, config.BrainFileName)))
	brain.Commit("add .brain manifest")

	consumerRoot := world.NewConsumer("app")
	manifest := config.NewConsumerManifest()
	manifest.AddOrUpdateBrain("sync-brain", brain.Remote(), "main")
	manifest.Policy.AllowPushToBrain = true
	_, err := manifest.AddMapping("strings", "sync-brain::libs/strings.py::app/strings.py")
	require.NoError(t, err)
	require.NoError(t, config.SaveConsumer(manifest, config.ConsumerManifestPath(consumerRoot)))

	return consumerRoot
}

func TestExportWritesPermittedFile(t *testing.T) {
	world := testutil.NewTestWorld(t)
	brain := world.NewBrain("sync-brain")
	brain.WriteFile("libs/strings.py", "# v1\n")
	brain.Commit("add strings.py")

	consumerRoot := setupConsumer(t, world, brain, []config.ExportEntry{
		{Pattern: "libs/strings.py", Permission: config.PermReadwrite},
	})
	testutil.WriteFile(t, filepath.Join(consumerRoot, "app/strings.py"), "# edited locally\n")

	bl := &baseline.File{Entries: make(map[string]baseline.Entry)}
	res, err := Export(consumerRoot, "app/strings.py", false, bl, nil)
	require.NoError(t, err)
	assert.Equal(t, "libs/strings.py", res.BrainSource)
	assert.Equal(t, "# edited locally\n", brain.ReadCommitted("libs/strings.py"))

	entry, ok := bl.Get("app/strings.py")
	require.True(t, ok)
	assert.NotZero(t, entry.LocalFingerprint)
}

func TestExportDeniedReadOnly(t *testing.T) {
	world := testutil.NewTestWorld(t)
	brain := world.NewBrain("sync-brain")
	brain.WriteFile("libs/strings.py", "# v1\n")
	brain.Commit("add strings.py")

	consumerRoot := setupConsumer(t, world, brain, []config.ExportEntry{
		{Pattern: "libs/strings.py", Permission: config.PermReadonly},
	})
	testutil.WriteFile(t, filepath.Join(consumerRoot, "app/strings.py"), "# edited locally\n")

	bl := &baseline.File{Entries: make(map[string]baseline.Entry)}
	_, err := Export(consumerRoot, "app/strings.py", false, bl, nil)
	require.Error(t, err)

	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, ErrReadOnly, exportErr.Kind)
}

// TestExportForceBypassesProtectedPath exercises the --force path: a
// protected source is refused without --force, and permitted with it.
// Export also logs a warning for the bypass; this test passes a nil
// logger and does not check the log.
func TestExportForceBypassesProtectedPath(t *testing.T) {
	world := testutil.NewTestWorld(t)
	brain := world.NewBrain("sync-brain")
	brain.WriteFile("libs/strings.py", "# v1\n")
	brain.WriteFile(config.BrainFileName,
		"[BRAIN]\nID = sync-brain\n\n[EXPORT]\nlibs/strings.py = readwrite\n\n[UPDATE_POLICY]\nPROTECTED_PATHS = libs/strings.py\n")
	brain.Commit("add strings.py and .brain manifest")

	consumerRoot := world.NewConsumer("app")
	manifest := config.NewConsumerManifest()
	manifest.AddOrUpdateBrain("sync-brain", brain.Remote(), "main")
	manifest.Policy.AllowPushToBrain = true
	_, err := manifest.AddMapping("strings", "sync-brain::libs/strings.py::app/strings.py")
	require.NoError(t, err)
	require.NoError(t, config.SaveConsumer(manifest, config.ConsumerManifestPath(consumerRoot)))

	testutil.WriteFile(t, filepath.Join(consumerRoot, "app/strings.py"), "# edited locally\n")

	bl := &baseline.File{Entries: make(map[string]baseline.Entry)}

	_, err = Export(consumerRoot, "app/strings.py", false, bl, nil)
	require.Error(t, err)
	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, ErrProtected, exportErr.Kind)

	res, err := Export(consumerRoot, "app/strings.py", true, bl, nil)
	require.NoError(t, err)
	assert.Equal(t, "libs/strings.py", res.BrainSource)
}

func TestExportNotMapped(t *testing.T) {
	world := testutil.NewTestWorld(t)
	brain := world.NewBrain("sync-brain")
	brain.WriteFile("libs/strings.py", "# v1\n")
	brain.Commit("add strings.py")

	consumerRoot := setupConsumer(t, world, brain, []config.ExportEntry{
		{Pattern: "libs/strings.py", Permission: config.PermReadwrite},
	})

	bl := &baseline.File{Entries: make(map[string]baseline.Entry)}
	_, err := Export(consumerRoot, "app/unrelated.py", false, bl, nil)
	require.Error(t, err)

	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, ErrNotMapped, exportErr.Kind)
}
