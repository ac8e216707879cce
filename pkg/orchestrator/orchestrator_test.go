package orchestrator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainmesh/brain/pkg/config"
	"github.com/brainmesh/brain/pkg/fileutil"
	"github.com/brainmesh/brain/pkg/materializer"
	"github.com/brainmesh/brain/pkg/testutil"
)

func writeConsumerManifest(t *testing.T, consumerRoot, brainID, remote string) {
	t.Helper()
	manifest := config.NewConsumerManifest()
	manifest.AddOrUpdateBrain(brainID, remote, "main")
	_, err := manifest.AddMapping("libs_strings", brainID+"::libs/strings.py::app/strings.py")
	require.NoError(t, err)
	require.NoError(t, config.SaveConsumer(manifest, config.ConsumerManifestPath(consumerRoot)))
}

func TestSyncAllFirstSyncOfFileMapping(t *testing.T) {
	world := testutil.NewTestWorld(t)

	brain := world.NewBrain("sync-brain")
	brain.WriteFile("libs/strings.py", "# v1\n")
	brain.Commit("add strings.py")

	consumerRoot := world.NewConsumer("app")
	writeConsumerManifest(t, consumerRoot, "sync-brain", brain.Remote())

	results, err := SyncAll(context.Background(), consumerRoot, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, materializer.StatusSuccess, results[0].Status)
	assert.Equal(t, "# v1\n", testutil.ReadFile(t, filepath.Join(consumerRoot, "app/strings.py")))
}

func TestSyncAllSecondRunIsNoOp(t *testing.T) {
	world := testutil.NewTestWorld(t)

	brain := world.NewBrain("sync-brain")
	brain.WriteFile("libs/strings.py", "# v1\n")
	brain.Commit("add strings.py")

	consumerRoot := world.NewConsumer("app")
	writeConsumerManifest(t, consumerRoot, "sync-brain", brain.Remote())

	_, err := SyncAll(context.Background(), consumerRoot, Options{})
	require.NoError(t, err)

	results, err := SyncAll(context.Background(), consumerRoot, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, materializer.StatusSkipped, results[0].Status)
}

func TestSyncAllBrainUpdateOverwritesCleanConsumer(t *testing.T) {
	world := testutil.NewTestWorld(t)

	brain := world.NewBrain("sync-brain")
	brain.WriteFile("libs/strings.py", "# v1\n")
	brain.Commit("v1")

	consumerRoot := world.NewConsumer("app")
	writeConsumerManifest(t, consumerRoot, "sync-brain", brain.Remote())

	_, err := SyncAll(context.Background(), consumerRoot, Options{})
	require.NoError(t, err)

	brain.WriteFile("libs/strings.py", "# v2\n")
	brain.Commit("v2")

	results, err := SyncAll(context.Background(), consumerRoot, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, materializer.StatusSuccess, results[0].Status)
	assert.Equal(t, "# v2\n", testutil.ReadFile(t, filepath.Join(consumerRoot, "app/strings.py")))
}

func TestSyncAllFailsFastWhenLockHeld(t *testing.T) {
	world := testutil.NewTestWorld(t)
	brain := world.NewBrain("sync-brain")
	brain.WriteFile("libs/strings.py", "# v1\n")
	brain.Commit("v1")

	consumerRoot := world.NewConsumer("app")
	writeConsumerManifest(t, consumerRoot, "sync-brain", brain.Remote())

	// Manually hold the advisory lock the way another process would.
	lock := fileutil.NewFileLock(config.LockPath(consumerRoot))
	require.NoError(t, lock.Acquire())
	defer lock.Release()

	_, err := SyncAll(context.Background(), consumerRoot, Options{})
	require.Error(t, err)
	var busy *BusyError
	assert.ErrorAs(t, err, &busy)
}
