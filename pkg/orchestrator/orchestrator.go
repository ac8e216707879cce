// Package orchestrator is the sync entry point: it locks the consumer
// root, ensures every referenced brain's cache, walks mappings in
// .neurons order calling the Materializer, and persists one updated
// Baseline at the end of the run.
package orchestrator

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/brainmesh/brain/pkg/baseline"
	"github.com/brainmesh/brain/pkg/braincache"
	"github.com/brainmesh/brain/pkg/config"
	"github.com/brainmesh/brain/pkg/conflict"
	"github.com/brainmesh/brain/pkg/fileutil"
	"github.com/brainmesh/brain/pkg/materializer"
)

// Options configures a sync run.
type Options struct {
	Logger   *zap.SugaredLogger
	Prompter conflict.Prompter
}

func (o Options) logger() *zap.SugaredLogger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop().Sugar()
}

func (o Options) prompter() conflict.Prompter {
	if o.Prompter != nil {
		return o.Prompter
	}
	return conflict.InteractivePrompter{}
}

// SyncAll runs §4.8 over every mapping in the consumer's .neurons file.
// It returns whatever per-mapping results it accumulated even when
// cancelled or when some brains fail to fetch. Failures that abort the
// run before any mapping work begins (config errors, a held lock) return
// no results and an error; a brain that fails to fetch only marks its
// mappings' results as errors; cancellation and a failed Baseline save
// are returned as an error alongside the accumulated results.
func SyncAll(ctx context.Context, consumerRoot string, opts Options) ([]materializer.Result, error) {
	log := opts.logger()

	manifest, err := config.LoadConsumer(config.ConsumerManifestPath(consumerRoot))
	if err != nil {
		return nil, fmt.Errorf("load consumer manifest: %w", err)
	}

	lock := fileutil.NewLockWithRetries(config.LockPath(consumerRoot), 1, 0)
	if err := lock.Acquire(); err != nil {
		return nil, &BusyError{ConsumerRoot: consumerRoot, Owner: lock.CurrentOwnerID()}
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warnw("failed to release sync lock", "error", err)
		}
	}()

	baselinePath, err := config.BaselinePath(consumerRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve baseline path: %w", err)
	}
	bl, err := baseline.Load(baselinePath)
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}

	handles, handleErrs := ensureBrainCaches(consumerRoot, manifest, log)

	var results []materializer.Result
	var runErrs error
	for _, mapping := range manifest.Map {
		select {
		case <-ctx.Done():
			log.Infow("sync cancelled between mappings", "remaining", mapping.Destination)
			runErrs = multierr.Append(runErrs, ctx.Err())
			goto done
		default:
		}

		handle, ok := handles[mapping.BrainID]
		if !ok {
			results = append(results, materializer.Result{
				Status:      materializer.StatusError,
				Destination: mapping.Destination,
				Message:     fmt.Sprintf("brain %s cache unavailable: %v", mapping.BrainID, handleErrs[mapping.BrainID]),
			})
			continue
		}

		res := materializer.SyncOne(consumerRoot, handle, mapping, manifest.Policy, bl, opts.prompter())
		logResult(log, res)
		results = append(results, res)
	}
done:

	if err := baseline.Save(bl, baselinePath); err != nil {
		runErrs = multierr.Append(runErrs, fmt.Errorf("save baseline: %w", err))
	}

	return results, runErrs
}

// SyncOneByDestination runs the Materializer for a single mapping,
// looked up by its destination path.
func SyncOneByDestination(ctx context.Context, consumerRoot, destination string, opts Options) (materializer.Result, error) {
	log := opts.logger()

	manifest, err := config.LoadConsumer(config.ConsumerManifestPath(consumerRoot))
	if err != nil {
		return materializer.Result{}, fmt.Errorf("load consumer manifest: %w", err)
	}

	mapping, ok := manifest.MappingByDestination(destination)
	if !ok {
		return materializer.Result{}, &materializer.SyncError{Kind: materializer.ErrUnknownDestination, Destination: destination}
	}

	lock := fileutil.NewLockWithRetries(config.LockPath(consumerRoot), 1, 0)
	if err := lock.Acquire(); err != nil {
		return materializer.Result{}, &BusyError{ConsumerRoot: consumerRoot, Owner: lock.CurrentOwnerID()}
	}
	defer func() {
		_ = lock.Release()
	}()

	baselinePath, err := config.BaselinePath(consumerRoot)
	if err != nil {
		return materializer.Result{}, fmt.Errorf("resolve baseline path: %w", err)
	}
	bl, err := baseline.Load(baselinePath)
	if err != nil {
		return materializer.Result{}, fmt.Errorf("load baseline: %w", err)
	}

	brainRef, ok := manifest.BrainByID(mapping.BrainID)
	if !ok {
		return materializer.Result{}, fmt.Errorf("brain %s referenced by mapping is not registered", mapping.BrainID)
	}

	cacheDir, err := config.BrainCacheDir(consumerRoot, mapping.BrainID)
	if err != nil {
		return materializer.Result{}, fmt.Errorf("resolve cache dir: %w", err)
	}
	handle, err := braincache.Ensure(cacheDir, mapping.BrainID, brainRef.Remote, brainRef.Branch, []string{mapping.Source})
	if err != nil {
		return materializer.Result{}, err
	}

	res := materializer.SyncOne(consumerRoot, handle, mapping, manifest.Policy, bl, opts.prompter())
	logResult(log, res)

	if err := baseline.Save(bl, baselinePath); err != nil {
		return res, fmt.Errorf("save baseline: %w", err)
	}
	return res, nil
}

// ensureBrainCaches computes the union of required source paths per
// brain id and ensures each brain's cache once, per §4.8 steps 1-2.
func ensureBrainCaches(consumerRoot string, manifest *config.ConsumerManifest, log *zap.SugaredLogger) (map[string]*braincache.Handle, map[string]error) {
	requiredPaths := make(map[string][]string)
	for _, m := range manifest.Map {
		requiredPaths[m.BrainID] = append(requiredPaths[m.BrainID], m.Source)
	}

	handles := make(map[string]*braincache.Handle)
	errs := make(map[string]error)

	for _, brainRef := range manifest.Brains {
		paths, referenced := requiredPaths[brainRef.ID]
		if !referenced {
			continue
		}
		cacheDir, err := config.BrainCacheDir(consumerRoot, brainRef.ID)
		if err != nil {
			errs[brainRef.ID] = err
			log.Errorw("failed to resolve brain cache directory", "brain", brainRef.ID, "error", err)
			continue
		}
		handle, err := braincache.Ensure(cacheDir, brainRef.ID, brainRef.Remote, brainRef.Branch, paths)
		if err != nil {
			errs[brainRef.ID] = err
			log.Errorw("failed to prepare brain cache", "brain", brainRef.ID, "error", err)
			continue
		}
		handles[brainRef.ID] = handle
	}

	return handles, errs
}

func logResult(log *zap.SugaredLogger, res materializer.Result) {
	switch res.Status {
	case materializer.StatusError:
		log.Errorw("mapping sync failed", "destination", res.Destination, "message", res.Message)
	case materializer.StatusConflict:
		log.Warnw("mapping sync resolved a conflict", "destination", res.Destination, "message", res.Message)
	case materializer.StatusSuccess:
		log.Infow("mapping synced", "destination", res.Destination, "requirements_merged", res.RequirementsMerged)
	case materializer.StatusSkipped:
		log.Debugw("mapping unchanged", "destination", res.Destination)
	}
}

// AutoSyncIfConfigured runs SyncAll when the consumer's policy has
// AUTO_SYNC_ON_PULL enabled and a .neurons file is present; used as the
// post-hook for `pull` and `clone`. Absence of a .neurons file is not
// an error: the working tree simply isn't a consumer.
func AutoSyncIfConfigured(ctx context.Context, consumerRoot string, opts Options) ([]materializer.Result, error) {
	if _, err := os.Stat(config.ConsumerManifestPath(consumerRoot)); err != nil {
		return nil, nil
	}
	manifest, err := config.LoadConsumer(config.ConsumerManifestPath(consumerRoot))
	if err != nil {
		return nil, fmt.Errorf("load consumer manifest: %w", err)
	}
	if !manifest.Policy.AutoSyncOnPull {
		return nil, nil
	}
	return SyncAll(ctx, consumerRoot, opts)
}
