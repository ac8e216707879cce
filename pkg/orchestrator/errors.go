package orchestrator

import "fmt"

// BusyError reports that another process already holds the consumer's
// advisory sync lock. Owner, when known, is the lock-holder's token
// (pkg/fileutil.FileLock.CurrentOwnerID), useful for correlating with
// that run's logs.
type BusyError struct {
	ConsumerRoot string
	Owner        string
}

func (e *BusyError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("sync already in progress for %s (advisory lock held by %s)", e.ConsumerRoot, e.Owner)
	}
	return fmt.Sprintf("sync already in progress for %s (advisory lock held)", e.ConsumerRoot)
}
