package braincache

import "fmt"

// ErrorKind identifies which cache operation failed.
type ErrorKind string

const (
	ErrClone    ErrorKind = "Clone"
	ErrFetch    ErrorKind = "Fetch"
	ErrCheckout ErrorKind = "Checkout"
	ErrPush     ErrorKind = "Push"
	ErrCommit   ErrorKind = "Commit"
)

// CacheError reports a failed version-control operation against a
// brain's local working copy.
type CacheError struct {
	Kind    ErrorKind
	BrainID string
	Err     error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("brain cache %s (%s): %v", e.Kind, e.BrainID, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

func newCacheError(kind ErrorKind, brainID string, err error) *CacheError {
	return &CacheError{Kind: kind, BrainID: brainID, Err: err}
}
