package briefs

import (
	"errors"
	"fmt"
)

// ErrPartialRefresh is matched by every *PartialRefreshError.
var ErrPartialRefresh = errors.New("partial brief refresh")

// PartialRefreshError reports descendants whose briefs could not be
// written. It is a warning: the edit that triggered the refresh stands, and
// the next reconcile pass retries.
type PartialRefreshError struct {
	Path   string   // ancestor or subtree root
	Failed []string // descendant (or collection) paths that failed
	Err    error    // combined underlying errors
}

func (e *PartialRefreshError) Error() string {
	return fmt.Sprintf("brief refresh under %s: %d failed: %v", e.Path, len(e.Failed), e.Err)
}

func (e *PartialRefreshError) Unwrap() error { return e.Err }

func (e *PartialRefreshError) Is(target error) bool { return target == ErrPartialRefresh }

// RefreshResult counts the outcome of a refresh or reconcile pass.
type RefreshResult struct {
	Visited int `json:"visited"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}
