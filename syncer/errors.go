package syncer

import (
	"errors"
	"fmt"
)

// Kind classifies a sync failure so the surface can tell the user what to
// fix: check the network, the token, the gist id, the configuration, or
// the local database.
type Kind string

const (
	KindNetwork  Kind = "network"
	KindAuth     Kind = "auth"
	KindNotFound Kind = "not_found"
	KindConfig   Kind = "config"
	KindStorage  Kind = "storage"
)

// SyncError wraps a failure from any stage of the pull-merge-push cycle.
type SyncError struct {
	Kind Kind
	Op   string // "fetch", "merge", "persist", "push"
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// ErrNotConfigured is returned when sync runs without a remote configured.
var ErrNotConfigured = errors.New("sync not configured")

// KindOf extracts the failure kind, defaulting to network for plain errors.
func KindOf(err error) Kind {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, ErrNotConfigured) {
		return KindConfig
	}
	return KindNetwork
}
