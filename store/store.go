// Package store persists the device-local session record: the token
// pair plus the minimal user identity needed to restore a session
// across process restarts. Backends never touch the network.
package store

import "errors"

// Sentinel errors - storage faults
var (
	ErrStoreUnavailable = errors.New("store: backend unavailable on this platform")
	ErrSaveFailed       = errors.New("store: failed to save session record")
	ErrLoadFailed       = errors.New("store: failed to load session record")
	ErrClearFailed      = errors.New("store: failed to clear session record")
)

// Record is the durable counterpart of the in-memory session: the
// token pair plus user id/email. Exactly one session per process
// reads and writes it.
type Record struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	UserEmail    string `json:"user_email"`
}

// Complete reports whether the record carries everything needed to
// restore a session. Partial records are treated the same as absent
// ones by callers.
func (r *Record) Complete() bool {
	return r != nil && r.AccessToken != "" && r.RefreshToken != "" && r.UserID != "" && r.UserEmail != ""
}

// Store is the token store contract. Load returns (nil, nil) when no
// record exists; an error only signals a real read fault. Save and
// Clear failures are non-fatal to the in-memory session — callers log
// them and carry on with a non-persisted session.
type Store interface {
	Save(rec Record) error
	Load() (*Record, error)
	Clear() error
}
