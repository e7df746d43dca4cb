package store

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// Keyring item keys. One item per field, so a session written by an
// older build stays readable.
const (
	keyAccessToken  = "wani_access_token"
	keyRefreshToken = "wani_refresh_token"
	keyUserID       = "wani_user_id"
	keyUserEmail    = "wani_user_email"
)

const serviceName = "wani"

// KeyringStore persists the session record in the OS keyring
// (Keychain on macOS, Secret Service on Linux, Credential Manager on
// Windows). This is the default backend; platforms without a usable
// keyring fall back to FileStore.
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore opens the OS keyring. fileDir is used by keyring
// backends that need a directory (e.g. the encrypted file backend).
func NewKeyringStore(fileDir string) (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:              serviceName,
		KeychainTrustApplication: true,
		FileDir:                  fileDir,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &KeyringStore{ring: ring}, nil
}

// newKeyringStoreFrom wraps an already-open keyring. Used by tests
// with the in-memory array backend.
func newKeyringStoreFrom(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// Save writes all four session items.
func (s *KeyringStore) Save(rec Record) error {
	items := map[string]string{
		keyAccessToken:  rec.AccessToken,
		keyRefreshToken: rec.RefreshToken,
		keyUserID:       rec.UserID,
		keyUserEmail:    rec.UserEmail,
	}
	for key, value := range items {
		if err := s.ring.Set(keyring.Item{Key: key, Data: []byte(value)}); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSaveFailed, key, err)
		}
	}
	return nil
}

// Load reads the session items. If any item is absent the whole
// record is treated as absent — a partial session is not restorable.
func (s *KeyringStore) Load() (*Record, error) {
	var rec Record
	for key, dst := range map[string]*string{
		keyAccessToken:  &rec.AccessToken,
		keyRefreshToken: &rec.RefreshToken,
		keyUserID:       &rec.UserID,
		keyUserEmail:    &rec.UserEmail,
	} {
		item, err := s.ring.Get(key)
		if err != nil {
			if errors.Is(err, keyring.ErrKeyNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, key, err)
		}
		*dst = string(item.Data)
	}
	if !rec.Complete() {
		return nil, nil
	}
	return &rec, nil
}

// Clear removes all session items. Absent items are ignored.
func (s *KeyringStore) Clear() error {
	for _, key := range []string{keyAccessToken, keyRefreshToken, keyUserID, keyUserEmail} {
		if err := s.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s: %v", ErrClearFailed, key, err)
		}
	}
	return nil
}
