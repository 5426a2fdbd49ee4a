// Package credentials keeps database passwords out of the config file by
// storing them in the OS keyring, with an encrypted file fallback.
package credentials

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/99designs/keyring"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

const serviceName = "lazygrid"

// ErrPasswordNotFound is returned when no password is stored for a connection
var ErrPasswordNotFound = errors.New("password not found")

// SaveError reports a keyring write failure
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save password to keyring: %v", e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// ReadError reports a keyring read failure other than a missing entry
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read password from keyring: %v", e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Store reads and writes connection passwords
type Store struct {
	ring          keyring.Keyring
	usingFallback bool
}

// Open opens the platform keyring. The file backend under configDir is used
// when no native backend is available.
func Open(configDir string) (*Store, error) {
	backends := backendsForPlatform()

	ring, err := keyring.Open(keyring.Config{
		ServiceName:     serviceName,
		AllowedBackends: backends,
		FileDir:         filepath.Join(configDir, "keyring"),
		FilePasswordFunc: func(_ string) (string, error) {
			return deriveFilePassword()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}

	return &Store{ring: ring, usingFallback: isUsingFallback(backends)}, nil
}

// New wraps an already opened keyring
func New(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

func backendsForPlatform() []keyring.BackendType {
	switch runtime.GOOS {
	case "darwin":
		return []keyring.BackendType{keyring.KeychainBackend, keyring.FileBackend}
	case "linux":
		return []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.FileBackend}
	case "windows":
		return []keyring.BackendType{keyring.WinCredBackend, keyring.FileBackend}
	default:
		return []keyring.BackendType{keyring.FileBackend}
	}
}

func isUsingFallback(requested []keyring.BackendType) bool {
	if len(requested) == 1 && requested[0] == keyring.FileBackend {
		return true
	}
	for _, b := range keyring.AvailableBackends() {
		if b != keyring.FileBackend {
			return false
		}
	}
	return true
}

// IsUsingFallback reports whether passwords go to the file backend instead
// of the native OS keyring
func (s *Store) IsUsingFallback() bool {
	return s.usingFallback
}

// Save stores the connection's password. Empty passwords are not stored.
func (s *Store) Save(cfg models.ConnectionConfig) error {
	if cfg.Password == "" {
		return nil
	}
	err := s.ring.Set(keyring.Item{
		Key:         key(cfg),
		Data:        []byte(cfg.Password),
		Label:       fmt.Sprintf("lazygrid: %s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Database),
		Description: "PostgreSQL password for lazygrid",
	})
	if err != nil {
		return &SaveError{Err: err}
	}
	return nil
}

// Get returns the stored password for the connection
func (s *Store) Get(cfg models.ConnectionConfig) (string, error) {
	item, err := s.ring.Get(key(cfg))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrPasswordNotFound
		}
		return "", &ReadError{Err: err}
	}
	return string(item.Data), nil
}

// Delete removes the stored password for the connection
func (s *Store) Delete(cfg models.ConnectionConfig) error {
	err := s.ring.Remove(key(cfg))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete password from keyring: %w", err)
	}
	return nil
}

// Resolve fills in cfg.Password from the keyring when the config carries
// none. A missing entry is not an error.
func (s *Store) Resolve(cfg models.ConnectionConfig) (models.ConnectionConfig, error) {
	if cfg.Password != "" || s == nil {
		return cfg, nil
	}
	password, err := s.Get(cfg)
	if errors.Is(err, ErrPasswordNotFound) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	cfg.Password = password
	return cfg, nil
}

// key is "host:port:database:user"
func key(cfg models.ConnectionConfig) string {
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("%s:%d:%s:%s", cfg.Host, port, cfg.Database, cfg.User)
}
