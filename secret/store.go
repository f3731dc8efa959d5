package secret

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

var (
	// ErrNotSet is returned by sources that have no value to offer.
	ErrNotSet = errors.New("secret not set")
)

const redacted = "[REDACTED]"

// Secret is an opaque, immutable byte string.
//
// The zero value is an empty secret, which callers treat as "unset".
type Secret struct {
	b []byte
}

// New copies value into a Secret.
func New(value []byte) Secret {
	if len(value) == 0 {
		return Secret{}
	}
	b := make([]byte, len(value))
	copy(b, value)
	return Secret{b: b}
}

// Bytes returns a copy of the key material.
func (s Secret) Bytes() []byte {
	if len(s.b) == 0 {
		return nil
	}
	out := make([]byte, len(s.b))
	copy(out, s.b)
	return out
}

// Len reports the secret length in bytes.
func (s Secret) Len() int {
	return len(s.b)
}

// IsZero reports whether the secret is empty.
func (s Secret) IsZero() bool {
	return len(s.b) == 0
}

func (s Secret) String() string {
	return redacted
}

func (s Secret) GoString() string {
	return "secret.Secret{" + redacted + "}"
}

// Format keeps %x, %q and friends from leaking key material.
func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(redacted))
}

// Store holds a single secret that is set at most once.
//
// Store is safe for concurrent use. The zero value is an unset store.
type Store struct {
	mu     sync.RWMutex
	secret Secret
	set    bool
}

// Init sets the secret if the store has not been initialized yet.
//
// An empty value leaves the store unset so a later Init may still succeed. Init reports whether
// value was stored.
func (s *Store) Init(value []byte) bool {
	if len(value) == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set {
		return false
	}
	s.secret = New(value)
	s.set = true
	return true
}

// Get returns the secret and whether it has been configured.
func (s *Store) Get() (Secret, bool) {
	if s == nil {
		return Secret{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.secret, s.set
}

// Process is the store shared by every call site in the current process.
var Process = &Store{}

// FromFile reads a secret file, dropping one trailing line ending.
func FromFile(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrNotSet)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secret file: %w", err)
	}
	v := strings.TrimSuffix(strings.TrimSuffix(string(raw), "\n"), "\r")
	if v == "" {
		return nil, fmt.Errorf("%w: file %s is empty", ErrNotSet, path)
	}
	return []byte(v), nil
}
