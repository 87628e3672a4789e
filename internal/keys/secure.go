// Package keys loads signing keys for the CLI: raw hex, age-encrypted key
// files, and BIP-39 mnemonics derived along m/44'/60'/0'/0/i. Key bytes
// are held in locked memory and zeroed once used.
package keys

import (
	"runtime"
	"sync"

	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
)

// SecureBytes holds sensitive bytes in mlocked memory when the platform
// allows it. Destroy zeroes and unlocks the buffer.
type SecureBytes struct {
	mu     sync.Mutex
	data   []byte
	locked bool
}

// NewSecureBytes copies data into a fresh locked buffer. The caller still
// owns data and should zero it.
func NewSecureBytes(data []byte) *SecureBytes {
	buf := make([]byte, len(data))
	copy(buf, data)

	sb := &SecureBytes{data: buf, locked: mlock(buf)}
	runtime.SetFinalizer(sb, (*SecureBytes).Destroy)
	return sb
}

// Use calls fn with the protected bytes. fn must not retain the slice.
// A destroyed buffer passes nil.
func (s *SecureBytes) Use(fn func([]byte) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// PrivateKey copies the buffer into a PrivateKey. The caller zeroes it
// with PrivateKey.Zero after signing.
func (s *SecureBytes) PrivateKey() (ethtypes.PrivateKey, error) {
	var key ethtypes.PrivateKey
	err := s.Use(func(b []byte) error {
		k, err := ethtypes.PrivateKeyFromBytes(b)
		key = k
		return err
	})
	return key, err
}

// IsLocked reports whether the buffer is mlocked.
func (s *SecureBytes) IsLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Len returns the buffer length, 0 once destroyed.
func (s *SecureBytes) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Destroy zeroes and unlocks the buffer. Safe to call more than once.
func (s *SecureBytes) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return
	}
	clear(s.data)
	if s.locked {
		munlock(s.data)
		s.locked = false
	}
	s.data = nil
	runtime.SetFinalizer(s, nil)
}
