// Package storage provides the on-device persistence backends: a sealed
// credential store, a plain key-value file for ordinary state, and a Redis
// variant of both for shared kiosk deployments.
package storage

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const credentialsFile = "credentials.json"

// secureFileDoc is the on-disk layout: a per-store salt plus sealed values.
type secureFileDoc struct {
	Salt   string            `json:"salt"`
	Values map[string]string `json:"values"`
}

// SecureFileStore keeps the credential pair and role tag sealed at rest.
// Values are encrypted with chacha20poly1305 under a key derived from the
// configured passphrase via scrypt; the file is created 0600.
type SecureFileStore struct {
	mu   sync.Mutex
	path string
	aead cipher.AEAD
	doc  secureFileDoc
}

// NewSecureFileStore opens (or creates) the credential store in dir.
func NewSecureFileStore(dir, passphrase string) (*SecureFileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("storage: create state dir: %w", err)
	}

	s := &SecureFileStore{path: filepath.Join(dir, credentialsFile)}

	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		salt := make([]byte, 16)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("storage: generate salt: %w", err)
		}
		s.doc = secureFileDoc{
			Salt:   base64.StdEncoding.EncodeToString(salt),
			Values: map[string]string{},
		}
	case err != nil:
		return nil, fmt.Errorf("storage: read credential store: %w", err)
	default:
		if err := json.Unmarshal(raw, &s.doc); err != nil {
			return nil, fmt.Errorf("storage: parse credential store: %w", err)
		}
		if s.doc.Values == nil {
			s.doc.Values = map[string]string{}
		}
	}

	salt, err := base64.StdEncoding.DecodeString(s.doc.Salt)
	if err != nil {
		return nil, fmt.Errorf("storage: decode salt: %w", err)
	}
	key, err := scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("storage: derive key: %w", err)
	}
	if s.aead, err = chacha20poly1305.New(key); err != nil {
		return nil, fmt.Errorf("storage: init cipher: %w", err)
	}

	return s, nil
}

func (s *SecureFileStore) AccessToken() (string, error)         { return s.get(keyAccess) }
func (s *SecureFileStore) SetAccessToken(token string) error    { return s.set(keyAccess, token) }
func (s *SecureFileStore) RefreshToken() (string, error)        { return s.get(keyRefresh) }
func (s *SecureFileStore) SetRefreshToken(token string) error   { return s.set(keyRefresh, token) }
func (s *SecureFileStore) Role() (string, error)                { return s.get(keyRole) }
func (s *SecureFileStore) SetRole(role string) error            { return s.set(keyRole, role) }

const (
	keyAccess  = "access_token"
	keyRefresh = "refresh_token"
	keyRole    = "role"
)

// ClearAll deletes all stored credentials together.
func (s *SecureFileStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Values = map[string]string{}
	return s.flushLocked()
}

func (s *SecureFileStore) get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, ok := s.doc.Values[key]
	if !ok {
		return "", nil
	}
	blob, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("storage: decode %s: %w", key, err)
	}
	ns := s.aead.NonceSize()
	if len(blob) < ns {
		return "", fmt.Errorf("storage: %s: sealed value too short", key)
	}
	plain, err := s.aead.Open(nil, blob[:ns], blob[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("storage: unseal %s: %w", key, err)
	}
	return string(plain), nil
}

func (s *SecureFileStore) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("storage: generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(value), nil)
	s.doc.Values[key] = base64.StdEncoding.EncodeToString(sealed)
	return s.flushLocked()
}

func (s *SecureFileStore) flushLocked() error {
	raw, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode credential store: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("storage: write credential store: %w", err)
	}
	return nil
}
