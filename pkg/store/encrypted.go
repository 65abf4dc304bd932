package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
)

// EncryptedStore decorates a Store, sealing value bytes with an
// authenticated symmetric primitive before they reach the wrapped backend.
// Keys are never encrypted: the credential index and access-token
// collections rely on the key already being a deterministic hash (I6).
type EncryptedStore struct {
	inner Store
	aead  interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
	}
}

// NewEncryptedStore derives a 32-byte key from passphrase via SHA-256 and
// wraps inner with a ChaCha20-Poly1305 AEAD.
func NewEncryptedStore(inner Store, passphrase string) (*EncryptedStore, error) {
	key := sha256.Sum256([]byte(passphrase))
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("store: build AEAD: %w", err)
	}
	return &EncryptedStore{inner: inner, aead: aead}, nil
}

func (s *EncryptedStore) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("store: generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *EncryptedStore) open(sealed []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n {
		return nil, fmt.Errorf("store: sealed value too short")
	}
	nonce, ciphertext := sealed[:n], sealed[n:]
	return s.aead.Open(nil, nonce, ciphertext, nil)
}

func (s *EncryptedStore) Put(ctx context.Context, collection Collection, key string, value []byte, ttl time.Duration) error {
	sealed, err := s.seal(value)
	if err != nil {
		return err
	}
	return s.inner.Put(ctx, collection, key, sealed, ttl)
}

func (s *EncryptedStore) Get(ctx context.Context, collection Collection, key string) ([]byte, bool, error) {
	sealed, ok, err := s.inner.Get(ctx, collection, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	plaintext, err := s.open(sealed)
	if err != nil {
		return nil, false, fmt.Errorf("store: decrypt value: %w", err)
	}
	return plaintext, true, nil
}

func (s *EncryptedStore) Delete(ctx context.Context, collection Collection, key string) error {
	return s.inner.Delete(ctx, collection, key)
}

func (s *EncryptedStore) Consume(ctx context.Context, collection Collection, key string) ([]byte, bool, error) {
	sealed, ok, err := s.inner.Consume(ctx, collection, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	plaintext, err := s.open(sealed)
	if err != nil {
		return nil, false, fmt.Errorf("store: decrypt value: %w", err)
	}
	return plaintext, true, nil
}
