// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrKeyNotReady is returned by [KeyProvider.Key] while derivation is
	// still running.
	ErrKeyNotReady = errors.New("encryption key is not ready")

	// ErrInvalidKey is returned when a key is missing or has the wrong length.
	ErrInvalidKey = errors.New("invalid encryption key")

	// ErrDecrypt wraps every failure to open a blob.
	ErrDecrypt = errors.New("decrypt failed")
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// aesGCM is the AES-256-GCM implementation of [Cipher].
type aesGCM struct{}

// NewAESGCM returns a [Cipher] that seals with AES-256-GCM and prepends a
// random 12-byte nonce: blob = nonce ‖ ciphertext.
func NewAESGCM() Cipher {
	return aesGCM{}
}

func (aesGCM) Encrypt(key, data []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, data, nil)
	return append(nonce, ciphertext...), nil
}

func (aesGCM) Decrypt(key, blob []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}

	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// StaticKey is a [KeyProvider] over an already known key.
type StaticKey []byte

func (k StaticKey) Key() ([]byte, error) {
	if len(k) != KeySize {
		return nil, ErrInvalidKey
	}
	return k, nil
}

// GenerateKey reads a random 256-bit key from the OS CSPRNG.
func GenerateKey() (StaticKey, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// DerivedKey derives the budget key from a passphrase with Argon2id in the
// background. Until derivation finishes Key returns [ErrKeyNotReady].
type DerivedKey struct {
	done chan struct{}
	once sync.Once

	mu  sync.RWMutex
	key []byte
	err error
}

// Argon2id parameters (OWASP 2024): 1 iteration, 64 MiB, 4 lanes, 32 bytes.
const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
)

// NewDerivedKey starts deriving the key from passphrase and salt. Every
// device sharing a budget must use the same salt.
func NewDerivedKey(passphrase string, salt []byte) *DerivedKey {
	d := &DerivedKey{done: make(chan struct{})}
	go d.derive(passphrase, salt)
	return d
}

func (d *DerivedKey) derive(passphrase string, salt []byte) {
	defer d.once.Do(func() { close(d.done) })

	if passphrase == "" || len(salt) == 0 {
		d.mu.Lock()
		d.err = fmt.Errorf("%w: passphrase and salt are required", ErrInvalidKey)
		d.mu.Unlock()
		return
	}

	key := argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, KeySize)

	d.mu.Lock()
	d.key = key
	d.mu.Unlock()
}

// Key implements [KeyProvider].
func (d *DerivedKey) Key() ([]byte, error) {
	select {
	case <-d.done:
	default:
		return nil, ErrKeyNotReady
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.err != nil {
		return nil, d.err
	}
	return d.key, nil
}

// Wait blocks until derivation finishes or ctx is done.
func (d *DerivedKey) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-d.done:
		return d.Key()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
