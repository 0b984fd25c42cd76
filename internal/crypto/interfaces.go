package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/crypto_mock.go -package=mock

// Cipher is the encryption collaborator of the cloud transport. The engine
// never looks inside a blob; it only round-trips bytes through this
// interface.
type Cipher interface {
	// Encrypt seals data with key. The returned blob is self-contained
	// (nonce ‖ ciphertext) and safe to store remotely.
	Encrypt(key, data []byte) ([]byte, error)

	// Decrypt opens a blob produced by Encrypt. A wrong key or a tampered
	// blob yields an error wrapping [ErrDecrypt].
	Decrypt(key, blob []byte) ([]byte, error)
}

// KeyProvider hands out the budget encryption key.
//
// Key is non-blocking: while the key is still being derived it returns
// [ErrKeyNotReady] so callers can fail fast instead of waiting.
type KeyProvider interface {
	Key() ([]byte, error)
}
