package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// EncryptedToken is the durable envelope for a refresh token.
//
// A non-empty IV marks the AES-256-GCM scheme; an empty IV marks the XOR
// fallback scheme. Decrypt dispatches on that shape, never on configuration,
// so envelopes written under either scheme stay readable.
type EncryptedToken struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv,omitempty"`
}

// IsZero reports whether the envelope holds no token at all.
func (e EncryptedToken) IsZero() bool {
	return e.Ciphertext == ""
}

// TokenCipher encrypts and decrypts refresh tokens with a key derived from a
// configured passphrase.
type TokenCipher struct {
	key    [32]byte // sha256(passphrase), AES-256 key
	xorKey []byte   // md5(passphrase), fallback keystream
}

// NewTokenCipher derives the cipher keys from the passphrase.
func NewTokenCipher(passphrase string) *TokenCipher {
	xor := md5.Sum([]byte(passphrase))
	return &TokenCipher{
		key:    sha256.Sum256([]byte(passphrase)),
		xorKey: xor[:],
	}
}

// Encrypt seals the plaintext under AES-256-GCM with a fresh random nonce.
//
// Nonces are never reused across calls; reuse would leak keystream
// relationships between two tokens. If the AEAD cannot be constructed the
// XOR fallback scheme is used, which produces no IV.
func (c *TokenCipher) Encrypt(plaintext string) EncryptedToken {
	aead, err := c.aead()
	if err != nil {
		return c.encryptFallback(plaintext)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return c.encryptFallback(plaintext)
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)
	return EncryptedToken{
		Ciphertext: hex.EncodeToString(sealed),
		IV:         hex.EncodeToString(nonce),
	}
}

// Decrypt opens an envelope produced by Encrypt under either scheme.
//
// Malformed or tampered input yields ok=false, never a panic and never the
// original plaintext. Callers treat a failure as "no usable refresh token".
func (c *TokenCipher) Decrypt(env EncryptedToken) (string, bool) {
	if env.IsZero() {
		return "", false
	}
	if env.IV != "" {
		return c.decryptGCM(env)
	}
	return c.decryptFallback(env)
}

func (c *TokenCipher) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (c *TokenCipher) decryptGCM(env EncryptedToken) (string, bool) {
	aead, err := c.aead()
	if err != nil {
		return "", false
	}

	nonce, err := hex.DecodeString(env.IV)
	if err != nil || len(nonce) != aead.NonceSize() {
		return "", false
	}

	sealed, err := hex.DecodeString(env.Ciphertext)
	if err != nil {
		return "", false
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", false
	}

	return string(plaintext), true
}

// encryptFallback XORs the plaintext against the md5-derived keystream and
// base64-encodes the result. The missing IV is what routes Decrypt here.
func (c *TokenCipher) encryptFallback(plaintext string) EncryptedToken {
	buf := []byte(plaintext)
	for i := range buf {
		buf[i] ^= c.xorKey[i%len(c.xorKey)]
	}
	return EncryptedToken{Ciphertext: base64.StdEncoding.EncodeToString(buf)}
}

func (c *TokenCipher) decryptFallback(env EncryptedToken) (string, bool) {
	buf, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return "", false
	}
	for i := range buf {
		buf[i] ^= c.xorKey[i%len(c.xorKey)]
	}
	return string(buf), true
}
