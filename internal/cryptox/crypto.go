// Package cryptox is the client's opaque encryption seam. The reconciliation
// core treats key material and ciphertext as black boxes and only needs
// "decrypt(ciphertext, keys) -> cleartext" to surface node names and extended
// attributes. Key management and signing live outside this module.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// nonceSize is the AES-GCM nonce length used throughout the client store.
const nonceSize = 12

// DeriveNodeKey derives a 32-byte AES key from a node passphrase and salt.
func DeriveNodeKey(passphrase []byte, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, 32)
}

// Encrypt seals plaintext with AES-GCM under the given key. A fresh random
// 12-byte nonce is generated per call and returned alongside the ciphertext.
func Encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	return aesgcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Decrypt opens an AES-GCM ciphertext produced by Encrypt.
func Decrypt(ciphertext, nonce, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return aesgcm.Open(nil, nonce, ciphertext, nil)
}

// EncryptJSON serializes v to JSON and encrypts it with Encrypt.
func EncryptJSON(v any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	return Encrypt(plaintext, key)
}

// DecryptJSON decrypts a ciphertext produced by EncryptJSON and unmarshals
// the resulting JSON into v.
func DecryptJSON(ciphertext, nonce, key []byte, v any) error {
	plaintext, err := Decrypt(ciphertext, nonce, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(plaintext, v)
}

// EncryptPacked encrypts plaintext and returns base64(nonce || ciphertext),
// the single-string form used for extended-attribute blobs on the wire.
func EncryptPacked(plaintext, key []byte) (string, error) {
	ciphertext, nonce, err := Encrypt(plaintext, key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(append(nonce, ciphertext...)), nil
}

// DecryptPacked reverses EncryptPacked.
func DecryptPacked(packed string, key []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(packed)
	if err != nil {
		return nil, err
	}
	if len(raw) < nonceSize {
		return nil, fmt.Errorf("packed payload too short: %d bytes", len(raw))
	}
	return Decrypt(raw[nonceSize:], raw[:nonceSize], key)
}
