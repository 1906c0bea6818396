package codec

import (
	"crypto/aes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// DefaultKey is the well-known key shared by all appliances of this family.
// It protects only the discovery identity payload and the initial bind
// request; once a device is bound, traffic switches to its private key.
// This value is part of the external protocol and must not change.
const DefaultKey = "a3K8Bx%2r8Y7#xDh"

// KeySize is the required key length in bytes (AES-128).
const KeySize = 16

// DecodeError indicates a payload that could not be decrypted or decoded.
// The engine treats these as droppable: they are logged and discarded,
// never propagated across the public interface.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode failed: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Encrypt serializes v as JSON, encrypts it with AES-128-ECB under the
// given key, and returns the base64-encoded ciphertext. The plaintext is
// padded to the block size with PKCS#7.
func Encrypt(v any, key string) (string, error) {
	if len(key) != KeySize {
		return "", fmt.Errorf("invalid key length %d (want %d)", len(key), KeySize)
	}

	plain, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	padded := pad(plain, aes.BlockSize)
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += aes.BlockSize {
		block.Encrypt(out[i:i+aes.BlockSize], padded[i:i+aes.BlockSize])
	}

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt: base64-decode, AES-128-ECB decrypt, strip the
// PKCS#7 padding. It returns the plaintext JSON bytes; callers unmarshal
// into their expected payload shape. All failures are *DecodeError.
func Decrypt(payload string, key string) ([]byte, error) {
	if len(key) != KeySize {
		return nil, &DecodeError{Reason: fmt.Sprintf("invalid key length %d", len(key))}
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &DecodeError{Reason: "invalid base64", Err: err}
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return nil, &DecodeError{Reason: fmt.Sprintf("ciphertext length %d not a block multiple", len(raw))}
	}

	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, &DecodeError{Reason: "cipher init", Err: err}
	}

	plain := make([]byte, len(raw))
	for i := 0; i < len(raw); i += aes.BlockSize {
		block.Decrypt(plain[i:i+aes.BlockSize], raw[i:i+aes.BlockSize])
	}

	plain, err = unpad(plain, aes.BlockSize)
	if err != nil {
		return nil, &DecodeError{Reason: "invalid padding", Err: err}
	}

	// A wrong key produces garbage that very rarely survives the padding
	// check, but when it does the result is not JSON. Reject it here so
	// callers can rely on well-formed plaintext.
	if !json.Valid(plain) {
		return nil, &DecodeError{Reason: "plaintext is not valid JSON"}
	}

	return plain, nil
}

// DecryptInto decrypts payload and unmarshals the plaintext into out.
func DecryptInto(payload string, key string, out any) error {
	plain, err := Decrypt(payload, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plain, out); err != nil {
		return &DecodeError{Reason: "unexpected payload shape", Err: err}
	}
	return nil
}

// pad appends PKCS#7 padding up to the next multiple of blockSize.
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

// unpad validates and strips PKCS#7 padding.
func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty plaintext")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("padding length %d out of range", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("inconsistent padding bytes")
		}
	}
	return data[:len(data)-n], nil
}
