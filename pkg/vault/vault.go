package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyLen     = 32
	kdfRounds  = 4096
	saltString = "channelsync/credential-vault/v1"
)

// ErrEmptySecret signals a vault constructed without a site secret.
var ErrEmptySecret = errors.New("vault secret is required")

// Vault encrypts per-channel API credentials at rest. Blobs are
// base64(iv || AES-256-CBC ciphertext) over a JSON payload. The key is
// derived once from the site-wide secret at construction time.
type Vault struct {
	key []byte
}

// New derives the AES key from the site-wide secret.
func New(secret string) (*Vault, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	key := pbkdf2.Key([]byte(secret), []byte(saltString), kdfRounds, keyLen, sha256.New)
	return &Vault{key: key}, nil
}

// Encrypt serializes the credential map and returns the storable blob.
func (v *Vault) Encrypt(credentials map[string]string) (string, error) {
	if credentials == nil {
		credentials = map[string]string{}
	}
	plaintext, err := json.Marshal(credentials)
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(append(iv, ciphertext...)), nil
}

// Decrypt reverses Encrypt. Legacy rows predate encryption and hold plain
// JSON, so any decrypt failure falls back to a plain decode; a blob that is
// neither yields an empty map rather than an error, because sync paths must
// keep running for the channels that are configured correctly.
func (v *Vault) Decrypt(blob string) map[string]string {
	if blob == "" {
		return map[string]string{}
	}

	if creds, err := v.decrypt(blob); err == nil {
		return creds
	}

	var legacy map[string]string
	if err := json.Unmarshal([]byte(blob), &legacy); err == nil && legacy != nil {
		return legacy
	}
	return map[string]string{}
}

func (v *Vault) decrypt(blob string) (map[string]string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("decode blob: %w", err)
	}
	if len(raw) < aes.BlockSize || len(raw)%aes.BlockSize != 0 {
		return nil, errors.New("blob too short or misaligned")
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	iv, ciphertext := raw[:aes.BlockSize], raw[aes.BlockSize:]
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return nil, err
	}

	var creds map[string]string
	if err := json.Unmarshal(unpadded, &creds); err != nil {
		return nil, fmt.Errorf("unmarshal credentials: %w", err)
	}
	if creds == nil {
		creds = map[string]string{}
	}
	return creds, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-padding], nil
}
