package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize     = 16     // Salt size in bytes, one per sealed blob
	KeySize      = 32     // AES-256 key size
	NonceSize    = 12     // GCM nonce size
	TagSize      = 16     // GCM authentication tag size
	DefaultIters = 210000 // Default PBKDF2 iterations (OWASP minimum)
	DefaultTime  = 3      // Default Argon2id passes

	argon2Memory  = 64 * 1024 // KiB
	argon2Threads = 4

	magic         = "SVLT"
	formatVersion = 1
	headerSize    = len(magic) + 1 + 1 + 4 + SaltSize
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrAuthFailed        = errors.New("authentication failed")
	ErrUnknownKDF        = errors.New("unknown key derivation function")
)

// KDF identifies the password-based key derivation function.
type KDF byte

const (
	PBKDF2   KDF = 1 // PBKDF2-HMAC-SHA256
	Argon2id KDF = 2
)

func (k KDF) String() string {
	switch k {
	case PBKDF2:
		return "pbkdf2"
	case Argon2id:
		return "argon2id"
	default:
		return fmt.Sprintf("kdf(%d)", byte(k))
	}
}

// ParseKDF maps a configuration name to a KDF.
func ParseKDF(name string) (KDF, error) {
	switch name {
	case "", "pbkdf2":
		return PBKDF2, nil
	case "argon2id", "argon2":
		return Argon2id, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownKDF, name)
	}
}

// Params selects the KDF used when sealing new blobs.
// Cost is the iteration count for PBKDF2 and the time cost for Argon2id.
type Params struct {
	KDF  KDF
	Cost uint32
}

func (p Params) withDefaults() Params {
	if p.KDF == 0 {
		p.KDF = PBKDF2
	}
	if p.Cost == 0 {
		switch p.KDF {
		case Argon2id:
			p.Cost = DefaultTime
		default:
			p.Cost = DefaultIters
		}
	}
	return p
}

// DeriveKey derives an AES-256 key from a password and salt.
func DeriveKey(password, salt []byte, params Params) ([]byte, error) {
	params = params.withDefaults()
	switch params.KDF {
	case PBKDF2:
		return pbkdf2.Key(password, salt, int(params.Cost), KeySize, sha256.New), nil
	case Argon2id:
		return argon2.IDKey(password, salt, params.Cost, argon2Memory, argon2Threads, KeySize), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKDF, params.KDF)
	}
}

// Cipher seals and opens blobs with keys derived from one password.
//
// Every blob carries its own KDF id, cost and salt in a header that is
// authenticated as GCM associated data, so blobs written under different
// parameters can still be opened. Derived keys are cached per header.
type Cipher struct {
	password []byte
	params   Params
	salt     []byte

	mu   sync.Mutex
	keys map[string][]byte
}

// NewCipher creates a cipher bound to password. New blobs are sealed with
// params and a salt generated once for this cipher.
func NewCipher(password []byte, params Params) (*Cipher, error) {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	pw := make([]byte, len(password))
	copy(pw, password)

	return &Cipher{
		password: pw,
		params:   params.withDefaults(),
		salt:     salt,
		keys:     make(map[string][]byte),
	}, nil
}

// Seal encrypts plaintext using AES-256-GCM.
func (c *Cipher) Seal(plaintext []byte) ([]byte, error) {
	header := encodeHeader(c.params, c.salt)

	key, err := c.key(header, c.params, c.salt)
	if err != nil {
		return nil, err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce, err := GenerateRandom(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	result := make([]byte, 0, headerSize+NonceSize+len(plaintext)+TagSize)
	result = append(result, header...)
	result = append(result, nonce...)
	return gcm.Seal(result, nonce, plaintext, header), nil
}

// Open decrypts a blob produced by Seal. A wrong password and a modified
// blob both yield ErrAuthFailed.
func (c *Cipher) Open(blob []byte) ([]byte, error) {
	if len(blob) < headerSize+NonceSize+TagSize {
		return nil, ErrInvalidCiphertext
	}

	header := blob[:headerSize]
	params, salt, err := decodeHeader(header)
	if err != nil {
		return nil, err
	}

	key, err := c.key(header, params, salt)
	if err != nil {
		return nil, err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := blob[headerSize : headerSize+NonceSize]
	plaintext, err := gcm.Open(nil, nonce, blob[headerSize+NonceSize:], header)
	if err != nil {
		return nil, ErrAuthFailed
	}

	return plaintext, nil
}

// Destroy clears the password and every derived key from memory.
func (c *Cipher) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	ClearBytes(c.password)
	for id, key := range c.keys {
		ClearBytes(key)
		delete(c.keys, id)
	}
}

func (c *Cipher) key(header []byte, params Params, salt []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := string(header)
	if key, ok := c.keys[id]; ok {
		return key, nil
	}

	key, err := DeriveKey(c.password, salt, params)
	if err != nil {
		return nil, err
	}
	c.keys[id] = key
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Inspect returns the KDF parameters recorded in a sealed blob without
// decrypting it.
func Inspect(blob []byte) (Params, error) {
	if len(blob) < headerSize+NonceSize+TagSize {
		return Params{}, ErrInvalidCiphertext
	}
	params, _, err := decodeHeader(blob[:headerSize])
	return params, err
}

// Header layout: magic(4) | version(1) | kdf(1) | cost(4, big endian) | salt(16)
func encodeHeader(params Params, salt []byte) []byte {
	header := make([]byte, 0, headerSize)
	header = append(header, magic...)
	header = append(header, formatVersion, byte(params.KDF))
	header = binary.BigEndian.AppendUint32(header, params.Cost)
	return append(header, salt...)
}

func decodeHeader(header []byte) (Params, []byte, error) {
	if !bytes.Equal(header[:len(magic)], []byte(magic)) {
		return Params{}, nil, ErrInvalidCiphertext
	}
	rest := header[len(magic):]
	if rest[0] != formatVersion {
		return Params{}, nil, fmt.Errorf("%w: unsupported format version %d", ErrInvalidCiphertext, rest[0])
	}

	params := Params{
		KDF:  KDF(rest[1]),
		Cost: binary.BigEndian.Uint32(rest[2:6]),
	}
	if params.KDF != PBKDF2 && params.KDF != Argon2id {
		return Params{}, nil, fmt.Errorf("%w: %s", ErrUnknownKDF, params.KDF)
	}
	if params.Cost == 0 {
		return Params{}, nil, ErrInvalidCiphertext
	}

	return params, rest[6 : 6+SaltSize], nil
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
