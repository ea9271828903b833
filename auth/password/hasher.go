// Package password hashes and verifies local-account passwords with
// argon2id and generates the throwaway passwords set on federated accounts.
//
//	hasher := password.NewHasher(cfg)
//	hash, err := hasher.Hash("Secret123")
//	err = hasher.Verify("Secret123", hash) // nil or ErrMismatch
package password

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMismatch is returned by Verify for a wrong password and for any
// malformed hash alike.
var ErrMismatch = errors.New("password: mismatch")

// Upper bounds accepted from a stored hash, so a tampered record cannot
// make Verify allocate unbounded memory.
const (
	maxMemoryKiB = 1 << 20
	maxTime      = 16
	maxThreads   = 16
	maxKeyLen    = 64
)

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

// Argon2Hasher implements Hasher using argon2id.
// Hashes use the PHC string format so parameters travel with the hash.
type Argon2Hasher struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen int
	derive  func(password, salt []byte, time, memory uint32, threads uint8, keyLen uint32) []byte
}

// Argon2Option configures the argon2id hasher.
type Argon2Option func(*Argon2Hasher)

// WithTime sets the number of iterations.
func WithTime(t uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.time = t }
}

// WithMemory sets the memory usage in KiB.
func WithMemory(m uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.memory = m }
}

// WithThreads sets the parallelism.
func WithThreads(t uint8) Argon2Option {
	return func(h *Argon2Hasher) { h.threads = t }
}

// NewArgon2Hasher creates an argon2id hasher with m=19456 KiB, t=2, p=1
// unless overridden.
func NewArgon2Hasher(opts ...Argon2Option) *Argon2Hasher {
	h := &Argon2Hasher{
		time:    DefaultTime,
		memory:  DefaultMemory,
		threads: DefaultThreads,
		keyLen:  32,
		saltLen: 16,
		derive:  argon2.IDKey,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash derives an argon2id hash with a fresh random salt:
//
//	$argon2id$v=19$m=MEMORY,t=TIME,p=THREADS$SALT$HASH
func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt, err := randomBytes(h.saltLen)
	if err != nil {
		return "", fmt.Errorf("password: generate salt: %w", err)
	}

	key := h.derive([]byte(password), salt, h.time, h.memory, h.threads, h.keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks password against an encoded hash using the parameters
// embedded in it. Every failure returns ErrMismatch.
func (h *Argon2Hasher) Verify(password, encodedHash string) error {
	p, err := decodeHash(encodedHash)
	if err != nil {
		// Pay the same cost as a real comparison.
		h.derive([]byte(password), make([]byte, h.saltLen), h.time, h.memory, h.threads, h.keyLen)
		return ErrMismatch
	}

	key := h.derive([]byte(password), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	if subtle.ConstantTimeCompare(key, p.key) != 1 {
		return ErrMismatch
	}
	return nil
}

type params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func decodeHash(encoded string) (*params, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, errors.New("invalid argon2id hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, fmt.Errorf("unsupported argon2 version %q", parts[2])
	}

	var p params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, fmt.Errorf("parse argon2id params: %w", err)
	}
	if p.memory == 0 || p.memory > maxMemoryKiB || p.time == 0 || p.time > maxTime ||
		p.threads == 0 || p.threads > maxThreads {
		return nil, errors.New("argon2id params out of range")
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("decode hash: %w", err)
	}
	if len(p.key) == 0 || len(p.key) > maxKeyLen {
		return nil, errors.New("argon2id key length out of range")
	}
	return &p, nil
}
