package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Supported hashing algorithms.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

var (
	ErrEmptySecret        = errors.New("hash secret is empty")
	ErrUnknownAlgorithm   = errors.New("unknown hash algorithm")
	ErrUnknownHashFormat  = errors.New("unrecognized password hash format")
	ErrHasherBusy         = errors.New("password hasher unavailable")
	ErrInvalidHashParams  = errors.New("invalid hash parameters")
	errMalformedArgonHash = errors.New("malformed argon2id hash")
)

// Bounds for argon2id costs, applied to configured params and to parameters
// read back from stored hashes.
const (
	maxArgonTime      = 64
	maxArgonMemoryKiB = 1 << 20 // 1 GiB
	minArgonKeyLen    = 16
	minArgonSaltLen   = 8
)

// HashParams tunes the password KDF and the size of the hashing pool.
type HashParams struct {
	Algorithm  string
	Time       uint32
	MemoryKiB  uint32
	Threads    uint8
	KeyLen     uint32
	SaltLen    uint32
	BcryptCost int
	Workers    int
}

// Hasher derives secret-keyed password hashes. The server secret is mixed in
// with HMAC-SHA256 before the salted KDF runs, so a leaked table alone cannot
// be attacked offline.
type Hasher struct {
	secret []byte
	params HashParams
	pool   *semaphore.Weighted
}

// Ensure implementation of Credentials interface at compile time.
var _ Credentials = (*Hasher)(nil)

func NewHasher(secret string, p HashParams) (*Hasher, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	switch p.Algorithm {
	case AlgorithmArgon2id, AlgorithmBcrypt:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, p.Algorithm)
	}
	if p.Algorithm == AlgorithmArgon2id {
		if err := p.checkArgon2id(); err != nil {
			return nil, err
		}
	}
	if p.Workers < 1 {
		p.Workers = 1
	}
	return &Hasher{
		secret: []byte(secret),
		params: p,
		pool:   semaphore.NewWeighted(int64(p.Workers)),
	}, nil
}

func (p HashParams) checkArgon2id() error {
	switch {
	case p.Time < 1 || p.Time > maxArgonTime:
		return fmt.Errorf("%w: time %d", ErrInvalidHashParams, p.Time)
	case p.Threads < 1:
		return fmt.Errorf("%w: threads %d", ErrInvalidHashParams, p.Threads)
	case p.MemoryKiB > maxArgonMemoryKiB:
		return fmt.Errorf("%w: memory %d KiB", ErrInvalidHashParams, p.MemoryKiB)
	case p.KeyLen < minArgonKeyLen:
		return fmt.Errorf("%w: key length %d", ErrInvalidHashParams, p.KeyLen)
	case p.SaltLen < minArgonSaltLen:
		return fmt.Errorf("%w: salt length %d", ErrInvalidHashParams, p.SaltLen)
	}
	return nil
}

// Hash returns an encoded hash of password suitable for storage.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	var encoded string
	err := h.run(ctx, func() error {
		var err error
		if h.params.Algorithm == AlgorithmBcrypt {
			encoded, err = h.hashBcrypt(password)
		} else {
			encoded, err = h.hashArgon2id(password)
		}
		return err
	})
	return encoded, err
}

// Verify reports whether password matches encoded. The algorithm is taken from
// the encoded value, not from the current configuration.
func (h *Hasher) Verify(ctx context.Context, password, encoded string) (bool, error) {
	var ok bool
	err := h.run(ctx, func() error {
		var err error
		switch {
		case strings.HasPrefix(encoded, "$argon2id$"):
			ok, err = h.verifyArgon2id(password, encoded)
		case strings.HasPrefix(encoded, "$2"):
			ok, err = h.verifyBcrypt(password, encoded)
		default:
			err = ErrUnknownHashFormat
		}
		return err
	})
	return ok, err
}

// run executes CPU-bound work once a pool slot is free.
func (h *Hasher) run(ctx context.Context, work func() error) error {
	if err := h.pool.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %w", ErrHasherBusy, err)
	}
	defer h.pool.Release(1)
	return work()
}

func (h *Hasher) pepper(password string) []byte {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(password))
	return mac.Sum(nil)
}

func (h *Hasher) hashArgon2id(password string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := argon2.IDKey(h.pepper(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Hasher) verifyArgon2id(password, encoded string) (bool, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, errMalformedArgonHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("%w: %w", errMalformedArgonHash, err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("%w: version %d", errMalformedArgonHash, version)
	}
	var (
		memory, time uint32
		threads      uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("%w: %w", errMalformedArgonHash, err)
	}
	if time < 1 || time > maxArgonTime || threads < 1 || memory > maxArgonMemoryKiB {
		return false, fmt.Errorf("%w: m=%d,t=%d,p=%d", errMalformedArgonHash, memory, time, threads)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: salt: %w", errMalformedArgonHash, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%w: key: %w", errMalformedArgonHash, err)
	}
	if len(salt) == 0 || len(want) == 0 {
		return false, fmt.Errorf("%w: empty salt or key", errMalformedArgonHash)
	}

	got := argon2.IDKey(h.pepper(password), salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// bcrypt input is the base64 peppered digest, well under bcrypt's 72 byte cap.
func (h *Hasher) bcryptInput(password string) []byte {
	return []byte(base64.StdEncoding.EncodeToString(h.pepper(password)))
}

func (h *Hasher) hashBcrypt(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(h.bcryptInput(password), h.params.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h *Hasher) verifyBcrypt(password, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), h.bcryptInput(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
