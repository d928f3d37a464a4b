package cryptox

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Supported password hashing algorithms.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

// MinBcryptCost is the lowest bcrypt work factor a Hasher will use.
const MinBcryptCost = 10

// Default Argon2id parameters.
const (
	memory      = 19 * 1024 // Memory usage in KiB (19 MiB)
	iterations  = 2         // Iteration count
	parallelism = 1         // Number of threads
	keyLength   = 32        // Length of the generated hash
	saltLength  = 16        // Length of the salt
)

var errMalformedHash = errors.New("malformed password hash")

// Hasher produces and checks salted, adaptive password digests.
//
// New digests use Algorithm. Verify dispatches on the digest prefix, so a
// Hasher configured for argon2id still accepts bcrypt digests and the other
// way round.
type Hasher struct {
	Algorithm  string
	BcryptCost int
	// Pepper is appended to every password before hashing.
	Pepper string
}

// NewHasher returns a Hasher using algorithm with the given pepper. Unknown
// algorithms fall back to argon2id.
func NewHasher(algorithm string, bcryptCost int, pepper string) *Hasher {
	algorithm = strings.ToLower(strings.TrimSpace(algorithm))
	if algorithm != AlgorithmBcrypt {
		algorithm = AlgorithmArgon2id
	}
	return &Hasher{
		Algorithm:  algorithm,
		BcryptCost: max(bcryptCost, MinBcryptCost),
		Pepper:     pepper,
	}
}

// Hash returns a self-describing digest of password with a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	if h.Algorithm == AlgorithmBcrypt {
		return h.hashBcrypt(password)
	}
	return h.hashArgon2id(password)
}

// Verify reports whether password matches digest. A malformed digest is
// treated as a mismatch.
func (h *Hasher) Verify(password, digest string) bool {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		return h.verifyArgon2id(password, digest) == nil
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		return h.verifyBcrypt(password, digest) == nil
	default:
		return false
	}
}

func (h *Hasher) peppered(password string) []byte {
	return []byte(password + h.Pepper)
}

// bcryptInput keys the password with the pepper through HMAC-SHA256 so the
// input stays under bcrypt's 72 byte limit.
func (h *Hasher) bcryptInput(password string) []byte {
	mac := hmac.New(sha256.New, []byte(h.Pepper))
	mac.Write([]byte(password))
	return []byte(base64.RawStdEncoding.EncodeToString(mac.Sum(nil)))
}

func (h *Hasher) hashBcrypt(password string) (string, error) {
	cost := max(h.BcryptCost, MinBcryptCost)
	digest, err := bcrypt.GenerateFromPassword(h.bcryptInput(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(digest), nil
}

func (h *Hasher) verifyBcrypt(password, digest string) error {
	return bcrypt.CompareHashAndPassword([]byte(digest), h.bcryptInput(password))
}

// hashArgon2id returns a PHC-format Argon2id string including salt and parameters.
func (h *Hasher) hashArgon2id(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey(h.peppered(password), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func (h *Hasher) verifyArgon2id(password, encodedHash string) error {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != "v=19" {
		return errMalformedHash
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("%w: parameters: %v", errMalformedHash, err)
	}
	if mem == 0 || iters == 0 || par == 0 {
		return errMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("%w: salt: %v", errMalformedHash, err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return fmt.Errorf("%w: hash", errMalformedHash)
	}

	computed := argon2.IDKey(
		h.peppered(password),
		salt,
		iters,
		mem,
		par,
		uint32(len(expected)), // #nosec G115 - bounded by the decoded digest
	)
	if subtle.ConstantTimeCompare(computed, expected) == 1 {
		return nil
	}
	return errors.New("password does not match")
}

// GeneratePassword returns a random 12 character alphanumeric password.
func GeneratePassword() (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 12
	password := make([]byte, length)
	for i := range password {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		password[i] = charset[n.Int64()]
	}
	return string(password), nil
}
