package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testHasher(t *testing.T, algorithm string) *Hasher {
	t.Helper()
	return NewHasher(algorithm, MinBcryptCost, "test-pepper")
}

func TestHasher_Argon2id(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 1024)},
		{"unicode password", "contraseña🔒密码"},
		{"whitespace password", "   spaces   "},
	}

	h := testHasher(t, AlgorithmArgon2id)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)
			require.NotEqual(t, tt.password, hash)
			require.NotContains(t, hash, tt.password)

			// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6)
			require.Equal(t, "argon2id", parts[1])
			require.Equal(t, "v=19", parts[2])
			require.Contains(t, parts[3], "m=")
			require.NotEmpty(t, parts[4])
			require.NotEmpty(t, parts[5])

			require.True(t, h.Verify(tt.password, hash))
			require.False(t, h.Verify(tt.password+"x", hash))
		})
	}
}

func TestHasher_Bcrypt(t *testing.T) {
	h := testHasher(t, AlgorithmBcrypt)

	hash, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$2a$10$"), "unexpected digest %q", hash)

	require.True(t, h.Verify("s3cret-pass", hash))
	require.False(t, h.Verify("s3cret-pasS", hash))

	long := strings.Repeat("p", 500)
	hash, err = h.Hash(long)
	require.NoError(t, err)
	require.True(t, h.Verify(long, hash))
	require.False(t, h.Verify(long[:499], hash))
}

func TestHasher_SaltedDigestsDiffer(t *testing.T) {
	for _, algo := range []string{AlgorithmArgon2id, AlgorithmBcrypt} {
		t.Run(algo, func(t *testing.T) {
			h := testHasher(t, algo)
			a, err := h.Hash("same-password")
			require.NoError(t, err)
			b, err := h.Hash("same-password")
			require.NoError(t, err)
			require.NotEqual(t, a, b)
		})
	}
}

func TestHasher_VerifiesAcrossAlgorithms(t *testing.T) {
	argon := testHasher(t, AlgorithmArgon2id)
	bc := testHasher(t, AlgorithmBcrypt)

	fromBcrypt, err := bc.Hash("password")
	require.NoError(t, err)
	fromArgon, err := argon.Hash("password")
	require.NoError(t, err)

	require.True(t, argon.Verify("password", fromBcrypt))
	require.True(t, bc.Verify("password", fromArgon))
}

func TestHasher_PepperMatters(t *testing.T) {
	a := NewHasher(AlgorithmArgon2id, 0, "pepper-a")
	b := NewHasher(AlgorithmArgon2id, 0, "pepper-b")

	hash, err := a.Hash("password")
	require.NoError(t, err)
	require.True(t, a.Verify("password", hash))
	require.False(t, b.Verify("password", hash))
}

func TestHasher_MalformedDigest(t *testing.T) {
	h := testHasher(t, AlgorithmArgon2id)

	tests := []struct {
		name   string
		digest string
	}{
		{"empty", ""},
		{"plaintext", "password"},
		{"wrong algorithm", "$argon2i$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing parts", "$argon2id$v=19$m=19456,t=2,p=1"},
		{"bad params", "$argon2id$v=19$garbage$c2FsdA$aGFzaA"},
		{"zero iterations", "$argon2id$v=19$m=19456,t=0,p=1$c2FsdA$aGFzaA"},
		{"bad salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA"},
		{"bad hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!"},
		{"truncated bcrypt", "$2a$10$abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.False(t, h.Verify("password", tt.digest))
		})
	}
}

func TestNewHasher_Defaults(t *testing.T) {
	h := NewHasher("", 4, "p")
	require.Equal(t, AlgorithmArgon2id, h.Algorithm)
	require.Equal(t, MinBcryptCost, h.BcryptCost)

	h = NewHasher(" BCRYPT ", 12, "p")
	require.Equal(t, AlgorithmBcrypt, h.Algorithm)
	require.Equal(t, 12, h.BcryptCost)
}

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]struct{})
	for range 20 {
		pw, err := GeneratePassword()
		require.NoError(t, err)
		require.Len(t, pw, 12)
		for _, c := range pw {
			require.True(t, (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'))
		}
		seen[pw] = struct{}{}
	}
	require.Len(t, seen, 20)
}

func TestLoadOrGeneratePepper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pepper")

	first, err := LoadOrGeneratePepper(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	second, err := LoadOrGeneratePepper(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestLoadOrGeneratePepper_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pepper")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0600))

	_, err := LoadOrGeneratePepper(path)
	require.Error(t, err)
}
