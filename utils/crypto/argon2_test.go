package cryptopackage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateFromPassword_Format(t *testing.T) {
	hash, err := GenerateFromPassword("mysecretpassword123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v="))
	assert.Contains(t, hash, "$m=65536,t=2,p=4$")

	other, err := GenerateFromPassword("mysecretpassword123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts must differ")
}

func TestComparePasswordAndHash_InvalidFormat(t *testing.T) {
	invalidHashes := []string{
		"",
		"invalid",
		"$argon2i$v=19$m=65536,t=2,p=4$salt$hash",
		"$argon2id$v=19$m=65536,t=2,p=4$",
		"$argon2id$vx=19$m=65536,t=2,p=4$c2FsdA$hash",
		"$argon2id$v=19$invalid_params$c2FsdA$hash",
		"$argon2id$v=19$m=65536,t=2,p=4$!!!invalid!!!$!!!invalid!!!",
	}

	for _, hash := range invalidHashes {
		match, err := ComparePasswordAndHash("password", hash)
		assert.Error(t, err, "hash: %s", hash)
		assert.False(t, match, "hash: %s", hash)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	passwords := []string{
		"short",
		"a very long password with many characters and symbols !@#$%^&*()",
		"密码测试",
		"🔐🔑🔒",
	}

	for _, password := range passwords {
		hash, err := GenerateFromPassword(password)
		require.NoError(t, err)

		match, err := ComparePasswordAndHash(password, hash)
		require.NoError(t, err)
		assert.True(t, match, "password: %s", password)

		match, err = ComparePasswordAndHash(password+"wrong", hash)
		require.NoError(t, err)
		assert.False(t, match, "password: %s", password)
	}
}

func TestVerifyPassword_Argon2(t *testing.T) {
	hash, err := GenerateFromPassword("hunter22")
	require.NoError(t, err)

	ok, err := VerifyPassword("hunter22", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, NeedsRehash(hash))
}

// TestVerifyPassword_LegacyBcrypt 导入账户的 bcrypt 哈希
func TestVerifyPassword_LegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := VerifyPassword("legacy-secret", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("nope", string(legacy))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, NeedsRehash(string(legacy)))
}

func TestVerifyPassword_UnknownFormat(t *testing.T) {
	ok, err := VerifyPassword("x", "plaintext")
	assert.ErrorIs(t, err, ErrUnknownHashFormat)
	assert.False(t, ok)
}

func BenchmarkComparePasswordAndHash(b *testing.B) {
	password := "benchmarkpassword123"
	hash, err := GenerateFromPassword(password)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ComparePasswordAndHash(password, hash); err != nil {
			b.Fatal(err)
		}
	}
}
