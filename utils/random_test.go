package utils

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomToken_Length(t *testing.T) {
	tests := []struct {
		inputLength int
		minLength   int
	}{
		{16, 22},
		{32, 43},
		{64, 86},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.inputLength), func(t *testing.T) {
			token, err := GenerateRandomToken(tt.inputLength)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(token), tt.minLength)
			assert.Regexp(t, "^[A-Za-z0-9=_-]*$", token)
		})
	}
}

// TestGenerateNumericCode_Range 六位验证码范围
func TestGenerateNumericCode_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateNumericCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestGenerateNumericCode_InvalidLength(t *testing.T) {
	_, err := GenerateNumericCode(0)
	assert.Error(t, err)
}

func TestGenerateRandomSuffix(t *testing.T) {
	s, err := GenerateRandomSuffix(6)
	require.NoError(t, err)
	assert.Regexp(t, "^[a-z0-9]{6}$", s)
}

func TestSanitizeLogMessage(t *testing.T) {
	assert.Equal(t, "user name", SanitizeLogMessage("user\nname"))
	assert.Equal(t, "abc", SanitizeLogMessage("a\x00b\x1bc"))
	assert.Len(t, SanitizeLogUsername(strings.Repeat("a", 60)), 53)
}
