package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{" Beach, sunset ,beach,, ", "beach,sunset"},
		{"Zoo,alps", "alps,zoo"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTags(tt.in), "input %q", tt.in)
	}
}

func TestPhoto_TagList(t *testing.T) {
	assert.Nil(t, (&Photo{}).TagList())
	assert.Equal(t, []string{"a", "b"}, (&Photo{Tags: "a,b"}).TagList())
}

func TestUser_HasPassword(t *testing.T) {
	empty := ""
	hash := "$argon2id$..."
	assert.False(t, (&User{}).HasPassword())
	assert.False(t, (&User{Password: &empty}).HasPassword())
	assert.True(t, (&User{Password: &hash}).HasPassword())
	assert.Equal(t, "a@b.com", NormalizeEmail("  A@B.com "))
}
