package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_Sanitized(t *testing.T) {
	u := &User{ID: "1", UserName: "alice", PasswordHash: "$2a$10$x", RefreshToken: "tok"}

	s := u.Sanitized()

	assert.Equal(t, "alice", s.UserName)
	assert.Empty(t, s.PasswordHash)
	assert.Empty(t, s.RefreshToken)
	// original untouched
	assert.Equal(t, "$2a$10$x", u.PasswordHash)
	assert.Nil(t, (*User)(nil).Sanitized())
}

func TestUser_JSONOmitsSecrets(t *testing.T) {
	u := &User{ID: "1", UserName: "alice", PasswordHash: "hash", RefreshToken: "tok"}

	b, err := json.Marshal(u)
	require.NoError(t, err)

	assert.NotContains(t, string(b), "hash")
	assert.NotContains(t, string(b), "tok")
	assert.Contains(t, string(b), `"userName":"alice"`)
	assert.Contains(t, string(b), `"coverImageUrl":""`)
}
