package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParse(t *testing.T) {
	j := &JWTer{Secret: []byte("s3cret"), Issuer: "skillmentor", TTL: time.Hour}
	tok, err := j.Issue("u1", "student")
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UID)
	assert.Equal(t, "student", c.Role)

	other := &JWTer{Secret: []byte("other"), Issuer: "skillmentor", TTL: time.Hour}
	_, err = other.Parse(tok)
	assert.Error(t, err)
}

func TestPeekAndExpiry(t *testing.T) {
	j := &JWTer{Secret: []byte("s3cret"), Issuer: "skillmentor", TTL: time.Minute}
	tok, err := j.Issue("u1", "admin")
	require.NoError(t, err)

	c, ok := Peek(tok)
	require.True(t, ok)
	assert.Equal(t, "admin", c.Role)

	assert.False(t, ExpiredAt(tok, time.Now()))
	assert.True(t, ExpiredAt(tok, time.Now().Add(2*time.Minute)))

	_, ok = Peek("admin-token")
	assert.False(t, ok)
	assert.False(t, ExpiredAt("admin-token", time.Now()))
}
