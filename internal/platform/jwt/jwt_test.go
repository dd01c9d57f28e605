package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	m := NewManager("secret", "test-issuer", time.Hour)

	token, err := m.Generate(42, []string{"manager", "user"})
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, []string{"manager", "user"}, claims.Roles)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	issued, err := NewManager("secret", "other-issuer", time.Hour).Generate(1, []string{"admin"})
	require.NoError(t, err)

	_, err = NewManager("secret", "test-issuer", time.Hour).Parse(issued)
	assert.Error(t, err, "issuer mismatch must fail")

	_, err = NewManager("another-secret", "other-issuer", time.Hour).Parse(issued)
	assert.Error(t, err, "signature mismatch must fail")
}

func TestParseRejectsExpired(t *testing.T) {
	m := NewManager("secret", "", time.Hour)
	m.ttl = -time.Minute

	token, err := m.Generate(7, []string{"user"})
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.Error(t, err)
}
