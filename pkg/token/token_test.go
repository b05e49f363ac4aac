// token_test.go

package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	tokenString, err := m.Issue("user-1", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := m.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestVerifyWrongSecret(t *testing.T) {
	m1 := NewManager("secret-a", time.Hour)
	m2 := NewManager("secret-b", time.Hour)

	tokenString, err := m1.Issue("user-1", "alice")
	require.NoError(t, err)

	_, err = m2.Verify(tokenString)
	assert.Error(t, err)
}

func TestVerifyExpired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)

	tokenString, err := m.Issue("user-1", "alice")
	require.NoError(t, err)

	_, err = m.Verify(tokenString)
	assert.Error(t, err)
}

func TestVerifyGarbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	_, err := m.Verify("not-a-token")
	assert.Error(t, err)
}
