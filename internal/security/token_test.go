package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_signing_secret"

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := IssueSessionToken(testSecret, "user-1", "jdoe", 24*time.Hour)
	require.NoError(t, err)

	claims, err := ParseSessionToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "jdoe", claims.Username)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestSessionTokenExpiry(t *testing.T) {
	token, err := IssueSessionToken(testSecret, "user-1", "jdoe", -time.Minute)
	require.NoError(t, err)

	_, err = ParseSessionToken(token, testSecret)
	assert.Error(t, err)
}

func TestSessionTokenWrongSecret(t *testing.T) {
	token, err := IssueSessionToken(testSecret, "user-1", "jdoe", time.Hour)
	require.NoError(t, err)

	_, err = ParseSessionToken(token, "other_secret")
	assert.Error(t, err)
}

// an unsigned token must never verify, whatever its alg header claims
func TestSessionTokenRejectsNoneAlgorithm(t *testing.T) {
	claims := SessionClaims{
		UserID:   "user-1",
		Username: "jdoe",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseSessionToken(token, testSecret)
	assert.Error(t, err)
}

// flipping any byte of the compact form must invalidate the token
func TestSessionTokenTamperedByte(t *testing.T) {
	token, err := IssueSessionToken(testSecret, "user-1", "jdoe", time.Hour)
	require.NoError(t, err)

	for _, i := range []int{0, len(token) / 2, len(token) - 1} {
		raw := []byte(token)
		if raw[i] == 'A' {
			raw[i] = 'B'
		} else {
			raw[i] = 'A'
		}
		_, err := ParseSessionToken(string(raw), testSecret)
		assert.Error(t, err, "byte %d", i)
	}
}
