package security

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestCreateAndVerifyIdentityToken(t *testing.T) {
	identity := Identity{EmployeeID: "emp-1", CompanyID: "co-1", Role: "employee"}

	token, err := CreateIdentityToken(identity, testSecret, time.Hour)
	require.NoError(t, err)

	got, err := VerifyIdentityToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, identity, *got)
}

func TestVerifyIdentityTokenRejects(t *testing.T) {
	identity := Identity{EmployeeID: "emp-1", CompanyID: "co-1", Role: "employee"}

	expired, err := CreateIdentityToken(identity, testSecret, -time.Minute)
	require.NoError(t, err)

	otherSecret, err := CreateIdentityToken(identity, []byte("another-secret-another-secret!!"), time.Hour)
	require.NoError(t, err)

	missingCompany, err := CreateIdentityToken(Identity{EmployeeID: "emp-1", Role: "employee"}, testSecret, time.Hour)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, IdentityClaims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	// the unsigned base64 "adminId:timestamp" form is not a credential
	legacy := base64.StdEncoding.EncodeToString([]byte("admin-1:1700000000000"))

	tests := []struct {
		name  string
		token string
	}{
		{name: "Expired", token: expired},
		{name: "Wrong secret", token: otherSecret},
		{name: "Missing company", token: missingCompany},
		{name: "Alg none", token: unsigned},
		{name: "Legacy admin token", token: legacy},
		{name: "Empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerifyIdentityToken(tt.token, testSecret)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, got)
		})
	}
}

func TestDecodeSecret(t *testing.T) {
	secret, err := DecodeSecret(base64.StdEncoding.EncodeToString(testSecret))
	require.NoError(t, err)
	assert.Equal(t, testSecret, secret)

	_, err = DecodeSecret("not base64!")
	assert.Error(t, err)

	_, err = DecodeSecret(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestCompareSecret(t *testing.T) {
	hash, err := HashSecret("1234")
	require.NoError(t, err)

	ok, err := CompareSecret(hash, "1234")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CompareSecret(hash, "4321")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CompareSecret("not-a-bcrypt-hash", "1234")
	assert.Error(t, err)
}
