package security

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const Issuer = "sitepunch"

var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the verified caller of a request. For admins EmployeeID holds
// the admin id.
type Identity struct {
	EmployeeID string `json:"employeeId"`
	CompanyID  string `json:"companyId"`
	Role       string `json:"role"`
}

type IdentityClaims struct {
	Identity
	jwt.RegisteredClaims
}

// DecodeSecret decodes a base64 signing secret.
func DecodeSecret(base64Secret string) ([]byte, error) {
	secret, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}
	if len(secret) < 16 {
		return nil, errors.New("signing secret must be at least 16 bytes")
	}
	return secret, nil
}

func CreateIdentityToken(identity Identity, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := IdentityClaims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   identity.EmployeeID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	// HS256, symmetric key
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyIdentityToken is the single check every bearer credential goes through.
func VerifyIdentityToken(tokenStr string, secret []byte) (*Identity, error) {
	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.EmployeeID == "" || claims.CompanyID == "" || claims.Role == "" {
		return nil, fmt.Errorf("%w: missing identity claims", ErrInvalidToken)
	}
	return &claims.Identity, nil
}
