package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT claim set loomline issues and accepts. The role claim is
// what the engines authorize against; the subject is the identity label.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs caller tokens. Used by the dev token endpoint and tests;
// production deployments are expected to point JWT_SIGNING_KEY at the key the
// organization's credential system signs with.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
}

func NewTokenIssuer(signingKey string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: []byte(signingKey), ttl: ttl}
}

// Issue mints an HS256 token for the given caller.
func (i *TokenIssuer) Issue(caller Caller, now time.Time) (string, error) {
	claims := Claims{
		Role: string(caller.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign caller token: %w", err)
	}
	return signed, nil
}

// TokenValidator parses and verifies caller tokens.
type TokenValidator struct {
	key []byte
}

func NewTokenValidator(signingKey string) *TokenValidator {
	return &TokenValidator{key: []byte(signingKey)}
}

// Validate verifies the signature and expiry and resolves the Caller. A token
// carrying an unknown role is rejected here so engines never see one.
func (v *TokenValidator) Validate(tokenString string) (Caller, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.key, nil
	})
	if err != nil {
		return Caller{}, fmt.Errorf("parse caller token: %w", err)
	}
	if !token.Valid {
		return Caller{}, fmt.Errorf("caller token is not valid")
	}
	caller := Caller{ID: claims.Subject, Role: Role(claims.Role)}
	if caller.ID == "" {
		return Caller{}, fmt.Errorf("caller token has no subject")
	}
	if !caller.Role.Valid() {
		return Caller{}, fmt.Errorf("caller token carries unknown role %q", claims.Role)
	}
	return caller, nil
}
