package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"attendtrack/internal/model"
)

// Token is a signed access token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Claims represents JWT payload.
type Claims struct {
	Subject string     `json:"sub"`
	Role    model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal returns the caller identity carried by the claims.
func (c Claims) Principal() model.Principal {
	return model.Principal{ID: c.Subject, Role: c.Role}
}

// Issuer signs access tokens with HS256.
type Issuer struct {
	Name string
	Key  string
	TTL  time.Duration
}

// Issue issues a signed access token.
func (i Issuer) Issue(subject string, role model.Role) (Token, error) {
	now := time.Now()
	exp := now.Add(i.TTL)

	claims := Claims{
		Subject: subject,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.Name,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.Key))
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ExpiresAt: exp}, nil
}

// Parse validates a token and returns claims.
func (i Issuer) Parse(tokenStr string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(i.Key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if i.Name != "" && claims.Issuer != i.Name {
		return Claims{}, errors.New("issuer mismatch")
	}
	if claims.Role != model.RoleAdmin && claims.Role != model.RoleStudent {
		return Claims{}, errors.New("unknown role")
	}
	return *claims, nil
}
