package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mxe-wallet/mxe_wallet/internal/account"
	"github.com/mxe-wallet/mxe_wallet/internal/apperr"
	"github.com/mxe-wallet/mxe_wallet/internal/config"
)

// Claims are the session claims carried by an access token.
type Claims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and decodes HS256 session tokens. There is no refresh flow;
// clients log in again after the validity window passes.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer builds a token issuer from configuration.
func NewIssuer(cfg config.Config) *Issuer {
	return &Issuer{secret: []byte(cfg.JWTSecret), ttl: cfg.AccessTokenTTL}
}

// Sign issues a session token for the account.
func (i *Issuer) Sign(acct account.Account) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountID: acct.ID,
		Email:     acct.Email,
		Role:      string(acct.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", apperr.Internal("sign session token", err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry and returns the claims.
func (i *Issuer) Decode(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Unauthorized("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, apperr.Unauthorized("invalid token")
	}
	return claims, nil
}

// TTL reports the configured validity window.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}
