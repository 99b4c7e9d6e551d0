package auth

import (
	"testing"
	"time"

	"github.com/mxe-wallet/mxe_wallet/internal/account"
	"github.com/mxe-wallet/mxe_wallet/internal/apperr"
	"github.com/mxe-wallet/mxe_wallet/internal/config"
)

func TestIssuerRoundTrip(t *testing.T) {
	issuer := NewIssuer(config.Config{JWTSecret: "test-secret", AccessTokenTTL: 15 * time.Minute})

	acct := account.Account{ID: "acct-1", Email: "a@x.com", Role: account.RoleUser}
	token, err := issuer.Sign(acct)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := issuer.Decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.AccountID != "acct-1" || claims.Email != "a@x.com" || claims.Role != "USER" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestIssuerRejectsWrongSecret(t *testing.T) {
	issuer := NewIssuer(config.Config{JWTSecret: "test-secret", AccessTokenTTL: 15 * time.Minute})
	other := NewIssuer(config.Config{JWTSecret: "different", AccessTokenTTL: 15 * time.Minute})

	token, err := issuer.Sign(account.Account{ID: "acct-1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	_, err = other.Decode(token)
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestIssuerRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer(config.Config{JWTSecret: "test-secret", AccessTokenTTL: -time.Minute})

	token, err := issuer.Sign(account.Account{ID: "acct-1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := issuer.Decode(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestIssuerRejectsGarbage(t *testing.T) {
	issuer := NewIssuer(config.Config{JWTSecret: "test-secret", AccessTokenTTL: 15 * time.Minute})
	if _, err := issuer.Decode("not.a.token"); err == nil {
		t.Fatalf("expected error")
	}
}
