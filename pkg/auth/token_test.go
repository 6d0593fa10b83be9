package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/refurbmart/refurbmart-backend/pkg/config"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "refurbmart-identity"}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	actor := Actor{AccountID: uuid.New(), Role: enums.AccountRoleSeller}

	token, err := MintAccessToken(cfg, time.Now(), time.Hour, actor)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Actor() != actor {
		t.Fatalf("expected actor %+v, got %+v", actor, claims.Actor())
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if !claims.Actor().IsSeller() || claims.Actor().IsBuyer() {
		t.Fatalf("role helpers disagree with role %s", claims.Role)
	}
}

func TestParseAccessTokenRejectsExpiredAndForeign(t *testing.T) {
	cfg := testJWTConfig()
	actor := Actor{AccountID: uuid.New(), Role: enums.AccountRoleBuyer}

	expired, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), time.Hour, actor)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, expired); err == nil {
		t.Fatalf("expected expired token to fail")
	}

	other := cfg
	other.Issuer = "someone-else"
	foreign, err := MintAccessToken(other, time.Now(), time.Hour, actor)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, foreign); err == nil {
		t.Fatalf("expected issuer mismatch to fail")
	}

	if _, err := ParseAccessToken(cfg, strings.Repeat("x", 20)); err == nil {
		t.Fatalf("expected garbage token to fail")
	}
}

func TestMintAccessTokenValidatesInput(t *testing.T) {
	cfg := testJWTConfig()
	if _, err := MintAccessToken(cfg, time.Now(), time.Hour, Actor{AccountID: uuid.New(), Role: "owner"}); err == nil {
		t.Fatalf("expected invalid role error")
	}
	if _, err := MintAccessToken(config.JWTConfig{}, time.Now(), time.Hour, Actor{AccountID: uuid.New(), Role: enums.AccountRoleBuyer}); err == nil {
		t.Fatalf("expected missing secret error")
	}
	if _, err := MintAccessToken(cfg, time.Now(), 0, Actor{AccountID: uuid.New(), Role: enums.AccountRoleBuyer}); err == nil {
		t.Fatalf("expected ttl error")
	}
}
