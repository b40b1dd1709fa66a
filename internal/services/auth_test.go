package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/oceanml-backend/internal/data/repos/testutil"
	"github.com/yungbote/oceanml-backend/internal/platform/ctxutil"
)

func TestMintAndVerifyToken(t *testing.T) {
	clock := newFakeClock()
	auth := NewAuthService(testutil.Logger(t), "s3cret", clock)

	tok, exp, err := auth.MintToken("user-42", DesktopAudience, 10*time.Minute)
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}
	if !exp.Equal(clock.Now().Add(10 * time.Minute)) {
		t.Fatalf("expiry: got=%v", exp)
	}

	ctx, err := auth.SetContextFromToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID != "user-42" || rd.TokenString != tok {
		t.Fatalf("request data: got=%+v", rd)
	}
	if !rd.HasAudience(DesktopAudience) {
		t.Fatalf("audience: want=%q got=%v", DesktopAudience, rd.Audience)
	}

	session, _, err := auth.MintToken("user-42", "", 10*time.Minute)
	if err != nil {
		t.Fatalf("MintToken session: %v", err)
	}
	sctx, err := auth.SetContextFromToken(context.Background(), session)
	if err != nil {
		t.Fatalf("SetContextFromToken session: %v", err)
	}
	if rd := ctxutil.GetRequestData(sctx); rd.HasAudience(DesktopAudience) || len(rd.Audience) != 0 {
		t.Fatalf("session audience: want=none got=%v", rd.Audience)
	}

	clock.Advance(11 * time.Minute)
	if _, err := auth.SetContextFromToken(context.Background(), tok); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired: want=%v got=%v", ErrUnauthorized, err)
	}
}

func TestSetContextFromTokenRejects(t *testing.T) {
	clock := newFakeClock()
	auth := NewAuthService(testutil.Logger(t), "s3cret", clock)
	other := NewAuthService(testutil.Logger(t), "different", clock)

	foreign, _, err := other.MintToken("user-1", "", time.Minute)
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}

	signed := func(method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
		tok, err := jwt.NewWithClaims(method, JWTClaims{RegisteredClaims: claims}).SignedString([]byte("s3cret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return tok
	}
	expires := jwt.NewNumericDate(clock.Now().Add(time.Minute))

	cases := map[string]string{
		"empty":      "",
		"garbage":    "not-a-token",
		"bad key":    foreign,
		"no subject": signed(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: tokenIssuer, ExpiresAt: expires}),
		"HS512": signed(jwt.SigningMethodHS512, jwt.RegisteredClaims{
			Issuer: tokenIssuer, Subject: "user-1", ExpiresAt: expires,
		}),
		"no issuer": signed(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: expires}),
		"wrong issuer": signed(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer: "someone-else", Subject: "user-1", ExpiresAt: expires,
		}),
	}
	for name, tok := range cases {
		if _, err := auth.SetContextFromToken(context.Background(), tok); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%s: want=%v got=%v", name, ErrUnauthorized, err)
		}
	}
}

func TestMintTokenRequiresSubject(t *testing.T) {
	auth := NewAuthService(testutil.Logger(t), "s3cret", nil)
	if _, _, err := auth.MintToken(" ", "", time.Minute); !errors.Is(err, ErrIdentityRequired) {
		t.Fatalf("blank subject: want=%v got=%v", ErrIdentityRequired, err)
	}
}
