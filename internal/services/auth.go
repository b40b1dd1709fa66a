package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/oceanml-backend/internal/platform/ctxutil"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

const tokenIssuer = "oceanml-api"

// DesktopAudience marks tokens minted for handoff links. They only authorize
// the lease claim made by the desktop helper.
const DesktopAudience = "oceanml-desktop"

type JWTClaims struct {
	jwt.RegisteredClaims
}

type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	MintToken(subject, audience string, ttl time.Duration) (string, time.Time, error)
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey []byte
	clock        Clock
}

func NewAuthService(log *logger.Logger, jwtSecretKey string, clock Clock) AuthService {
	if clock == nil {
		clock = SystemClock()
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		jwtSecretKey: []byte(jwtSecretKey),
		clock:        clock,
	}
}

// SetContextFromToken verifies an HS256 token and attaches the caller to ctx.
// Any failure is ErrUnauthorized.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	if len(as.jwtSecretKey) == 0 {
		return ctx, fmt.Errorf("%w: token verification is not configured", ErrUnauthorized)
	}
	claims := &JWTClaims{}
	parsedToken, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return as.jwtSecretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(as.clock.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		as.log.Debug("token rejected", "error", err)
		return ctx, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !parsedToken.Valid {
		return ctx, fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return ctx, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      subject,
		Audience:    []string(claims.Audience),
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) MintToken(subject, audience string, ttl time.Duration) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, ErrIdentityRequired
	}
	if ttl <= 0 {
		return "", time.Time{}, invalidf("token ttl must be positive")
	}
	if len(as.jwtSecretKey) == 0 {
		return "", time.Time{}, fmt.Errorf("mint token: signing key is not configured")
	}
	now := as.clock.Now()
	expiresAt := now.Add(ttl)
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if audience = strings.TrimSpace(audience); audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(as.jwtSecretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}
