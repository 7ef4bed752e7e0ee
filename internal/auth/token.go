package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PurposePasswordReset purpose claim of reset tokens
const PurposePasswordReset = "password_reset"

// DefaultResetTokenTTL 重置令牌默认有效期
const DefaultResetTokenTTL = 10 * time.Minute

type resetClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// ResetTokens signs and verifies stateless password reset tokens. There is
// no revocation list; a token stays valid until it expires.
type ResetTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewResetTokens 创建重置令牌签发器
func NewResetTokens(secret string, ttl time.Duration) (*ResetTokens, error) {
	if secret == "" {
		return nil, errors.New("reset token secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &ResetTokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL 令牌有效期
func (r *ResetTokens) TTL() time.Duration {
	return r.ttl
}

// Issue returns an HS256 token naming email.
func (r *ResetTokens) Issue(email string) (string, error) {
	now := r.now()
	claims := resetClaims{
		Email:   email,
		Purpose: PurposePasswordReset,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign reset token: %w", err)
	}
	return signed, nil
}

// Verify returns the email named by a valid token. Expired, tampered and
// malformed tokens all return ("", false).
func (r *ResetTokens) Verify(token string) (string, bool) {
	var claims resetClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (interface{}, error) { return r.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil {
		return "", false
	}
	if claims.Purpose != PurposePasswordReset || claims.Email == "" {
		return "", false
	}
	return claims.Email, true
}
