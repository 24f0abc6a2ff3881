// Package auth issues and verifies the bearer tokens that carry a caller's
// tenant and roles into a kernel MutationContext.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
)

var (
	ErrMissingSecret = errors.New("jwt secret is empty")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

// Claims binds a principal to exactly one tenant.
type Claims struct {
	OrgID string   `json:"org_id"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Actor returns the principal described by the claims.
func (c *Claims) Actor() mutation.Actor {
	return mutation.Actor{ID: c.Subject, Roles: append([]string(nil), c.Roles...)}
}

func IssueToken(secret, subject, orgID string, roles []string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(orgID) == "" {
		return "", fmt.Errorf("subject and org id are required")
	}
	now := time.Now()
	claims := Claims{
		OrgID: orgID,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken verifies an HS256 token and returns its claims. Tokens without a
// subject or org id are rejected.
func ParseToken(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.OrgID) == "" {
		return nil, fmt.Errorf("%w: missing subject or org id", ErrInvalidToken)
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
