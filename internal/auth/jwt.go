// Package auth issues and verifies the session tokens that carry an actor's
// identity into the service.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vidall28/trocasequebras/internal/model"
)

// TokenExpiry is the default session lifetime.
const TokenExpiry = 12 * time.Hour

// ErrInactive is returned when issuing a session for a deactivated account.
var ErrInactive = errors.New("account is inactive")

// Claims is the session token payload. The subject is the user id.
type Claims struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Actor returns the identity the claims assert.
func (c *Claims) Actor() model.Actor {
	return model.Actor{ID: c.Subject, Name: c.Name, Role: c.Role}
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer. A non-positive expiry uses TokenExpiry.
func NewIssuer(secret string, expiry time.Duration) *Issuer {
	if expiry <= 0 {
		expiry = TokenExpiry
	}
	return &Issuer{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// Issue creates a token with a fresh JTI for an active user.
func (i *Issuer) Issue(u *model.User) (string, *Claims, error) {
	if u.Status != model.UserStatusActive {
		return "", nil, ErrInactive
	}

	now := i.now()
	claims := &Claims{
		EmployeeID: u.EmployeeID,
		Name:       u.Name,
		Role:       u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(u.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}
	return signed, claims, nil
}

// Verify parses a token and returns its claims.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("token is missing subject or id")
	}
	return claims, nil
}
