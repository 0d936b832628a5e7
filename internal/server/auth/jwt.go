// Package auth issues and verifies session tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

// TokenKind selects the secret and lifetime used for a token.
type TokenKind int

const (
	TokenAccess TokenKind = iota
	TokenRefresh
)

func (k TokenKind) String() string {
	switch k {
	case TokenAccess:
		return "access"
	case TokenRefresh:
		return "refresh"
	default:
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
}

// Claims are the JWT claims. Subject holds the user id and ID a random jti,
// so two tokens minted in the same second still differ. Profile fields are
// only set on access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	UserName string `json:"userName,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

// TokenPair is what a successful login or refresh hands back.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenIssuer signs and verifies HS256 tokens with one secret per kind.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (i *TokenIssuer) params(kind TokenKind) ([]byte, time.Duration) {
	if kind == TokenRefresh {
		return i.refreshSecret, i.refreshTTL
	}
	return i.accessSecret, i.accessTTL
}

// Issue signs a token of the given kind for user.
func (i *TokenIssuer) Issue(user *models.User, kind TokenKind) (string, error) {
	secret, ttl := i.params(kind)
	now := i.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if kind == TokenAccess {
		claims.Email = user.Email
		claims.UserName = user.UserName
		claims.FullName = user.FullName
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// IssuePair signs an access and a refresh token for user.
func (i *TokenIssuer) IssuePair(user *models.User) (*TokenPair, error) {
	access, err := i.Issue(user, TokenAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := i.Issue(user, TokenRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify checks signature, algorithm and expiry. It returns
// common.ErrTokenExpired for an otherwise valid but expired token and
// common.ErrInvalidToken for anything else.
func (i *TokenIssuer) Verify(tokenString string, kind TokenKind) (*Claims, error) {
	secret, _ := i.params(kind)
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
