package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/garyjia/gas-voucher/internal/domain/entity"
)

var (
	// ErrMissingToken is returned when a request carries no bearer token
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken is returned for malformed, expired or badly signed tokens
	ErrInvalidToken = errors.New("invalid token")
)

// Claims identifies the caller. Subject holds the user ID; the profile
// fields are optional.
type Claims struct {
	jwt.RegisteredClaims
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Rut   string `json:"rut,omitempty"`
}

// UserID returns the authenticated user's ID
func (c *Claims) UserID() string {
	return c.Subject
}

// IsAdmin reports whether the caller has the admin role
func (c *Claims) IsAdmin() bool {
	return c.Role == entity.RoleAdmin
}

// Profile returns the user summary carried by the token, nil when the token
// has no name
func (c *Claims) Profile() *entity.UserSummary {
	if c.Name == "" {
		return nil
	}
	return &entity.UserSummary{
		ID:    c.Subject,
		Name:  c.Name,
		Email: c.Email,
		Phone: c.Phone,
		Rut:   c.Rut,
	}
}

// IssueOption adds optional claims to an issued token
type IssueOption func(*Claims)

// WithProfile embeds the user's name and contact details
func WithProfile(p entity.UserSummary) IssueOption {
	return func(c *Claims) {
		c.Name = p.Name
		c.Email = p.Email
		c.Phone = p.Phone
		c.Rut = p.Rut
	}
}

// TokenManager signs and verifies HS256 tokens. Tokens are normally issued by
// the account service; Issue exists for tooling and tests.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// Issue signs a token for userID with role
func (m *TokenManager) Issue(userID, role string, opts ...IssueOption) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Role: role,
	}
	for _, opt := range opts {
		opt(&claims)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// Parse verifies tokenString and returns its claims
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := new(Claims)
	_, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if claims.Role != entity.RoleUser && claims.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
