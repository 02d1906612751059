package token

import (
	"errors"
	"time"

	"github.com/NordCoder/BlackDragon/internal/domain/identity"
	"github.com/golang-jwt/jwt/v5"
)

const DefaultTTL = 30 * time.Minute

var (
	ErrMissingSigningKey = errors.New("jwt signing key is not configured")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrLedgerUnavailable = errors.New("revocation ledger unavailable")
)

type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
	Now      func() time.Time
}

func (c *Config) withDefaults() {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Now == nil {
		c.Now = func() time.Time { return time.Now().UTC() }
	}
}

// Token is a signed access token together with the claims it carries.
type Token struct {
	Raw    string
	Claims identity.ClaimSet
}

type accessClaims struct {
	Email string            `json:"email,omitempty"`
	Roles []string          `json:"roles,omitempty"`
	Ext   map[string]string `json:"ext,omitempty"`
	jwt.RegisteredClaims
}

func (c *accessClaims) claimSet() identity.ClaimSet {
	cs := identity.ClaimSet{
		Subject:  c.Subject,
		Email:    c.Email,
		TokenID:  c.ID,
		Issuer:   c.Issuer,
		Audience: []string(c.Audience),
		Roles:    c.Roles,
		Extra:    c.Ext,
	}
	if c.IssuedAt != nil {
		cs.IssuedAt = c.IssuedAt.Time.UTC()
	}
	if c.ExpiresAt != nil {
		cs.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return cs
}
