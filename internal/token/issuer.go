package token

import (
	"fmt"
	"maps"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Issuer struct {
	cfg Config
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingSigningKey
	}
	cfg.withDefaults()
	return &Issuer{cfg: cfg}, nil
}

// Issue signs a fresh HS256 token for the subject. Every call gets a new jti.
func (i *Issuer) Issue(subject, email string, roles []string) (Token, error) {
	return i.IssueWithExtra(subject, email, roles, nil)
}

// IssueWithExtra is Issue with additional string claims carried under "ext".
func (i *Issuer) IssueWithExtra(subject, email string, roles []string, extra map[string]string) (Token, error) {
	if i == nil || len(i.cfg.Secret) == 0 {
		return Token{}, ErrMissingSigningKey
	}
	now := i.cfg.Now()
	c := &accessClaims{
		Email: email,
		Roles: roles,
		Ext:   maps.Clone(extra),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.TTL)),
		},
	}
	if i.cfg.Issuer != "" {
		c.Issuer = i.cfg.Issuer
	}
	if i.cfg.Audience != "" {
		c.Audience = jwt.ClaimStrings{i.cfg.Audience}
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.cfg.Secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Raw: raw, Claims: c.claimSet()}, nil
}
