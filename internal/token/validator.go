package token

import (
	"context"
	"fmt"

	"github.com/NordCoder/BlackDragon/internal/domain/identity"
	"github.com/NordCoder/BlackDragon/internal/domain/revocation"
	"github.com/golang-jwt/jwt/v5"
)

type Validator struct {
	cfg    Config
	ledger revocation.Ledger
	parser *jwt.Parser
}

func NewValidator(cfg Config, ledger revocation.Ledger) (*Validator, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingSigningKey
	}
	cfg.withDefaults()

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &Validator{cfg: cfg, ledger: ledger, parser: jwt.NewParser(opts...)}, nil
}

// Validate checks signature, issuer, audience, expiry and revocation.
// Every rejection matches ErrUnauthorized. A ledger failure matches
// ErrLedgerUnavailable and never yields an identity.
func (v *Validator) Validate(ctx context.Context, raw string) (identity.Identity, error) {
	if raw == "" {
		return identity.Anonymous(), ErrUnauthorized
	}

	var c accessClaims
	tok, err := v.parser.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return v.cfg.Secret, nil
	})
	if err != nil || !tok.Valid {
		return identity.Anonymous(), fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if c.Subject == "" || c.ID == "" {
		return identity.Anonymous(), fmt.Errorf("%w: missing sub or jti", ErrUnauthorized)
	}

	cs := c.claimSet()
	if v.ledger != nil {
		revoked, err := v.ledger.IsRevoked(ctx, cs)
		if err != nil {
			return identity.Anonymous(), fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
		}
		if revoked {
			return identity.Anonymous(), fmt.Errorf("%w: token revoked", ErrUnauthorized)
		}
	}
	return identity.New(cs), nil
}
