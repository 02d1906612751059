package identity

import (
	"maps"
	"slices"
	"strconv"
	"time"
)

const (
	RoleAdmin           = "Admin"
	RoleInPersonStudent = "InPersonStudent"
)

// ClaimSet is the decoded payload of a validated access token.
type ClaimSet struct {
	Subject   string
	Email     string
	TokenID   string
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Roles     []string
	Extra     map[string]string
}

// Identity is the caller bound to a request. The zero value is anonymous.
type Identity struct {
	claims *ClaimSet
}

func New(c ClaimSet) Identity {
	return Identity{claims: &c}
}

func Anonymous() Identity { return Identity{} }

func (i Identity) IsAuthenticated() bool {
	return i.claims != nil && i.claims.Subject != ""
}

func (i Identity) UserID() string {
	if i.claims == nil {
		return ""
	}
	return i.claims.Subject
}

func (i Identity) Email() string {
	if i.claims == nil {
		return ""
	}
	return i.claims.Email
}

func (i Identity) TokenID() string {
	if i.claims == nil {
		return ""
	}
	return i.claims.TokenID
}

func (i Identity) ExpiresAt() time.Time {
	if i.claims == nil {
		return time.Time{}
	}
	return i.claims.ExpiresAt
}

func (i Identity) Roles() []string {
	if i.claims == nil {
		return nil
	}
	return slices.Clone(i.claims.Roles)
}

func (i Identity) IsInRole(role string) bool {
	if i.claims == nil || role == "" {
		return false
	}
	return slices.Contains(i.claims.Roles, role)
}

// FindClaim looks a claim up by its token name. Multi-valued claims
// (aud, roles) yield their first value; iat and exp are unix seconds.
func (i Identity) FindClaim(name string) (string, bool) {
	if i.claims == nil {
		return "", false
	}
	c := i.claims
	switch name {
	case "sub":
		return c.Subject, c.Subject != ""
	case "email":
		return c.Email, c.Email != ""
	case "jti":
		return c.TokenID, c.TokenID != ""
	case "iss":
		return c.Issuer, c.Issuer != ""
	case "aud":
		return first(c.Audience)
	case "roles":
		return first(c.Roles)
	case "iat":
		return unixClaim(c.IssuedAt)
	case "exp":
		return unixClaim(c.ExpiresAt)
	}
	v, ok := c.Extra[name]
	return v, ok
}

// Claims returns a copy of the underlying claim set.
func (i Identity) Claims() (ClaimSet, bool) {
	if i.claims == nil {
		return ClaimSet{}, false
	}
	c := *i.claims
	c.Audience = slices.Clone(c.Audience)
	c.Roles = slices.Clone(c.Roles)
	c.Extra = maps.Clone(c.Extra)
	return c, true
}

func first(vs []string) (string, bool) {
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func unixClaim(t time.Time) (string, bool) {
	if t.IsZero() {
		return "", false
	}
	return strconv.FormatInt(t.Unix(), 10), true
}
