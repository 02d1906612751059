package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymousIdentity(t *testing.T) {
	id := FromContext(context.Background())

	assert.False(t, id.IsAuthenticated())
	assert.Empty(t, id.UserID())
	assert.Empty(t, id.Email())
	assert.Nil(t, id.Roles())
	assert.False(t, id.IsInRole(RoleAdmin))

	v, ok := id.FindClaim("sub")
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestAuthenticatedIdentity(t *testing.T) {
	id := New(ClaimSet{
		Subject: "u-1",
		Email:   "a@b.c",
		TokenID: "jti-1",
		Roles:   []string{RoleInPersonStudent},
		Extra:   map[string]string{"dojo": "north"},
	})
	ctx := WithIdentity(context.Background(), id)
	got := FromContext(ctx)

	require.True(t, got.IsAuthenticated())
	assert.Equal(t, "u-1", got.UserID())
	assert.Equal(t, "a@b.c", got.Email())
	assert.True(t, got.IsInRole(RoleInPersonStudent))
	assert.False(t, got.IsInRole(RoleAdmin))

	v, ok := got.FindClaim("jti")
	assert.True(t, ok)
	assert.Equal(t, "jti-1", v)

	v, ok = got.FindClaim("dojo")
	assert.True(t, ok)
	assert.Equal(t, "north", v)

	_, ok = got.FindClaim("missing")
	assert.False(t, ok)
}

func TestRolesReturnsCopy(t *testing.T) {
	id := New(ClaimSet{Subject: "u", Roles: []string{RoleAdmin}})
	r := id.Roles()
	r[0] = "changed"
	assert.True(t, id.IsInRole(RoleAdmin))
}

func TestFindClaim_WellKnownNames(t *testing.T) {
	iat := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	id := New(ClaimSet{
		Subject:   "u-1",
		Email:     "a@b.c",
		TokenID:   "jti-1",
		Issuer:    "blackdragon",
		Audience:  []string{"members", "staff"},
		IssuedAt:  iat,
		ExpiresAt: iat.Add(30 * time.Minute),
		Roles:     []string{RoleAdmin, RoleInPersonStudent},
	})

	cases := []struct {
		name string
		want string
	}{
		{"sub", "u-1"},
		{"email", "a@b.c"},
		{"jti", "jti-1"},
		{"iss", "blackdragon"},
		{"aud", "members"},
		{"roles", RoleAdmin},
		{"iat", "1741597200"},
		{"exp", "1741599000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := id.FindClaim(tc.name)
			assert.True(t, ok)
			assert.Equal(t, tc.want, v)
		})
	}

	bare := New(ClaimSet{Subject: "u-2"})
	for _, name := range []string{"aud", "roles", "iat", "exp", "iss"} {
		_, ok := bare.FindClaim(name)
		assert.False(t, ok, name)
	}
}

func TestClaimsReturnsDeepCopy(t *testing.T) {
	id := New(ClaimSet{
		Subject:  "u",
		Audience: []string{"members"},
		Roles:    []string{RoleInPersonStudent},
		Extra:    map[string]string{"dojo": "north"},
	})

	c, ok := id.Claims()
	require.True(t, ok)
	c.Roles[0] = RoleAdmin
	c.Audience[0] = "other"
	c.Extra["dojo"] = "south"

	assert.False(t, id.IsInRole(RoleAdmin))
	assert.True(t, id.IsInRole(RoleInPersonStudent))
	v, _ := id.FindClaim("aud")
	assert.Equal(t, "members", v)
	v, _ = id.FindClaim("dojo")
	assert.Equal(t, "north", v)
}
