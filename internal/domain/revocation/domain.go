package revocation

import "time"

// Record marks a single token id as revoked until the token would have expired anyway.
type Record struct {
	TokenID   string
	Subject   string
	RevokedAt time.Time
	ExpiresAt time.Time
}

// SubjectCutoff revokes every token of a subject issued at or before NotBefore.
type SubjectCutoff struct {
	Subject   string
	NotBefore time.Time
	ExpiresAt time.Time
}

// Covers reports whether a token issued at issuedAt falls under the cutoff.
func (c SubjectCutoff) Covers(issuedAt time.Time) bool {
	return !issuedAt.After(c.NotBefore)
}
