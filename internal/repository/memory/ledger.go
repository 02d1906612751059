package memory

import (
	"context"
	"sync"
	"time"

	"github.com/NordCoder/BlackDragon/internal/domain/identity"
	"github.com/NordCoder/BlackDragon/internal/domain/revocation"
)

var _ revocation.Ledger = (*Ledger)(nil)

// Ledger keeps revocations in process memory. Safe for concurrent use.
type Ledger struct {
	mu       sync.RWMutex
	tokens   map[string]revocation.Record
	subjects map[string]revocation.SubjectCutoff
}

func NewLedger() *Ledger {
	return &Ledger{
		tokens:   make(map[string]revocation.Record),
		subjects: make(map[string]revocation.SubjectCutoff),
	}
}

func (l *Ledger) Revoke(_ context.Context, r revocation.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.tokens[r.TokenID]; !ok {
		l.tokens[r.TokenID] = r
	}
	return nil
}

func (l *Ledger) RevokeSubject(_ context.Context, c revocation.SubjectCutoff) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.subjects[c.Subject]
	if !ok {
		l.subjects[c.Subject] = c
		return nil
	}
	if c.NotBefore.After(cur.NotBefore) {
		cur.NotBefore = c.NotBefore
	}
	if c.ExpiresAt.After(cur.ExpiresAt) {
		cur.ExpiresAt = c.ExpiresAt
	}
	l.subjects[c.Subject] = cur
	return nil
}

func (l *Ledger) IsRevoked(_ context.Context, claims identity.ClaimSet) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.tokens[claims.TokenID]; ok {
		return true, nil
	}
	if c, ok := l.subjects[claims.Subject]; ok && c.Covers(claims.IssuedAt) {
		return true, nil
	}
	return false, nil
}

func (l *Ledger) Prune(_ context.Context, now time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for id, r := range l.tokens {
		if r.ExpiresAt.Before(now) {
			delete(l.tokens, id)
			n++
		}
	}
	for s, c := range l.subjects {
		if c.ExpiresAt.Before(now) {
			delete(l.subjects, s)
			n++
		}
	}
	return n, nil
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tokens) + len(l.subjects)
}
