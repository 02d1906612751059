package profile

import "context"

type Repo interface {
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	// GetByUserIDForUpdate locks the row until the surrounding transaction ends.
	GetByUserIDForUpdate(ctx context.Context, userID string) (*Profile, error)
	Insert(ctx context.Context, p *Profile) error
	Update(ctx context.Context, p *Profile) error
}
