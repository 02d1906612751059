package profile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/BlackDragon/internal/domain/identity"
	"github.com/NordCoder/BlackDragon/internal/domain/profile"
	"github.com/NordCoder/BlackDragon/internal/domain/validation"
	"github.com/NordCoder/BlackDragon/internal/repository/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu     sync.Mutex
	rows   map[string]profile.Profile
	nextID int64
	// raceOnInsert simulates a concurrent first insert winning the row.
	raceOnInsert bool
	err          error
}

func newFakeRepo() *fakeRepo { return &fakeRepo{rows: map[string]profile.Profile{}} }

func (f *fakeRepo) GetByUserID(_ context.Context, userID string) (*profile.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.rows[userID]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	return &p, nil
}

func (f *fakeRepo) GetByUserIDForUpdate(ctx context.Context, userID string) (*profile.Profile, error) {
	return f.GetByUserID(ctx, userID)
}

func (f *fakeRepo) Insert(_ context.Context, p *profile.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceOnInsert {
		f.raceOnInsert = false
		f.nextID++
		winner := *profile.NewProfile(p.UserID, p.CreatedUTC)
		winner.ID = f.nextID
		winner.City = strp("Osaka")
		f.rows[p.UserID] = winner
		return postgres.ErrConflict
	}
	if _, ok := f.rows[p.UserID]; ok {
		return postgres.ErrConflict
	}
	f.nextID++
	p.ID = f.nextID
	f.rows[p.UserID] = *p
	return nil
}

func (f *fakeRepo) Update(_ context.Context, p *profile.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[p.UserID]; !ok {
		return postgres.ErrNotFound
	}
	f.rows[p.UserID] = *p
	return nil
}

type passTx struct{}

func (passTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

func strp(s string) *string { return &s }

func member(id string) identity.Identity {
	return identity.New(identity.ClaimSet{Subject: id, Email: id + "@example.com", TokenID: "jti-" + id})
}

func newUC(repo *fakeRepo, now *time.Time) *Usecase {
	return NewUseCase(repo, passTx{}, func() time.Time { return *now })
}

func TestGetMe(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	uc := newUC(repo, &now)
	ctx := context.Background()

	_, err := uc.GetMe(ctx, identity.Anonymous())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = uc.GetMe(ctx, member("u1"))
	assert.ErrorIs(t, err, ErrProfileNotFound)

	repo.err = errors.New("db down")
	_, err = uc.GetMe(ctx, member("u1"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProfileNotFound)
}

func TestUpsertMe_CreatesWithDefaultBeltThenPatches(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	uc := newUC(repo, &now)
	ctx := context.Background()
	caller := member("u1")

	p, err := uc.UpsertMe(ctx, caller, profile.Patch{FirstName: strp("Ada")})
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, profile.DefaultBelt, p.BeltLevel)
	assert.Equal(t, "Ada", *p.FirstName)
	assert.Nil(t, p.LastName)
	assert.Equal(t, now, p.CreatedUTC)
	assert.NotZero(t, p.ID)

	created := now
	now = now.Add(time.Hour)
	p, err = uc.UpsertMe(ctx, caller, profile.Patch{BeltLevel: strp("yellow"), City: strp("Kyoto")})
	require.NoError(t, err)
	assert.Equal(t, "Yellow", p.BeltLevel)
	assert.Equal(t, "Ada", *p.FirstName, "absent fields are kept")
	assert.Equal(t, "Kyoto", *p.City)
	assert.Equal(t, created, p.CreatedUTC)
	assert.Equal(t, now, p.UpdatedUTC)

	got, err := uc.GetMe(ctx, caller)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestUpsertMe_FirstInsertRace(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.raceOnInsert = true
	uc := newUC(repo, &now)

	p, err := uc.UpsertMe(context.Background(), member("u1"), profile.Patch{BeltLevel: strp("Green")})
	require.NoError(t, err)
	assert.Equal(t, "Green", p.BeltLevel)
	assert.Equal(t, "Osaka", *p.City)
	assert.Len(t, repo.rows, 1)
}

func TestUpsertMe_Validation(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	uc := newUC(repo, &now)

	_, err := uc.UpsertMe(context.Background(), member("u1"), profile.Patch{
		BeltLevel:  strp("Rainbow"),
		PostalCode: strp(strings.Repeat("9", 21)),
		City:       strp(strings.Repeat("京", 100)),
	})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Errors, 2)
	assert.Equal(t, CodeInvalidBelt, verr.Errors[0].Code)
	assert.Equal(t, CodeTooLong, verr.Errors[1].Code)
	assert.Contains(t, verr.Errors[1].Description, "postalCode")
	assert.Empty(t, repo.rows)

	_, err = uc.UpsertMe(context.Background(), identity.Anonymous(), profile.Patch{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func withCaller(id identity.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
		})
	}
}

func TestController(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	uc := newUC(newFakeRepo(), &now)

	anon := http.NewServeMux()
	NewController(uc, withCaller(identity.Anonymous()), nil).Register(anon)
	rec := httptest.NewRecorder()
	anon.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Missing user identity."}`, rec.Body.String())

	mux := http.NewServeMux()
	NewController(uc, withCaller(member("u1")), nil).Register(mux)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile/me", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/profile/me", strings.NewReader(`{"BeltLevel":"Yellow"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"beltLevel":"Yellow"`)
	assert.Contains(t, rec.Body.String(), `"userId":"u1"`)
	assert.Contains(t, rec.Body.String(), `"firstName":null`)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/profile/me", strings.NewReader(`{"beltLevel":"Plaid"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeInvalidBelt)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/profile/me", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile/me", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
