package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/NordCoder/BlackDragon/internal/domain/profile"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepo_GetByUserID(t *testing.T) {
	mock, db := newMockDB(t)
	now := time.Now().UTC()
	var none *string

	mock.ExpectQuery(`FROM user_profiles\s+WHERE user_id = \$1;`).
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows(profileCols).
			AddRow(int64(7), "u-1", strp("Ann"), none, none, none, none, none, strp("Austin"), none, none, "Blue", now, now))

	p, err := NewProfileRepo(db).GetByUserID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.EqualValues(t, 7, p.ID)
	assert.Equal(t, "Ann", *p.FirstName)
	assert.Nil(t, p.LastName)
	assert.Equal(t, "Austin", *p.City)
	assert.Equal(t, "Blue", p.BeltLevel)
}

func TestProfileRepo_GetForUpdateNotFound(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows(profileCols))

	_, err := NewProfileRepo(db).GetByUserIDForUpdate(context.Background(), "u-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileRepo_Insert(t *testing.T) {
	mock, db := newMockDB(t)
	now := time.Now().UTC()
	p := profile.NewProfile("u-1", now)

	mock.ExpectQuery(`INSERT INTO user_profiles`).
		WithArgs("u-1", p.FirstName, p.LastName, p.DisplayName, p.PhoneNumber,
			p.AddressLine1, p.AddressLine2, p.City, p.State, p.PostalCode, "White", now, now).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))

	require.NoError(t, NewProfileRepo(db).Insert(context.Background(), p))
	assert.EqualValues(t, 11, p.ID)
}

func TestProfileRepo_InsertConflict(t *testing.T) {
	mock, db := newMockDB(t)
	p := profile.NewProfile("u-1", time.Now().UTC())

	mock.ExpectQuery(`INSERT INTO user_profiles`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	assert.ErrorIs(t, NewProfileRepo(db).Insert(context.Background(), p), ErrConflict)
}

func TestProfileRepo_Update(t *testing.T) {
	mock, db := newMockDB(t)
	now := time.Now().UTC()
	p := profile.NewProfile("u-1", now)
	p.City = strp("Austin")

	mock.ExpectExec(`UPDATE user_profiles`).
		WithArgs("u-1", p.FirstName, p.LastName, p.DisplayName, p.PhoneNumber,
			p.AddressLine1, p.AddressLine2, p.City, p.State, p.PostalCode, "White", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE user_profiles`).
		WithArgs("u-1", p.FirstName, p.LastName, p.DisplayName, p.PhoneNumber,
			p.AddressLine1, p.AddressLine2, p.City, p.State, p.PostalCode, "White", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewProfileRepo(db)
	require.NoError(t, repo.Update(context.Background(), p))
	assert.ErrorIs(t, repo.Update(context.Background(), p), ErrNotFound)
}
