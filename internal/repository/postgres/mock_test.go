package postgres

import (
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "email", "password_hash", "roles", "created_at", "updated_at"}

var profileCols = []string{
	"id", "user_id", "first_name", "last_name", "display_name", "phone_number",
	"address_line1", "address_line2", "city", "state", "postal_code", "belt_level", "created_utc", "updated_utc",
}

func newMockDB(t *testing.T) (pgxmock.PgxPoolIface, *DB) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock, WithPool(mock, time.Second)
}

func strp(s string) *string { return &s }
