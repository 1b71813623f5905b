package postgres

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRefsByIDsEmptyInputSkipsQuery(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepository(mock)

	refs, err := repo.FindRefsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, refs)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindRefsByIDs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepository(mock)
	ids := []string{"u1", "u2", "missing"}

	rows := pgxmock.NewRows([]string{"id", "name", "email"}).
		AddRow("u1", "Jane Agent", "jane@crm.test").
		AddRow("u2", "John Agent", "john@crm.test")

	mock.ExpectQuery("SELECT id, name, email FROM users WHERE id = ANY\\(\\$1\\)").
		WithArgs(ids).
		WillReturnRows(rows)

	refs, err := repo.FindRefsByIDs(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "Jane Agent", refs["u1"].Name)
	assert.NotContains(t, refs, "missing")

	require.NoError(t, mock.ExpectationsWereMet())
}
