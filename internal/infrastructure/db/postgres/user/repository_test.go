package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempfiles-api/internal/domain/user"
)

var columns = []string{"id", "uuid", "email", "name", "password_hash", "kind", "created_at", "last_action_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestRepository_FetchUserByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	id := uuid.New()
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(SelectUserByEmail).
		WithArgs("bob@example.com").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(uint64(7), id, "bob@example.com", "bob", "$argon2id$hash", "standard", created, (*time.Time)(nil)))

	u, err := repo.FetchUserByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, user.ID(7), u.ID)
	assert.Equal(t, id, u.UUID)
	assert.Equal(t, user.KindStandard, u.Kind)
	assert.Equal(t, created, u.CreatedAt)
	assert.Nil(t, u.LastActionAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FetchUserByInternalID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	mock.ExpectQuery(SelectUserByInternalID).
		WithArgs(uint64(42)).
		WillReturnRows(pgxmock.NewRows(columns))

	u, err := repo.FetchUserByInternalID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, u)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateUser_UniqueViolations(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{name: "email taken", constraint: "users_email_key", want: user.ErrEmailAlreadyExists},
		{name: "name taken", constraint: "users_name_key", want: user.ErrNameAlreadyExists},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			repo := NewRepository(mock)

			mock.ExpectQuery(InsertUser).
				WithArgs("a@b.c", "alice", "h", "standard").
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			_, err := repo.CreateUser(context.Background(), user.User{
				Email: "a@b.c", Name: "alice", PasswordHash: "h", Kind: user.KindStandard,
			})
			require.ErrorIs(t, err, tt.want)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_TouchLastAction(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(UpdateLastAction).
		WithArgs(uint64(3), at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.TouchLastAction(context.Background(), 3, at))
	require.NoError(t, mock.ExpectationsWereMet())
}
