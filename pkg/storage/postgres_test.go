package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidTableName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"Valid standard", "dashboard_kv", true},
		{"Valid with numbers", "kv2", true},
		{"Valid short", "a", true},
		{"Valid max length", "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_", true}, // 63 chars
		{"Invalid start with number", "1kv", false},
		{"Invalid special chars", "dashboard-kv", false},
		{"Invalid space", "dashboard kv", false},
		{"Invalid SQL injection", "kv; DROP TABLE users", false},
		{"Invalid empty", "", false},
		{"Invalid too long", "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789__", false}, // 64 chars
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidTableName(tt.input); got != tt.expected {
				t.Errorf("isValidTableName(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewPostgresStoreRejectsBadName(t *testing.T) {
	_, err := NewPostgresStore(nil, "kv; DROP TABLE users")
	assert.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewPostgresStore(mock, "dashboard_kv")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	require.NoError(t, s.EnsureTable(ctx))

	mock.ExpectExec("INSERT INTO").
		WithArgs("token", "abc").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, s.Set(ctx, "token", "abc"))

	mock.ExpectQuery("SELECT value FROM").
		WithArgs("token").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("abc"))
	v, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	mock.ExpectQuery("SELECT value FROM").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectExec("DELETE FROM").
		WithArgs("token").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, s.Delete(ctx, "token"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreWrapsErrors(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewPostgresStore(mock, "dashboard_kv")
	require.NoError(t, err)

	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT value FROM").
		WithArgs("token").
		WillReturnError(boom)

	_, err = s.Get(ctx, "token")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
