package db

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonathan/talent-reconciler/internal/types"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	entries, err := fs.ReadDir(Migrations(), ".")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"00001_catalogs.sql", "00002_talents.sql", "00003_verification.sql"}, names)

	for _, name := range names {
		data, err := fs.ReadFile(Migrations(), name)
		require.NoError(t, err)
		assert.Contains(t, string(data), "-- +goose Up", name)
		assert.Contains(t, string(data), "-- +goose Down", name)
	}
}

func TestMigrations_SingleActiveAssessmentIndex(t *testing.T) {
	data, err := fs.ReadFile(Migrations(), "00003_verification.sql")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "WHERE is_active"))
}

func TestAffected(t *testing.T) {
	id := uuid.New()

	err := affected(pgconn.NewCommandTag("UPDATE 0"), nil, "project", id)
	var nf *types.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "project", nf.Resource)
	assert.Equal(t, id.String(), nf.ID)

	assert.NoError(t, affected(pgconn.NewCommandTag("UPDATE 1"), nil, "project", id))

	boom := errors.New("boom")
	assert.ErrorIs(t, affected(pgconn.CommandTag{}, boom, "project", id), boom)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("plain")))
}

func TestVerificationLockKey(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.NotEqual(t, verificationLockKey(a, b), verificationLockKey(b, a))
	assert.Equal(t, verificationLockKey(a, b), verificationLockKey(a, b))
}

func TestNonNil(t *testing.T) {
	assert.NotNil(t, nonNil(nil))
	assert.Equal(t, []string{"a"}, nonNil([]string{"a"}))
}

func TestConvertResults(t *testing.T) {
	out := convertResults([]*goose.MigrationResult{
		nil,
		{Source: &goose.Source{Path: "00001_catalogs.sql", Version: 1}, Direction: "up"},
	})
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].Version)
	assert.Equal(t, "up", out[0].Direction)
}
