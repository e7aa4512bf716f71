package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := openTestSQLite(t)

	v, ok, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSQLiteStore_SetUpserts(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	require.NoError(t, s.Set(ctx, KeyClient, `"a"`))
	require.NoError(t, s.Set(ctx, KeyClient, `"b"`))

	v, ok, err := s.Get(ctx, KeyClient)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"b"`, v)
}

func TestSQLiteStore_PersistsOnDisk(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "session.db")

	s, err := OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	sess := NewSessionStorage(s, nil)
	require.NoError(t, sess.Save(ctx, testSession))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := NewSessionStorage(reopened, nil).Session(ctx)
	assert.True(t, ok)
	assert.Equal(t, testSession, got)
}

func TestSQLiteStore_ClosedDB(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s := NewSQLiteStore(db)
	_, _, err = s.Get(context.Background(), "k")
	require.Error(t, err)
	require.Error(t, s.Set(context.Background(), "k", "v"))
}
