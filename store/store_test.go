package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronRDurant/table-over-two/theme"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesDataDir(t *testing.T) {
	s := setupTestStore(t)
	require.NotNil(t, s.db)
}

func TestGetMissing(t *testing.T) {
	s := setupTestStore(t)
	v, ok, err := s.Get("visitor-1", theme.KeyMode)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSetAndGet(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.Set("visitor-1", theme.KeyMode, "dark"))

	v, ok, err := s.Get("visitor-1", theme.KeyMode)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	_, ok, err = s.Get("visitor-2", theme.KeyMode)
	require.NoError(t, err)
	assert.False(t, ok, "visitors are isolated")
}

func TestSetUpdates(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.Set("v", theme.KeyTeam, "ktm"))
	require.NoError(t, s.Set("v", theme.KeyTeam, "honda"))

	all, err := s.All("v")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{theme.KeyTeam: "honda"}, all)
}

func TestEmptyVisitor(t *testing.T) {
	s := setupTestStore(t)
	assert.ErrorIs(t, s.Set("", theme.KeyMode, "dark"), ErrEmptyVisitor)
	_, _, err := s.Get("", theme.KeyMode)
	assert.ErrorIs(t, err, ErrEmptyVisitor)
}

func TestDeleteVisitor(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.Set("v", theme.KeyMode, "light"))
	require.NoError(t, s.Set("v", theme.KeyTeam, "ktm"))
	require.NoError(t, s.DeleteVisitor("v"))

	all, err := s.All("v")
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.NoError(t, s.DeleteVisitor("nobody"))
}

func TestPrune(t *testing.T) {
	s := setupTestStore(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	require.NoError(t, s.Set("old", theme.KeyMode, "dark"))
	s.now = func() time.Time { return base.Add(48 * time.Hour) }
	require.NoError(t, s.Set("new", theme.KeyMode, "dark"))

	n, err := s.Prune(base.Add(24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok, _ := s.Get("old", theme.KeyMode)
	assert.False(t, ok)
	_, ok, _ = s.Get("new", theme.KeyMode)
	assert.True(t, ok)
}

func TestVisitorStorageBacksThemeStore(t *testing.T) {
	s := setupTestStore(t)
	storage := VisitorStorage{Store: s, Visitor: "reader"}

	prefs := theme.NewStore(storage)
	require.NoError(t, prefs.Load())
	prefs.SetSystem(theme.Light)
	require.NoError(t, prefs.Toggle())
	require.NoError(t, prefs.SetTeam("gasgas"))

	reloaded := theme.NewStore(VisitorStorage{Store: s, Visitor: "reader"})
	require.NoError(t, reloaded.Load())
	assert.Equal(t, theme.Dark, reloaded.Mode())
	assert.Equal(t, "gasgas", reloaded.Team())
}

func TestPragmasApplyToEveryConnection(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var conns []*sql.Conn
	for i := 0; i < 3; i++ {
		conn, err := s.db.Conn(ctx)
		require.NoError(t, err)
		conns = append(conns, conn)
	}
	for i, conn := range conns {
		var timeout int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
		assert.Equal(t, 5000, timeout, "conn %d", i)

		var mode string
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, "wal", mode, "conn %d", i)
	}
	for _, conn := range conns {
		require.NoError(t, conn.Close())
	}
}
