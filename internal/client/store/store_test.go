package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suraj-driod/swa-antarang/internal/client/migrations"
	"github.com/suraj-driod/swa-antarang/internal/dbx"
	"github.com/suraj-driod/swa-antarang/internal/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// one connection, otherwise every conn sees its own empty :memory: database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, dbx.Migrate(context.Background(), db, "sqlite3", migrations.Migrations))
	return db
}

func sampleSession() *models.Session {
	return &models.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "bearer",
		ExpiresAt:    time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		User:         &models.User{ID: "u1", Email: "a@b.com"},
	}
}

// contract runs the behaviour every Store must share.
func contract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "empty store loads nil, nil")

	require.NoError(t, s.Save(ctx, sampleSession()))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "access-1", got.AccessToken)
	assert.Equal(t, "u1", got.UserID())
	assert.True(t, got.ExpiresAt.Equal(sampleSession().ExpiresAt))

	next := sampleSession()
	next.AccessToken = "access-2"
	require.NoError(t, s.Save(ctx, next))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-2", got.AccessToken, "save overwrites")

	require.NoError(t, s.Clear(ctx))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Clear(ctx), "clearing an empty store is fine")
	require.Error(t, s.Save(ctx, nil))
}

func TestSQLiteStore_Contract(t *testing.T) {
	contract(t, NewSQLiteStore(setupDB(t)))
}

func TestMemoryStore_Contract(t *testing.T) {
	contract(t, NewMemoryStore())
}

func TestSQLiteStore_MirrorsUserID(t *testing.T) {
	db := setupDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleSession()))
	id, err := s.UserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	var exp string
	require.NoError(t, db.QueryRow(`SELECT value FROM metadata WHERE key = 'expires_at'`).Scan(&exp))
	assert.Equal(t, "1893456000", exp)

	require.NoError(t, s.Clear(ctx))
	id, err = s.UserID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestSQLiteStore_CorruptBlob(t *testing.T) {
	db := setupDB(t)
	_, err := db.Exec(`INSERT INTO metadata (key, value) VALUES ('session', 'not json')`)
	require.NoError(t, err)

	_, err = NewSQLiteStore(db).Load(context.Background())
	assert.ErrorIs(t, err, ErrCorruptSession)
}

func TestSQLiteStore_ClosedDB(t *testing.T) {
	db := setupDB(t)
	s := NewSQLiteStore(db)
	require.NoError(t, db.Close())

	_, err := s.Load(context.Background())
	assert.Error(t, err)
	assert.Error(t, s.Save(context.Background(), sampleSession()))
	assert.Error(t, s.Clear(context.Background()))
}

func TestMemoryStore_Corrupt(t *testing.T) {
	m := NewMemoryStore()

	m.SetRaw([]byte("{"))
	_, err := m.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorruptSession)

	m.SetRaw([]byte(`{"user":{"id":"u1"}}`))
	_, err = m.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorruptSession, "a blob without tokens is unusable")
}
