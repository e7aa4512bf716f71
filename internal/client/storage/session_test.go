package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atinyakov/GophAuth/internal/models"
)

// failingStore returns preconfigured errors and otherwise behaves like MemoryStore.
type failingStore struct {
	*MemoryStore
	getErr error
	setErr error
}

func (f *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

var testSession = models.AuthSession{
	AuthToken: "tok-123",
	Email:     "ada@example.com",
	UserID:    "42",
	Client:    "device-1",
}

func TestSessionStorage_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewSessionStorage(store, zap.NewNop())

	require.NoError(t, s.Save(ctx, testSession))

	want := map[string]string{
		KeyAuthToken: testSession.AuthToken,
		KeyEmail:     testSession.Email,
		KeyUserID:    testSession.UserID,
		KeyClient:    testSession.Client,
	}
	for key, value := range want {
		assert.Equal(t, value, s.Load(ctx, key), "key %s", key)

		raw, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, `"`+value+`"`, raw, "stored encoding of %s", key)
	}
}

func TestSessionStorage_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStorage(NewMemoryStore(), nil)

	require.NoError(t, s.Save(ctx, testSession))
	next := testSession
	next.AuthToken = "tok-456"
	require.NoError(t, s.Save(ctx, next))

	assert.Equal(t, "tok-456", s.Load(ctx, KeyAuthToken))
}

func TestSessionStorage_LoadAbsentKey(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	log, logs := observed()
	s := NewSessionStorage(store, log)

	assert.Nil(t, s.Load(ctx, KeyAuthToken))
	assert.Equal(t, 0, logs.Len())

	_, ok, _ := store.Get(ctx, KeyAuthToken)
	assert.False(t, ok, "absent key must not be written")
}

func TestSessionStorage_LoadCorruptValueSelfHeals(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	log, logs := observed()
	s := NewSessionStorage(store, log)

	for _, raw := range []string{"not json", "", `"unterminated`, "{"} {
		t.Run(raw, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, KeyClient, raw))
			before := logs.Len()

			assert.Nil(t, s.Load(ctx, KeyClient))

			stored, ok, err := store.Get(ctx, KeyClient)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "null", stored)
			assert.Equal(t, before+1, logs.Len())
			assert.Equal(t, "corrupt session value", logs.All()[logs.Len()-1].Message)

			// Second read is clean.
			assert.Nil(t, s.Load(ctx, KeyClient))
			assert.Equal(t, before+1, logs.Len())
		})
	}
}

func TestSessionStorage_CorruptKeyDoesNotAffectOthers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewSessionStorage(store, nil)

	require.NoError(t, s.Save(ctx, testSession))
	require.NoError(t, store.Set(ctx, KeyEmail, "garbage"))

	assert.Nil(t, s.Load(ctx, KeyEmail))
	assert.Equal(t, testSession.AuthToken, s.Load(ctx, KeyAuthToken))
	assert.Equal(t, testSession.UserID, s.Load(ctx, KeyUserID))
	assert.Equal(t, testSession.Client, s.Load(ctx, KeyClient))
}

func TestSessionStorage_LoadReadError(t *testing.T) {
	log, logs := observed()
	s := NewSessionStorage(&failingStore{MemoryStore: NewMemoryStore(), getErr: errors.New("disk gone")}, log)

	assert.Nil(t, s.Load(context.Background(), KeyAuthToken))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failed to read session value", logs.All()[0].Message)
}

func TestSessionStorage_LoadCorruptResetFails(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	require.NoError(t, mem.Set(ctx, KeyAuthToken, "garbage"))
	log, logs := observed()
	s := NewSessionStorage(&failingStore{MemoryStore: mem, setErr: errors.New("read-only")}, log)

	assert.Nil(t, s.Load(ctx, KeyAuthToken))
	assert.Equal(t, 2, logs.Len())
}

func TestSessionStorage_SaveError(t *testing.T) {
	s := NewSessionStorage(&failingStore{MemoryStore: NewMemoryStore(), setErr: errors.New("full")}, nil)

	err := s.Save(context.Background(), testSession)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save authToken")
}

func TestSessionStorage_LoadStringNumericUserID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewSessionStorage(store, nil)

	require.NoError(t, store.Set(ctx, KeyUserID, "1234567"))
	assert.Equal(t, "1234567", s.LoadString(ctx, KeyUserID))

	require.NoError(t, store.Set(ctx, KeyUserID, "true"))
	assert.Equal(t, "", s.LoadString(ctx, KeyUserID))
}

func TestSessionStorage_SessionAndClear(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStorage(NewMemoryStore(), nil)

	_, ok := s.Session(ctx)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, testSession))
	got, ok := s.Session(ctx)
	assert.True(t, ok)
	assert.Equal(t, testSession, got)

	require.NoError(t, s.Clear(ctx))
	for _, key := range SessionKeys {
		assert.Nil(t, s.Load(ctx, key))
	}
	got, ok = s.Session(ctx)
	assert.False(t, ok)
	assert.Equal(t, models.AuthSession{}, got)
}
