package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/atinyakov/GophAuth/internal/models"
)

// Keys under which the session fields are stored. Other clients of the same
// store rely on these exact names.
const (
	KeyAuthToken = "authToken"
	KeyEmail     = "authEmail"
	KeyUserID    = "authUserId"
	KeyClient    = "authClient"
)

// SessionKeys lists every session key in save order.
var SessionKeys = []string{KeyAuthToken, KeyEmail, KeyUserID, KeyClient}

// emptyValue is the encoded form of "no value".
const emptyValue = "null"

// SessionStorage reads and writes AuthSession fields, each JSON-encoded under
// its own key. Reads never fail: a corrupt value is logged, reset to null in
// place and reported as absent.
type SessionStorage struct {
	store KeyValueStore
	log   *zap.Logger
}

// NewSessionStorage returns a SessionStorage over store. A nil log is
// replaced with a no-op logger.
func NewSessionStorage(store KeyValueStore, log *zap.Logger) *SessionStorage {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionStorage{store: store, log: log}
}

// Save writes all four session fields, overwriting previous values.
func (s *SessionStorage) Save(ctx context.Context, session models.AuthSession) error {
	fields := []struct {
		key   string
		value string
	}{
		{KeyAuthToken, session.AuthToken},
		{KeyEmail, session.Email},
		{KeyUserID, session.UserID},
		{KeyClient, session.Client},
	}
	for _, f := range fields {
		encoded, err := json.Marshal(f.value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", f.key, err)
		}
		if err := s.store.Set(ctx, f.key, string(encoded)); err != nil {
			return fmt.Errorf("save %s: %w", f.key, err)
		}
	}
	return nil
}

// Load returns the decoded value stored under key, or nil when the key is
// absent, holds null, cannot be read, or cannot be decoded. In the last case
// the stored value is replaced with null.
func (s *SessionStorage) Load(ctx context.Context, key string) any {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.log.Error("failed to read session value", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		if setErr := s.store.Set(ctx, key, emptyValue); setErr != nil {
			s.log.Error("failed to reset corrupt session value", zap.String("key", key), zap.Error(setErr))
		}
		s.log.Error("corrupt session value", zap.String("key", key), zap.Error(err))
		return nil
	}
	return value
}

// LoadString is Load converted to text. Numbers are formatted without
// exponent so numeric user IDs survive; other non-string values are empty.
func (s *SessionStorage) LoadString(ctx context.Context, key string) string {
	switch v := s.Load(ctx, key).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Session assembles the stored fields. ok is false unless a token, client and
// email are all present.
func (s *SessionStorage) Session(ctx context.Context) (session models.AuthSession, ok bool) {
	session = models.AuthSession{
		AuthToken: s.LoadString(ctx, KeyAuthToken),
		Email:     s.LoadString(ctx, KeyEmail),
		UserID:    s.LoadString(ctx, KeyUserID),
		Client:    s.LoadString(ctx, KeyClient),
	}
	ok = session.AuthToken != "" && session.Client != "" && session.Email != ""
	return session, ok
}

// Clear writes null under every session key.
func (s *SessionStorage) Clear(ctx context.Context) error {
	for _, key := range SessionKeys {
		if err := s.store.Set(ctx, key, emptyValue); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	return nil
}
