package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bissquit/mediconnect-console/internal/domain"
)

func TestMemoryStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := authenticatedSession(t)

	require.NoError(t, store.Save(ctx, s, time.Minute))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Role, got.Role)
	assert.Equal(t, s.Credentials, got.Credentials)
	assert.Equal(t, s.Wizard, got.Wizard)
	assert.True(t, got.Menu.IsOpen("Hospital Management"))
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := New("sid", testNow)
	require.NoError(t, store.Save(ctx, s, time.Minute))

	got, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	got.Notify(domain.Success("not saved"))

	again, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Empty(t, again.Pending)
}

func TestMemoryStore_Missing(t *testing.T) {
	_, err := NewMemoryStore().Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := testNow
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, New("a", now), time.Minute))
	require.NoError(t, store.Save(ctx, New("b", now), time.Hour))

	now = now.Add(2 * time.Minute)

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 0, store.Sweep())
	assert.Equal(t, 1, store.Len())

	now = now.Add(time.Hour)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, New("sid", testNow), time.Minute))

	require.NoError(t, store.Delete(ctx, "sid"))

	_, err := store.Get(ctx, "sid")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Ping(ctx))
}

// mockRedis implements RedisClient for testing.
type mockRedis struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failErr error
}

func newMockRedis() *mockRedis {
	return &mockRedis{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockRedis) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return redis.NewStringResult("", m.failErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return redis.NewStatusResult("", m.failErr)
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *mockRedis) Ping(_ context.Context) *redis.StatusCmd {
	if m.failErr != nil {
		return redis.NewStatusResult("", m.failErr)
	}
	return redis.NewStatusResult("PONG", nil)
}

func TestRedisStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	client := newMockRedis()
	store := NewRedisStore(client)
	s := authenticatedSession(t)

	require.NoError(t, store.Save(ctx, s, 30*time.Minute))

	assert.Contains(t, client.data, "mediconnect:session:sid")
	assert.Equal(t, 30*time.Minute, client.ttls["mediconnect:session:sid"])

	got, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, s.Role, got.Role)
	assert.Equal(t, s.Credentials, got.Credentials)
	assert.Equal(t, s.Wizard, got.Wizard)
}

func TestRedisStore_Missing(t *testing.T) {
	_, err := NewRedisStore(newMockRedis()).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	ctx := context.Background()
	client := newMockRedis()
	store := NewRedisStore(client)
	require.NoError(t, store.Save(ctx, New("sid", testNow), time.Minute))

	require.NoError(t, store.Delete(ctx, "sid"))

	assert.Empty(t, client.data)
}

func TestRedisStore_Errors(t *testing.T) {
	ctx := context.Background()
	client := newMockRedis()
	client.failErr = errors.New("connection refused")
	store := NewRedisStore(client)

	_, err := store.Get(ctx, "sid")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.Error(t, store.Save(ctx, New("sid", testNow), time.Minute))
	assert.Error(t, store.Ping(ctx))
}

func TestRedisStore_CorruptValue(t *testing.T) {
	client := newMockRedis()
	client.data["mediconnect:session:sid"] = "{not json"

	_, err := NewRedisStore(client).Get(context.Background(), "sid")

	assert.ErrorContains(t, err, "decode session")
}
