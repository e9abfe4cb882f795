package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*RedisStatus, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStatus("redis://"+mr.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStatusRoundTrip(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	ctx := context.Background()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.Set(ctx, "r1", Status{State: "processing", Mode: "research", Start: &start}))
	end := start.Add(time.Minute)
	require.NoError(t, s.Set(ctx, "r1", Status{State: "success", Provider: "Groq", ReportURL: "s3://b/k", End: &end}))

	st, ok, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "success", st.State)
	assert.Equal(t, "research", st.Mode)
	assert.Equal(t, "Groq", st.Provider)
	assert.Equal(t, "s3://b/k", st.ReportURL)
	require.NotNil(t, st.Start)
	assert.True(t, start.Equal(*st.Start))
	require.NotNil(t, st.End)
	assert.True(t, end.Equal(*st.End))

	assert.Equal(t, time.Hour, mr.TTL("request:r1:status"))
}

func TestRedisStatusExpires(t *testing.T) {
	s, mr := newTestStore(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "r2", Status{State: "failed", Message: "boom"}))

	mr.FastForward(2 * time.Minute)
	_, ok, err := s.Get(ctx, "r2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStatusMissing(t *testing.T) {
	s, _ := newTestStore(t, 0)
	_, ok, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestNewRedisStatusBadURL(t *testing.T) {
	_, err := NewRedisStatus("not a url", time.Minute)
	assert.Error(t, err)
}
