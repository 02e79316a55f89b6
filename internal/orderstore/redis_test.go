package orderstore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	url := os.Getenv("RADAR_TEST_REDIS_URL")
	if url == "" {
		t.Skip("RADAR_TEST_REDIS_URL not set")
	}
	r, err := NewRedis(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRedisOrder(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()
	user := "test-" + uuid.NewString()
	t.Cleanup(func() { r.DeleteOrder(ctx, user, "items") })

	ids, err := r.GetOrder(ctx, user, "items")
	require.NoError(t, err)
	assert.Nil(t, ids)

	require.NoError(t, r.SaveOrder(ctx, user, "items", []string{"c", "a", "b"}))
	require.NoError(t, r.SaveOrder(ctx, user, "items", []string{"b", "a"}))

	ids, err = r.GetOrder(ctx, user, "items")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids)

	require.NoError(t, r.DeleteOrder(ctx, user, "items"))
	ids, err = r.GetOrder(ctx, user, "items")
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "radar:order:u1:items", key("u1", "items"))
}

func TestNewRedis_BadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "not a url")
	assert.Error(t, err)
}
