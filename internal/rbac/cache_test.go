package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	_ "github.com/veritas-sms/veritas-sms/testing"
)

func newCacheForTest(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheServesHitsWithoutLoader(t *testing.T) {
	cache := newCacheForTest(t)
	repo := newMemoryRBACRepo()
	repo.permissions["teacher"] = []string{"exams.view"}

	loader := func(ctx context.Context) (EffectiveGrants, error) {
		return repo.GetGrants(ctx, "teacher")
	}

	first, err := cache.Fetch(context.Background(), "teacher", loader)
	require.NoError(t, err)
	require.Equal(t, []string{"exams.view"}, first.Permissions)
	require.Equal(t, 1, repo.grantLoads)

	second, err := cache.Fetch(context.Background(), "teacher", loader)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.grantLoads, "second fetch must be served from cache")
}

func TestCacheInvalidateOnWrite(t *testing.T) {
	cache := newCacheForTest(t)
	repo := newMemoryRBACRepo()
	service := NewService(repo, cache, nil, nil)

	_, err := service.SetPermissionsForRole(context.Background(), "student", []string{"results.view"})
	require.NoError(t, err)
	require.True(t, service.Decision(context.Background(), "student", "results.view"))

	// The write below must evict the cached grants, not wait for TTL.
	_, err = service.SetPermissionsForRole(context.Background(), "student", []string{"library.view"})
	require.NoError(t, err)
	require.False(t, service.Decision(context.Background(), "student", "results.view"))
	require.True(t, service.Decision(context.Background(), "student", "library.view"))
}

func TestCacheNilClientDegradesToLoader(t *testing.T) {
	cache := NewCache(nil, time.Minute)
	repo := newMemoryRBACRepo()

	_, err := cache.Fetch(context.Background(), "driver", func(ctx context.Context) (EffectiveGrants, error) {
		return repo.GetGrants(ctx, "driver")
	})
	require.NoError(t, err)
	require.Equal(t, 1, repo.grantLoads)
}
