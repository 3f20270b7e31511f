package counter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/d0ngw/countd/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedStore(t *testing.T, inner Store, expire int) (*CachedStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	conf, err := cache.NewRedisConfFromAddr(mr.Addr(), cache.DefaultGroup)
	require.NoError(t, err)
	client, err := cache.NewRedisClientWithConf(conf)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	store, err := NewCachedStore(inner, client, cache.NewParamConf(cache.DefaultGroup, cache.DefaultPrefix, expire))
	require.NoError(t, err)
	return store, mr
}

func TestCachedStoreProperties(t *testing.T) {
	store, _ := newCachedStore(t, newSQLiteStore(t), 60)
	t.Run("first write creates with one", func(t *testing.T) { testFirstWrite(t, store) })
	t.Run("sequential increments", func(t *testing.T) { testSequential(t, store) })
	t.Run("concurrent increments", func(t *testing.T) { testConcurrent(t, store) })
	t.Run("distinct keys", func(t *testing.T) { testDistinctKeys(t, store) })
	t.Run("fetch miss", func(t *testing.T) { testFetchMiss(t, store) })
	t.Run("max id length", func(t *testing.T) { testMaxIDLen(t, store) })
}

func TestCachedStoreReadThrough(t *testing.T) {
	ctx := context.Background()
	inner := NewMemStore()
	store, mr := newCachedStore(t, inner, 60)

	_, err := inner.IncrementOrCreate(ctx, "abc")
	require.NoError(t, err)
	_, err = inner.IncrementOrCreate(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.DefaultPrefix+"abc"))

	// 未命中时从inner读取并写入缓存
	entry, err := store.Fetch(ctx, "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 2, entry.Count)
	assert.Equal(t, "2", mr.HGet(cache.DefaultPrefix+"abc", "c"))
	assert.Equal(t, 60*time.Second, mr.TTL(cache.DefaultPrefix+"abc"))

	// 命中时不再读取inner
	_, err = inner.IncrementOrCreate(ctx, "abc")
	require.NoError(t, err)
	cached, err := store.Fetch(ctx, "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 2, cached.Count)
	assert.True(t, entry.ModifiedAt.Equal(cached.ModifiedAt))
	assert.Equal(t, time.UTC, cached.ModifiedAt.Location())

	// 不缓存不存在的计数
	_, err = store.Fetch(ctx, "missing")
	assert.True(t, IsNotFound(err))
	assert.False(t, mr.Exists(cache.DefaultPrefix+"missing"))

	// 过期之后重新从inner读取
	mr.FastForward(61 * time.Second)
	entry, err = store.Fetch(ctx, "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 3, entry.Count)
}

func TestCachedStoreNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	inner := NewMemStore()
	store, mr := newCachedStore(t, inner, 60)

	for i := 0; i < 3; i++ {
		_, err := store.IncrementOrCreate(ctx, "abc")
		require.NoError(t, err)
	}
	assert.Equal(t, "3", mr.HGet(cache.DefaultPrefix+"abc", "c"))

	// 较晚完成的旧写入不会覆盖较新的缓存
	store.store(ctx, &Entry{ID: "abc", Count: 2, ModifiedAt: Now()})
	assert.Equal(t, "3", mr.HGet(cache.DefaultPrefix+"abc", "c"))

	entry, err := store.Fetch(ctx, "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 3, entry.Count)
}

func TestCachedStoreRedisDown(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	conf, err := cache.NewRedisConfFromAddr(mr.Addr(), cache.DefaultGroup)
	require.NoError(t, err)
	client, err := cache.NewRedisClientWithConf(conf)
	require.NoError(t, err)
	defer client.Close()
	store, err := NewCachedStore(NewMemStore(), client, cache.NewParamConf(cache.DefaultGroup, "", cache.DefaultExpire))
	require.NoError(t, err)
	mr.Close()

	entry, err := store.IncrementOrCreate(ctx, "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 1, entry.Count)

	entry, err = store.Fetch(ctx, "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 1, entry.Count)
}

func TestCachedStoreWriteFailure(t *testing.T) {
	ctx := context.Background()
	store, mr := newCachedStore(t, NewMemStore(), 60)
	key := cache.DefaultPrefix + "abc"

	entry, err := store.IncrementOrCreate(ctx, "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 1, entry.Count)
	assert.Equal(t, "1", mr.HGet(key, "c"))

	// Redis短暂不可用时写缓存和删除都失败,缓存中仍是旧的计数
	mr.SetError("LOADING Redis is loading the dataset in memory")
	entry, err = store.IncrementOrCreate(ctx, "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 2, entry.Count)
	mr.SetError("")
	assert.Equal(t, "1", mr.HGet(key, "c"))
	assert.True(t, store.isStale("abc"))

	entry, err = store.Fetch(ctx, "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 2, entry.Count)
	assert.Equal(t, "2", mr.HGet(key, "c"))
	assert.False(t, store.isStale("abc"))

	entry, err = store.Fetch(ctx, "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 2, entry.Count)
}

func TestCachedStoreInvalidateOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	store, mr := newCachedStore(t, NewMemStore(), 60)
	key := cache.DefaultPrefix + "abc"

	// key的类型不是hash,脚本执行失败,但可以删除
	require.NoError(t, mr.Set(key, "garbage"))
	entry, err := store.IncrementOrCreate(ctx, "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 1, entry.Count)
	assert.False(t, mr.Exists(key))
	assert.False(t, store.isStale("abc"))

	entry, err = store.Fetch(ctx, "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 1, entry.Count)
	assert.Equal(t, "1", mr.HGet(key, "c"))
}

func TestNewCachedStore(t *testing.T) {
	mr := miniredis.RunT(t)
	conf, err := cache.NewRedisConfFromAddr(mr.Addr(), "other")
	require.NoError(t, err)
	client, err := cache.NewRedisClientWithConf(conf)
	require.NoError(t, err)
	defer client.Close()

	_, err = NewCachedStore(NewMemStore(), client, cache.NewParamConf(cache.DefaultGroup, "", 60))
	assert.Error(t, err)
	_, err = NewCachedStore(nil, client, cache.NewParamConf("other", "", 60))
	assert.Error(t, err)
	// 缓存必须有过期时间
	_, err = NewCachedStore(NewMemStore(), client, cache.NewParamConf("other", "", 0))
	assert.Error(t, err)
	_, err = NewCachedStore(NewMemStore(), client, cache.NewParamConf("other", "", 60))
	assert.NoError(t, err)
}
