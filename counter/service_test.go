package counter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/d0ngw/countd/cache"
	c "github.com/d0ngw/countd/common"
	"github.com/d0ngw/countd/orm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceWithDB(t *testing.T) {
	dbService := orm.NewSimpleDBService(&orm.DBConfig{URL: filepath.Join(t.TempDir(), "svc.sqlite")}, nil)
	require.NoError(t, dbService.Config.Parse())
	svc := NewService("counter", 10)
	svc.DBService = dbService
	svc.Options = []Option{WithStrategy(StrategyTransaction), WithTable("svc_entries")}

	mr := miniredis.RunT(t)
	redisConf, err := cache.NewRedisConfFromAddr(mr.Addr(), cache.DefaultGroup)
	require.NoError(t, err)
	svc.Redis = redisConf

	services := c.NewServices(svc, dbService)
	require.NoError(t, services.Init())
	require.NoError(t, services.Start())
	assert.Equal(t, c.RUNNING, svc.State())

	_, ok := svc.Store().(*CachedStore)
	assert.True(t, ok)
	assert.Equal(t, "svc_entries", svc.dbStore.Table())
	assert.Equal(t, StrategyTransaction, svc.dbStore.Strategy())

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		entry, err := svc.IncrementOrCreate(ctx, "abc")
		require.NoError(t, err)
		assert.EqualValues(t, i, entry.Count)
	}
	entry, err := svc.Fetch(ctx, "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 3, entry.Count)
	assert.True(t, mr.Exists(cache.DefaultPrefix+"abc"))

	require.NoError(t, services.Stop())
	assert.Equal(t, c.TERMINATED, svc.State())
	assert.Equal(t, c.TERMINATED, dbService.State())
}

func TestServiceInMemory(t *testing.T) {
	svc := NewService("counter", 0)
	require.NoError(t, c.ServiceInit(svc))
	require.NoError(t, c.ServiceStart(svc))
	_, ok := svc.Store().(*MemStore)
	assert.True(t, ok)

	entry, err := svc.IncrementOrCreate(context.Background(), "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 1, entry.Count)
	require.NoError(t, c.ServiceStop(svc))
}

func TestServiceInitFail(t *testing.T) {
	dbService := orm.NewSimpleDBService(&orm.DBConfig{URL: filepath.Join(t.TempDir(), "svc.sqlite")}, nil)
	require.NoError(t, dbService.Config.Parse())
	require.NoError(t, c.ServiceInit(dbService))
	defer dbService.Stop()

	svc := NewService("counter", 0)
	svc.DBService = dbService
	svc.Options = []Option{WithTable("bad table")}
	assert.Error(t, c.ServiceInit(svc))
	assert.Equal(t, c.FAILED, svc.State())

	// 未初始化的db服务没有连接池
	svc = NewService("counter", 0)
	svc.DBService = orm.NewSimpleDBService(&orm.DBConfig{}, nil)
	assert.Error(t, c.ServiceInit(svc))
}
