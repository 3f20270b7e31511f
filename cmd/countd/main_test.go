package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/d0ngw/countd/cache"
	c "github.com/d0ngw/countd/common"
	"github.com/d0ngw/countd/counter"
	h "github.com/d0ngw/countd/http"
	"github.com/d0ngw/countd/orm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConf = `
log:
  level: warn
db:
  url: %s
http:
  addr: "127.0.0.1:0"
  max_conns: 8
counter:
  table: test_entries
  strategy: transaction
cache:
  prefix: "t:"
`

func fmtConf(dbPath string) string {
	return fmt.Sprintf(testConf, dbPath)
}

func writeConf(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "countd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func withFlags(t *testing.T, conf, env string) {
	oldConf, oldEnv := *optConf, *optEnv
	*optConf, *optEnv = conf, env
	t.Cleanup(func() { *optConf, *optEnv = oldConf, oldEnv })
}

func TestLoadConfig(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "countd.sqlite")
	withFlags(t, writeConf(t, fmtConf(dbPath)), filepath.Join(t.TempDir(), "missing.env"))

	conf, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, orm.DriverSQLite, conf.DB.Driver)
	assert.Equal(t, dbPath, conf.DB.URL)
	assert.Equal(t, orm.DefaultMaxConn, conf.DB.MaxConn)
	assert.Equal(t, "127.0.0.1:0", conf.HTTP.Addr)
	assert.Equal(t, 8, conf.HTTP.MaxConns)
	assert.Equal(t, "test_entries", conf.Counter.Table)
	assert.Equal(t, counter.StrategyTransaction, conf.Counter.strategy)
	assert.Equal(t, cache.DefaultGroup, conf.Cache.Group)
	assert.Equal(t, "t:", conf.Cache.Prefix)
	assert.Nil(t, conf.Redis)
	assert.False(t, conf.memory)
}

func TestLoadConfigFromEnv(t *testing.T) {
	mr := miniredis.RunT(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("COUNTD_STRATEGY=transaction\n"), 0o600))
	withFlags(t, filepath.Join(t.TempDir(), "missing.yaml"), envFile)
	t.Setenv("COUNTD_DB_URL", "postgres://u:p@127.0.0.1/countd?sslmode=disable")
	t.Setenv("COUNTD_PORT", "9090")
	t.Setenv("COUNTD_REDIS_ADDR", mr.Addr())
	t.Setenv("COUNTD_STRATEGY", "")
	os.Unsetenv("COUNTD_STRATEGY")

	conf, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, orm.DriverPostgres, conf.DB.Driver)
	assert.Equal(t, ":9090", conf.HTTP.Addr)
	assert.Equal(t, counter.StrategyTransaction, conf.Counter.strategy)
	assert.Equal(t, counter.DefaultTable, conf.Counter.Table)
	require.NotNil(t, conf.Redis)
	assert.Equal(t, []string{"default"}, conf.Redis.Groups[cache.DefaultGroup])

	t.Setenv("COUNTD_PORT", "http")
	_, err = loadConfig()
	assert.Error(t, err)
}

func TestLoadConfigMemory(t *testing.T) {
	withFlags(t, filepath.Join(t.TempDir(), "missing.yaml"), "")
	t.Setenv("COUNTD_DB_DRIVER", "memory")
	conf, err := loadConfig()
	require.NoError(t, err)
	assert.True(t, conf.memory)
	assert.Nil(t, conf.DB)
	assert.Equal(t, h.DefaultAddr, conf.HTTP.Addr)
	assert.Equal(t, counter.StrategyUpsert, conf.Counter.strategy)
}

func TestBuildServices(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "countd.sqlite")
	withFlags(t, writeConf(t, fmtConf(dbPath)), "")
	conf, err := loadConfig()
	require.NoError(t, err)

	services, httpService, err := buildServices(conf)
	require.NoError(t, err)
	require.NoError(t, services.Init())
	require.NoError(t, services.Start())
	base := "http://" + httpService.Addr()

	ctx := context.Background()
	client := &http.Client{}
	for i := 1; i <= 3; i++ {
		body, _, err := h.PostURL(ctx, client, base+"/abc", nil, "", nil)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"count":`)
	}
	var entry counter.Entry
	require.NoError(t, h.GetJSON(ctx, client, base+"/abc", &entry))
	assert.EqualValues(t, 3, entry.Count)

	require.NoError(t, services.Stop())
	assert.Equal(t, c.TERMINATED, httpService.State())
}
