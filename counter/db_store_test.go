package counter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/d0ngw/countd/orm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDBStore(t *testing.T) {
	_, err := NewDBStore(nil)
	assert.Error(t, err)

	store := newSQLiteStore(t)
	assert.Equal(t, StrategyUpsert, store.Strategy())
	assert.Equal(t, DefaultTable, store.Table())
	// 重复创建表
	assert.NoError(t, store.Init(context.Background()))

	pool := store.pool
	for _, table := range []string{"", "1entries", "entries;drop table x", "a-b", "entries "} {
		_, err = NewDBStore(pool, WithTable(table))
		assert.Error(t, err, table)
	}
	_, err = NewDBStore(pool, WithStrategy("lock"))
	assert.Error(t, err)

	custom, err := NewDBStore(pool, WithTable("counters_v2"), WithStrategy(StrategyTransaction))
	require.NoError(t, err)
	require.NoError(t, custom.Init(context.Background()))
	entry, err := custom.IncrementOrCreate(context.Background(), "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 1, entry.Count)
	_, err = store.Fetch(context.Background(), "abc")
	assert.True(t, IsNotFound(err))
}

func TestParseStrategy(t *testing.T) {
	cases := map[string]Strategy{
		"":              StrategyUpsert,
		"upsert":        StrategyUpsert,
		" Transaction ": StrategyTransaction,
	}
	for name, expected := range cases {
		strategy, err := ParseStrategy(name)
		require.NoError(t, err)
		assert.Equal(t, expected, strategy)
	}
	_, err := ParseStrategy("delete-reinsert")
	assert.Error(t, err)
}

func TestDialects(t *testing.T) {
	for _, driver := range orm.Drivers() {
		d, err := newDialect(driver, "entries")
		require.NoError(t, err, driver)
		assert.Contains(t, d.createTable, "CREATE TABLE IF NOT EXISTS entries")
		assert.Contains(t, d.upsert, "INSERT INTO entries")
		assert.Contains(t, d.update, "UPDATE entries")
		assert.NotNil(t, d.bindTime)
	}
	mysqlDialect, _ := newDialect(orm.DriverMySQL, "entries")
	assert.False(t, mysqlDialect.upsertReturning)
	assert.Contains(t, mysqlDialect.upsert, "LAST_INSERT_ID(count + 1)")
	assert.Contains(t, mysqlDialect.lock, "FOR UPDATE")

	pgDialect, _ := newDialect(orm.DriverPostgres, "entries")
	assert.True(t, pgDialect.upsertReturning)
	assert.Contains(t, pgDialect.upsert, "GREATEST(entries.modified_at, EXCLUDED.modified_at)")

	_, err := newDialect("oracle", "entries")
	assert.Error(t, err)
}

// 时钟回拨时modified_at不会变小
func TestModifiedAtMonotonic(t *testing.T) {
	base := time.Date(2026, 10, 19, 8, 0, 0, 123456000, time.UTC)
	for _, strategy := range []Strategy{StrategyUpsert, StrategyTransaction} {
		clock := []time.Time{base, base.Add(-time.Hour), base.Add(time.Second)}
		i := 0
		store := newSQLiteStore(t, WithStrategy(strategy), WithClock(func() time.Time {
			now := clock[i]
			i++
			return now
		}))
		ctx := context.Background()

		entry, err := store.IncrementOrCreate(ctx, "clock")
		require.NoError(t, err)
		assert.True(t, base.Equal(entry.ModifiedAt), "%s %v", strategy, entry.ModifiedAt)

		entry, err = store.IncrementOrCreate(ctx, "clock")
		require.NoError(t, err)
		assert.EqualValues(t, 2, entry.Count)
		assert.True(t, base.Equal(entry.ModifiedAt), "%s %v", strategy, entry.ModifiedAt)

		entry, err = store.IncrementOrCreate(ctx, "clock")
		require.NoError(t, err)
		assert.True(t, base.Add(time.Second).Equal(entry.ModifiedAt), "%s %v", strategy, entry.ModifiedAt)

		fetched, err := store.Fetch(ctx, "clock")
		require.NoError(t, err)
		assert.EqualValues(t, 3, fetched.Count)
		assert.True(t, entry.ModifiedAt.Equal(fetched.ModifiedAt))
	}
}

func TestCanceledContext(t *testing.T) {
	store := newSQLiteStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.IncrementOrCreate(ctx, "abc")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = store.Fetch(ctx, "abc")
	assert.True(t, IsTransient(err))

	// 失败的调用没有任何效果
	entry, err := store.IncrementOrCreate(context.Background(), "abc")
	require.NoError(t, err)
	assert.EqualValues(t, 1, entry.Count)
}

func TestMissingTable(t *testing.T) {
	pool := newTestPool(t, t.TempDir()+"/missing.sqlite")
	store, err := NewDBStore(pool)
	require.NoError(t, err)
	_, err = store.IncrementOrCreate(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestError(t *testing.T) {
	err := newError(KindNotFound, "fetch", "abc", nil)
	assert.Equal(t, `counter: fetch "abc": not found`, err.Error())
	assert.False(t, err.Temporary())

	cause := errors.New("bad conn")
	err = newError(KindTransient, "increment", "abc", cause)
	assert.Equal(t, `counter: increment "abc": transient: bad conn`, err.Error())
	assert.True(t, err.Temporary())
	assert.True(t, errors.Is(err, cause))

	wrapped := errors.Join(errors.New("outer"), err)
	assert.Equal(t, KindTransient, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(cause))
	assert.False(t, IsNotFound(nil))
	assert.Equal(t, "kind(42)", Kind(42).String())
}
