package counter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/d0ngw/countd/cache"
	c "github.com/d0ngw/countd/common"
	"github.com/gomodule/redigo/redis"
)

// 缓存为hash: c为计数,v为msgpack编码的计数项.只有新的计数更大时才覆盖,缓存不会回退
var setIfNewerScript = redis.NewScript(1, `
local cur = redis.call('HGET', KEYS[1], 'c')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'c', ARGV[1], 'v', ARGV[2])
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('EXPIRE', KEYS[1], ttl)
end
return 1
`)

type cachedEntry struct {
	ID         string `codec:"i"`
	Count      int64  `codec:"c"`
	ModifiedAt int64  `codec:"m"` // unix微秒
}

// CachedStore 在Store之前使用Redis缓存,关系数据库中的行仍然是唯一的数据来源.
// 写缓存失败并且无法删除旧值的key记录在stale中,直到缓存追上该计数之前Fetch都不读缓存
type CachedStore struct {
	inner  Store
	client *cache.RedisClient
	param  *cache.ParamConf

	mu    sync.Mutex
	stale map[string]int64 // id -> 未能写入缓存的计数
}

// NewCachedStore create CachedStore,param的过期时间必须大于0
func NewCachedStore(inner Store, client *cache.RedisClient, param *cache.ParamConf) (*CachedStore, error) {
	if c.HasNil(inner, client, param) {
		return nil, errors.New("inner,client and param must be set")
	}
	if !client.HasGroup(param.Group()) {
		return nil, errors.New("redis group " + param.Group() + " not configured")
	}
	if param.Expire() <= 0 {
		return nil, errors.New("cache expire must be positive")
	}
	return &CachedStore{inner: inner, client: client, param: param, stale: map[string]int64{}}, nil
}

func (p *CachedStore) isStale(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.stale[id]
	return ok
}

func (p *CachedStore) markStale(id string, count int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if count > p.stale[id] {
		p.stale[id] = count
	}
}

// clearStale 缓存中的计数已经不小于count
func (p *CachedStore) clearStale(id string, count int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if stale, ok := p.stale[id]; ok && count >= stale {
		delete(p.stale, id)
	}
}

// Fetch implements Store.Fetch
func (p *CachedStore) Fetch(ctx context.Context, id string) (*Entry, error) {
	key := p.param.NewParamKey(id)
	if p.isStale(id) {
		c.Debugf("Skip stale cache %s", key.Key())
	} else if bytes, ok, err := p.client.HGetBytes(ctx, key, "v"); err != nil {
		c.Warnf("Read cache %s fail:%v", key.Key(), err)
	} else if ok {
		var cached cachedEntry
		if err = cache.MsgPackDecodeBytes(bytes, &cached); err == nil {
			return &Entry{
				ID:         cached.ID,
				Count:      cached.Count,
				ModifiedAt: time.UnixMicro(cached.ModifiedAt).UTC(),
			}, nil
		}
		c.Warnf("Decode cache %s fail:%v", key.Key(), err)
	}

	entry, err := p.inner.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	p.store(ctx, entry)
	return entry, nil
}

// IncrementOrCreate implements Store.IncrementOrCreate
func (p *CachedStore) IncrementOrCreate(ctx context.Context, id string) (*Entry, error) {
	entry, err := p.inner.IncrementOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}
	p.store(ctx, entry)
	return entry, nil
}

// store 写入缓存,失败时删除旧值;删除也失败时标记该key,Fetch不再信任缓存
func (p *CachedStore) store(ctx context.Context, entry *Entry) {
	key := p.param.NewParamKey(entry.ID)
	bytes, err := cache.MsgPackEncodeBytes(&cachedEntry{
		ID:         entry.ID,
		Count:      entry.Count,
		ModifiedAt: entry.ModifiedAt.UnixMicro(),
	})
	if err == nil {
		if _, err = p.client.Eval(ctx, key, setIfNewerScript, entry.Count, bytes, key.Expire()); err == nil {
			p.clearStale(entry.ID, entry.Count)
			return
		}
	}
	c.Warnf("Write cache %s fail:%v", key.Key(), err)
	if _, delErr := p.client.Del(ctx, key); delErr != nil {
		c.Warnf("Invalidate cache %s fail:%v", key.Key(), delErr)
		p.markStale(entry.ID, entry.Count)
	}
}
