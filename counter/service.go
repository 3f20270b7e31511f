package counter

import (
	"context"
	"errors"
	"time"

	"github.com/d0ngw/countd/cache"
	c "github.com/d0ngw/countd/common"
	"github.com/d0ngw/countd/orm"
)

const startTimeout = 30 * time.Second

// Service 按配置组装Store,启动时创建计数表;本身也是一个Store
type Service struct {
	c.BaseService
	DBService  orm.DBService    // 为nil时使用MemStore
	Redis      *cache.RedisConf // 不为nil时在Store之前加Redis缓存
	CacheParam *cache.ParamConf
	Options    []Option
	store      Store
	dbStore    *DBStore
	client     *cache.RedisClient
}

// NewService create counter service
func NewService(name string, order int) *Service {
	return &Service{BaseService: c.BaseService{SName: name, Order: order}}
}

// Init implements Service.Init,DBService需要先于本服务初始化
func (p *Service) Init() error {
	var store Store
	if p.DBService == nil {
		c.Warnf("No db service,counters are kept in memory")
		store = NewMemStore()
	} else {
		pool := p.DBService.Pool()
		if pool == nil {
			return errors.New("db service has no pool")
		}
		dbStore, err := NewDBStore(pool, p.Options...)
		if err != nil {
			return err
		}
		p.dbStore = dbStore
		store = dbStore
	}

	if p.Redis != nil {
		if p.CacheParam == nil {
			p.CacheParam = cache.NewParamConf(cache.DefaultGroup, cache.DefaultPrefix, cache.DefaultExpire)
		}
		client, err := cache.NewRedisClientWithConf(p.Redis)
		if err != nil {
			return err
		}
		cached, err := NewCachedStore(store, client, p.CacheParam)
		if err != nil {
			client.Close()
			return err
		}
		p.client = client
		store = cached
	}
	p.store = store
	return nil
}

// Start 创建计数表,检查Redis是否可用
func (p *Service) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if p.dbStore != nil {
		if err := p.dbStore.Init(ctx); err != nil {
			return err
		}
	}
	if p.client != nil {
		if err := p.client.Ping(ctx); err != nil {
			c.Warnf("Redis is unavailable,reads go to the database until it recovers:%v", err)
		}
	}
	return nil
}

// Stop 关闭Redis连接
func (p *Service) Stop() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// Store returns the assembled store, it's available after Init
func (p *Service) Store() Store {
	return p.store
}

// Fetch implements Store.Fetch
func (p *Service) Fetch(ctx context.Context, id string) (*Entry, error) {
	return p.store.Fetch(ctx, id)
}

// IncrementOrCreate implements Store.IncrementOrCreate
func (p *Service) IncrementOrCreate(ctx context.Context, id string) (*Entry, error) {
	return p.store.IncrementOrCreate(ctx, id)
}
