package orm

import (
	"context"
	"fmt"
	"time"

	c "github.com/d0ngw/countd/common"
)

// DBService is the service that supply the pool
type DBService interface {
	c.Service
	Pool() *Pool
}

// SimpleDBService implements DBService with one pool
type SimpleDBService struct {
	c.BaseService
	Config   DBConfigurer
	poolFunc PoolFunc
	pool     *Pool
}

// NewSimpleDBService build simple db service, poolFunc defaults to NewPool
func NewSimpleDBService(config DBConfigurer, poolFunc PoolFunc) *SimpleDBService {
	if poolFunc == nil {
		poolFunc = NewPool
	}
	return &SimpleDBService{
		BaseService: c.BaseService{SName: "db"},
		Config:      config,
		poolFunc:    poolFunc,
	}
}

// Init implements Initable.Init(), the pool connects lazily
func (p *SimpleDBService) Init() error {
	if p.pool != nil {
		return fmt.Errorf("Inited")
	}
	if p.Config == nil || p.Config.DBConfig() == nil {
		return fmt.Errorf("No db config")
	}

	pool, err := p.poolFunc(p.Config.DBConfig())
	if err != nil {
		return err
	}
	p.pool = pool
	c.Infof("db pool %s created,max conn:%d", pool.Driver(), p.Config.DBConfig().MaxConn)
	return nil
}

// Start checks the database is reachable
func (p *SimpleDBService) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Stop closes the pool
func (p *SimpleDBService) Stop() error {
	if p.pool == nil {
		return nil
	}
	return p.pool.Close()
}

// Pool returns the pool, nil before Init
func (p *SimpleDBService) Pool() *Pool {
	return p.pool
}
