package orm

import (
	"context"
	"database/sql"
	"sort"
	"time"

	c "github.com/d0ngw/countd/common"
	"github.com/samber/lo"
)

// Pool 数据库连接池
type Pool struct {
	name   string
	driver string
	db     *sql.DB
}

// PoolFunc 使用配置创建连接池
type PoolFunc func(config *DBConfig) (*Pool, error)

// driverSpec 一个驱动的连接池构建函数和错误分类
type driverSpec struct {
	poolFunc        PoolFunc
	uniqueViolation func(err error) bool
	transient       func(err error) bool
}

var drivers = map[string]*driverSpec{}

func registerDriver(name string, spec *driverSpec) {
	drivers[name] = spec
}

// Drivers 返回支持的驱动名称
func Drivers() []string {
	names := lo.Keys(drivers)
	sort.Strings(names)
	return names
}

// NewPool 按照config.Driver创建连接池
func NewPool(config *DBConfig) (*Pool, error) {
	if config == nil {
		return nil, NewDBError(nil, "Not found config")
	}
	spec := drivers[config.Driver]
	if spec == nil {
		return nil, NewDBErrorf(nil, "unsupported driver %q", config.Driver)
	}
	return spec.poolFunc(config)
}

func newPool(driver, dsn string, config *DBConfig) (*Pool, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		c.Errorf("Error on initializing %s connection,%v", driver, err)
		return nil, NewDBError(err, "Can't open connection")
	}
	db.SetMaxOpenConns(config.MaxConn)
	db.SetMaxIdleConns(config.MaxIdle)
	if config.MaxTimeSecond > 0 {
		db.SetConnMaxLifetime(time.Duration(config.MaxTimeSecond) * time.Second)
	}
	return &Pool{name: driver, driver: driver, db: db}, nil
}

// Name 连接池名称
func (p *Pool) Name() string {
	return p.name
}

// Driver 驱动名称
func (p *Pool) Driver() string {
	return p.driver
}

// DB 取得sql.DB
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Ping 检查数据库连接
func (p *Pool) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close 关闭连接池
func (p *Pool) Close() error {
	return p.db.Close()
}

// NewOp 创建数据库操作
func (p *Pool) NewOp() *Op {
	return &Op{pool: p}
}

// IsUniqueViolation 判断err是否是驱动报告的唯一键冲突
func (p *Pool) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if spec := drivers[p.driver]; spec != nil && spec.uniqueViolation != nil {
		return spec.uniqueViolation(err)
	}
	return false
}

// IsTransient 判断err是否是可以重试的临时错误,包括连接失败,死锁,串行化失败
func (p *Pool) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if isTransientConn(err) {
		return true
	}
	if spec := drivers[p.driver]; spec != nil && spec.transient != nil {
		return spec.transient(err)
	}
	return false
}
