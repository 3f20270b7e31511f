package orm

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// 支持的数据库驱动
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// DefaultMaxConn is the pool size used when max_conn is not configured
const DefaultMaxConn = 5

// DBConfig 数据库配置
type DBConfig struct {
	Driver        string `yaml:"driver"`
	URL           string `yaml:"url"` //DSN或者URI;MySQL也可以是host:port,此时使用User,Pass,Schema拼接
	User          string `yaml:"user"`
	Pass          string `yaml:"pass"`
	Schema        string `yaml:"schema"`
	MaxConn       int    `yaml:"max_conn"`
	MaxIdle       int    `yaml:"max_idle"`
	MaxTimeSecond int    `yaml:"max_time_second"` //连接的最大存活时间,0表示不限制
}

// Parse implements Configurer, it infers Driver from URL when absent
func (p *DBConfig) Parse() error {
	if p.URL == "" {
		return fmt.Errorf("need url")
	}
	if p.Driver == "" {
		p.Driver = InferDriver(p.URL)
	}
	if !lo.Contains(Drivers(), p.Driver) {
		return fmt.Errorf("unsupported driver %q, supported:%s", p.Driver, strings.Join(Drivers(), ","))
	}
	if p.MaxConn <= 0 {
		p.MaxConn = DefaultMaxConn
	}
	if p.MaxIdle <= 0 || p.MaxIdle > p.MaxConn {
		p.MaxIdle = p.MaxConn
	}
	if p.MaxTimeSecond < 0 {
		return fmt.Errorf("invalid max_time_second %d", p.MaxTimeSecond)
	}
	return nil
}

// DBConfig implements DBConfigurer
func (p *DBConfig) DBConfig() *DBConfig {
	return p
}

// DBConfigurer DB配置器
type DBConfigurer interface {
	Parse() error
	DBConfig() *DBConfig
}

// InferDriver 根据连接串推断驱动
func InferDriver(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DriverPostgres
	case strings.Contains(lower, "host=") && strings.Contains(lower, "dbname="):
		return DriverPostgres
	case strings.HasPrefix(lower, "file:"), strings.HasPrefix(lower, ":memory:"),
		strings.HasSuffix(strings.SplitN(lower, "?", 2)[0], ".db"), strings.HasSuffix(strings.SplitN(lower, "?", 2)[0], ".sqlite"):
		return DriverSQLite
	default:
		return DriverMySQL
	}
}
