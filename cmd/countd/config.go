package main

import (
	"fmt"
	"strconv"

	"github.com/d0ngw/countd/cache"
	c "github.com/d0ngw/countd/common"
	"github.com/d0ngw/countd/counter"
	h "github.com/d0ngw/countd/http"
	"github.com/d0ngw/countd/orm"
)

// driverMemory 使用内存存储,只用于本地运行
const driverMemory = "memory"

// CounterConfig 计数存储的配置
type CounterConfig struct {
	Table    string `yaml:"table"`
	Strategy string `yaml:"strategy"`
	strategy counter.Strategy
}

// Parse implements Configurer
func (p *CounterConfig) Parse() error {
	if p.Table == "" {
		p.Table = counter.DefaultTable
	}
	strategy, err := counter.ParseStrategy(p.Strategy)
	if err != nil {
		return err
	}
	p.strategy = strategy
	return nil
}

// Config countd的配置
type Config struct {
	c.AppConfig `yaml:",inline"`
	DB          *orm.DBConfig    `yaml:"db"`
	HTTP        *h.Config        `yaml:"http"`
	Counter     *CounterConfig   `yaml:"counter"`
	Redis       *cache.RedisConf `yaml:"redis"`
	Cache       *cache.CacheConf `yaml:"cache"`
	memory      bool
}

func newConfig() *Config {
	conf := &Config{}
	conf.fillSections()
	return conf
}

// overrideFromEnv 环境变量优先于配置文件
func (p *Config) overrideFromEnv() error {
	c.OverrideString(&p.DB.URL, "COUNTD_DB_URL", "DATABASE_URL")
	c.OverrideString(&p.DB.Driver, "COUNTD_DB_DRIVER")
	c.OverrideString(&p.HTTP.Addr, "COUNTD_ADDR")
	if port := c.Getenv("COUNTD_PORT", "PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("invalid port %q", port)
		}
		p.HTTP.Addr = ":" + port
	}
	c.OverrideString(&p.Counter.Strategy, "COUNTD_STRATEGY")
	c.OverrideString(&p.LogConfig.Level, "COUNTD_LOG_LEVEL")
	if addr := c.Getenv("COUNTD_REDIS_ADDR"); addr != "" {
		group := p.Cache.Group
		if group == "" {
			group = cache.DefaultGroup
		}
		redisConf, err := cache.NewRedisConfFromAddr(addr, group)
		if err != nil {
			return err
		}
		p.Redis = redisConf
	}
	return nil
}

// Parse implements Configurer
func (p *Config) Parse() error {
	p.fillSections()
	if err := p.overrideFromEnv(); err != nil {
		return err
	}
	if p.DB.Driver == driverMemory {
		p.memory = true
		p.DB = nil
	}
	if p.Redis != nil && len(p.Redis.Servers) == 0 {
		p.Redis = nil
	}
	return c.Parse(p)
}

// fillSections 配置文件中值为空的段使用零值
func (p *Config) fillSections() {
	if p.LogConfig == nil {
		p.LogConfig = &c.LogConfig{}
	}
	if p.RuntimeConfig == nil {
		p.RuntimeConfig = &c.RuntimeConfig{}
	}
	if p.DB == nil {
		p.DB = &orm.DBConfig{}
	}
	if p.HTTP == nil {
		p.HTTP = &h.Config{}
	}
	if p.Counter == nil {
		p.Counter = &CounterConfig{}
	}
	if p.Cache == nil {
		p.Cache = &cache.CacheConf{}
	}
}
