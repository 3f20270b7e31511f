// countd 按键计数的http服务
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	c "github.com/d0ngw/countd/common"
	"github.com/d0ngw/countd/counter"
	h "github.com/d0ngw/countd/http"
	"github.com/d0ngw/countd/orm"
	"github.com/d0ngw/countd/web"
)

var (
	optConf = flag.String("conf", "conf/countd.yaml", "/path/to/countd.yaml, it's optional")
	optEnv  = flag.String("env", ".env", "/path/to/.env, it's optional")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		c.Criticalf("countd exit with error:%v", err)
		c.SyncLog()
		os.Exit(1)
	}
	c.SyncLog()
}

func loadConfig() (*Config, error) {
	if err := c.LoadDotEnv(*optEnv); err != nil {
		return nil, fmt.Errorf("load %s: %w", *optEnv, err)
	}
	conf := newConfig()
	exist, err := c.FileLoader.Exist(*optConf)
	if err != nil {
		return nil, err
	}
	if exist {
		if err = c.LoadConfig(conf, "", filepath.Dir(*optConf), filepath.Base(*optConf)); err != nil {
			return nil, fmt.Errorf("load %s: %w", *optConf, err)
		}
	} else {
		c.Infof("No config file %s,use defaults and environment", *optConf)
	}
	if err = conf.Parse(); err != nil {
		return nil, err
	}
	return conf, nil
}

// buildServices 按照启动次序组装服务:数据库,计数,http
func buildServices(conf *Config) (*c.Services, *h.Service, error) {
	counterService := counter.NewService("counter", 10)
	counterService.Options = []counter.Option{
		counter.WithTable(conf.Counter.Table),
		counter.WithStrategy(conf.Counter.strategy),
	}
	counterService.Redis = conf.Redis
	counterService.CacheParam = conf.Cache.ParamConf()

	services := []c.Service{counterService}
	if !conf.memory {
		dbService := orm.NewSimpleDBService(conf.DB, nil)
		counterService.DBService = dbService
		services = append(services, dbService)
	}

	if err := web.Setup(conf.HTTP, counterService); err != nil {
		return nil, nil, err
	}
	httpService := h.NewService("http", conf.HTTP)
	httpService.Order = 20
	services = append(services, httpService)
	return c.NewServices(services...), httpService, nil
}

func run() error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	services, _, err := buildServices(conf)
	if err != nil {
		return err
	}
	if err = services.Init(); err != nil {
		return err
	}
	if err = services.Start(); err != nil {
		services.Stop()
		return err
	}
	c.Infof("countd is running,listen at %s", conf.HTTP.Addr)

	var stopErr error
	hook := c.NewShutdownhook()
	hook.AddHook(func() {
		stopErr = services.Stop()
	})
	hook.WaitShutdown()
	return stopErr
}
