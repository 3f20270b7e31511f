// Package http 提供基本的http服务
package http

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	c "github.com/d0ngw/countd/common"
)

// DefaultAddr 默认的监听地址
const DefaultAddr = ":8080"

// Config Http配置
type Config struct {
	Addr         string `yaml:"addr"`          //Http监听地址
	ReadTimeout  int    `yaml:"read_timeout"`  //读超时,单位秒
	WriteTimeout int    `yaml:"write_timeout"` //写超时,单位秒
	MaxConns     int    `yaml:"max_conns"`     //最大的并发连接数,0表示不限制
	ShutdownWait int    `yaml:"shutdown_wait"` //停止时等待处理中请求的时间,单位秒
	middlewares  []Middleware
	controllers  []Controller
	handles      map[string]*handlerWithMiddleware
	mux          sync.RWMutex
}

type handlerWithMiddleware struct {
	handlerFunc http.HandlerFunc
	middlewares []Middleware
}

// NewConfig 创建配置
func NewConfig(addr string) *Config {
	return &Config{Addr: addr}
}

// Parse implements Configurer
func (p *Config) Parse() error {
	p.Addr = strings.TrimSpace(p.Addr)
	if p.Addr == "" {
		p.Addr = DefaultAddr
	}
	if p.ReadTimeout < 0 || p.WriteTimeout < 0 || p.MaxConns < 0 || p.ShutdownWait < 0 {
		return fmt.Errorf("invalid http config,timeouts and max_conns must not be negative")
	}
	return nil
}

func (p *Config) readTimeout() time.Duration {
	return time.Duration(p.ReadTimeout) * time.Second
}

func (p *Config) writeTimeout() time.Duration {
	return time.Duration(p.WriteTimeout) * time.Second
}

// RegController 注册controller中的所有处理函数
func (p *Config) RegController(controller Controller) error {
	if controller == nil {
		return fmt.Errorf("can't reg nil controller")
	}
	handlers, err := controller.GetHandlers()
	if err != nil {
		return err
	}
	if len(handlers) == 0 {
		c.Warnf("Can't find handler in %T#%s", controller, controller.GetName())
		return nil
	}

	p.mux.Lock()
	defer p.mux.Unlock()
	for pattern, h := range handlers {
		if err := p.regHandle(pattern, &handlerWithMiddleware{handlerFunc: h}); err != nil {
			return err
		}
		c.Infof("Register controller %T#%s,pattern:%s", controller, controller.GetName(), pattern)
	}
	p.controllers = append(p.controllers, controller)
	return nil
}

func (p *Config) regHandle(pattern string, handle *handlerWithMiddleware) error {
	if p.handles == nil {
		p.handles = map[string]*handlerWithMiddleware{}
	}
	if _, ok := p.handles[pattern]; ok {
		return fmt.Errorf("duplicate pattern:%s", pattern)
	}
	p.handles[pattern] = handle
	return nil
}

// RegHandleFunc 注册pattern的处理函数handlerFunc,pattern可以带有方法,如"GET /{id}"
func (p *Config) RegHandleFunc(pattern string, handlerFunc http.HandlerFunc, middlewares ...Middleware) error {
	if handlerFunc == nil {
		return fmt.Errorf("can't bind nil handlerFunc to pattern %s", pattern)
	}
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.regHandle(pattern, &handlerWithMiddleware{handlerFunc: handlerFunc, middlewares: middlewares})
}

// RegMiddleware 注册对所有处理函数生效的middleware,先注册的在外层
func (p *Config) RegMiddleware(middleware Middleware) error {
	if middleware == nil {
		return fmt.Errorf("invalid middleware")
	}
	p.mux.Lock()
	defer p.mux.Unlock()
	p.middlewares = append(p.middlewares, middleware)
	return nil
}
