package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	c "github.com/d0ngw/countd/common"
	"golang.org/x/net/netutil"
)

const (
	keepAlivePeriod     = 3 * time.Minute
	defaultShutdownWait = 10 * time.Second
)

// Service Http服务
type Service struct {
	c.BaseService
	Conf     *Config
	handler  http.Handler
	listener net.Listener
	server   *http.Server
	served   chan struct{}
	lock     sync.Mutex
}

// NewService create http service
func NewService(name string, conf *Config) *Service {
	return &Service{
		BaseService: c.BaseService{SName: name},
		Conf:        conf,
	}
}

// Init 初始化Http服务,绑定所有注册的处理函数
func (p *Service) Init() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.Conf == nil {
		return errors.New("no http config")
	}
	if err := p.Conf.Parse(); err != nil {
		return err
	}

	p.Conf.mux.RLock()
	defer p.Conf.mux.RUnlock()

	serveMux := http.NewServeMux()
	for pattern, handler := range p.Conf.handles {
		if handler == nil || handler.handlerFunc == nil {
			return fmt.Errorf("can't bind nil handlerFunc to pattern %s", pattern)
		}
		serveMux.Handle(pattern, p.handleWithMiddleware(handler))
	}
	// 未匹配到pattern的请求也经过全局的middleware
	p.handler = p.withMiddlewares(serveMux.ServeHTTP, p.Conf.middlewares)
	p.server = &http.Server{
		ReadTimeout:  p.Conf.readTimeout(),
		WriteTimeout: p.Conf.writeTimeout(),
		Handler:      p.handler,
	}
	return nil
}

// Handler returns the root handler, it's available after Init
func (p *Service) Handler() http.Handler {
	return p.handler
}

// handleWithMiddleware 依次调用handler自己的middleware
func (p *Service) handleWithMiddleware(handler *handlerWithMiddleware) http.Handler {
	originHandler := func(w http.ResponseWriter, r *http.Request) {
		if err, ok := ErrorFromRequestContext(r); ok {
			c.Errorf("stop handle %s,cause by error:%v", r.RequestURI, err)
			return
		}
		handler.handlerFunc(w, r)
	}
	return p.withMiddlewares(originHandler, handler.middlewares)
}

func (p *Service) withMiddlewares(h http.HandlerFunc, middlewares []Middleware) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i].Handle(h)
	}
	return h
}

// Start 启动Http服务,开始端口监听和服务处理
func (p *Service) Start() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.server == nil {
		return errors.New("http service not inited")
	}

	lc := net.ListenConfig{KeepAlive: keepAlivePeriod}
	ln, err := lc.Listen(context.Background(), "tcp", p.Conf.Addr)
	if err != nil {
		return fmt.Errorf("listen at %s: %w", p.Conf.Addr, err)
	}
	if p.Conf.MaxConns > 0 {
		ln = netutil.LimitListener(ln, p.Conf.MaxConns)
	}
	p.listener = ln
	c.Infof("Listen at %s", ln.Addr())

	served := make(chan struct{})
	p.served = served
	server := p.server
	go func() {
		defer close(served)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.Errorf("server.Serve return with %v", err)
		}
	}()
	return nil
}

// Addr 实际监听的地址,监听端口为0时可以取得分配的端口
func (p *Service) Addr() string {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.listener == nil {
		return ""
	}
	return p.listener.Addr().String()
}

// Stop 停止Http服务,关闭端口监听并等待处理中的请求结束
func (p *Service) Stop() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.server == nil || p.listener == nil {
		return nil
	}

	wait := defaultShutdownWait
	if p.Conf.ShutdownWait > 0 {
		wait = time.Duration(p.Conf.ShutdownWait) * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	c.Infof("Waiting shutdown")
	err := p.server.Shutdown(ctx)
	if err != nil {
		c.Warnf("Shutdown in %s fail:%v,close all connections", wait, err)
		err = p.server.Close()
	}
	<-p.served
	c.Infof("Finish shutdown")

	p.listener = nil
	p.server = nil
	return err
}
