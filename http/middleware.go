package http

import (
	"net/http"
	"strings"
	"time"

	c "github.com/d0ngw/countd/common"
	"github.com/google/uuid"
)

// Middleware 定义接口
type Middleware interface {
	// Handle 包装next
	Handle(next http.HandlerFunc) http.HandlerFunc
}

// MiddlewareFunc 函数形式的Middleware
type MiddlewareFunc func(next http.HandlerFunc) http.HandlerFunc

// Handle implements Middleware
func (f MiddlewareFunc) Handle(next http.HandlerFunc) http.HandlerFunc {
	return f(next)
}

// RequestIDHeader 请求id的header
const RequestIDHeader = "X-Request-Id"

// RequestIDMiddleware 为每个请求分配id,沿用客户端传入的合法id,并写入响应header
type RequestIDMiddleware struct {
}

// Handle implements Middleware
func (p *RequestIDMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next(w, RequestWithContext(r, requestIDKey, id))
	}
}

// statusWriter 记录响应的状态码
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (p *statusWriter) WriteHeader(status int) {
	if p.status == 0 {
		p.status = status
	}
	p.ResponseWriter.WriteHeader(status)
}

func (p *statusWriter) Write(b []byte) (int, error) {
	if p.status == 0 {
		p.status = http.StatusOK
	}
	return p.ResponseWriter.Write(b)
}

func (p *statusWriter) Unwrap() http.ResponseWriter {
	return p.ResponseWriter
}

// AccessLogMiddleware 以debug级别记录每个请求
type AccessLogMiddleware struct {
}

// Handle implements Middleware
func (p *AccessLogMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !c.DebugEnabled() {
			next(w, r)
			return
		}
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next(sw, r)
		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		c.Debugf("%s %s %d %s request_id:%s", r.Method, r.URL.Path, sw.status, time.Since(start), RequestIDFromRequest(r))
	}
}
