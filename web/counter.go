// Package web 计数的http接口
package web

import (
	"net/http"

	c "github.com/d0ngw/countd/common"
	"github.com/d0ngw/countd/counter"
	h "github.com/d0ngw/countd/http"
)

// CounterController GET /{id}读取计数,POST /{id}递增计数
type CounterController struct {
	h.BaseController
	store counter.Store
}

// NewCounterController create CounterController
func NewCounterController(store counter.Store) *CounterController {
	return &CounterController{
		BaseController: h.BaseController{
			Name: "counter",
			PatternMethods: map[string]string{
				"GET /{id}":  "Fetch",
				"POST /{id}": "Increment",
				"GET /{$}":   "Empty",
				"POST /{$}":  "Empty",
			},
		},
		store: store,
	}
}

// GetHandlers implements Controller
func (p *CounterController) GetHandlers() (map[string]http.HandlerFunc, error) {
	return h.ReflectHandlers(p, p.PatternMethods)
}

// Fetch 读取计数
func (p *CounterController) Fetch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := counter.ValidateID(id); err != nil {
		p.renderError(w, r, err)
		return
	}
	entry, err := p.store.Fetch(r.Context(), id)
	if err != nil {
		p.renderError(w, r, err)
		return
	}
	h.RenderJSON(w, entry)
}

// Increment 递增计数,不存在时以1创建
func (p *CounterController) Increment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := counter.ValidateID(id); err != nil {
		p.renderError(w, r, err)
		return
	}
	entry, err := p.store.IncrementOrCreate(r.Context(), id)
	if err != nil {
		p.renderError(w, r, err)
		return
	}
	h.RenderJSON(w, entry)
}

// Empty 没有id的请求
func (p *CounterController) Empty(w http.ResponseWriter, r *http.Request) {
	h.RenderStatus(w, http.StatusBadRequest)
}

// StatusOf 错误类别对应的http状态码
func StatusOf(err error) int {
	switch counter.KindOf(err) {
	case counter.KindNotFound:
		return http.StatusNotFound
	case counter.KindInvalid:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (p *CounterController) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	level := c.Warn
	switch {
	case status == http.StatusNotFound:
		level = c.Debug
	case status == http.StatusBadRequest:
		level = c.Info
	case counter.KindOf(err) == counter.KindInternal:
		level = c.Error
	}
	c.Logf(level, "%s %s -> %d,request_id:%s,err:%v", r.Method, r.URL.Path, status, h.RequestIDFromRequest(r), err)
	h.RenderStatus(w, status)
}
