package web

import (
	"github.com/d0ngw/countd/counter"
	h "github.com/d0ngw/countd/http"
)

// Setup 在conf上注册middleware和计数接口
func Setup(conf *h.Config, store counter.Store) error {
	if err := conf.RegMiddleware(&h.RequestIDMiddleware{}); err != nil {
		return err
	}
	if err := conf.RegMiddleware(&h.AccessLogMiddleware{}); err != nil {
		return err
	}
	return conf.RegController(NewCounterController(store))
}
