package http

import (
	"fmt"
	"net/http"
	"reflect"
)

// Controller 接口定义http处理器
type Controller interface {
	// GetName 控制器的名称
	GetName() string
	// GetHandlers 返回controller的所有处理方法,key为ServeMux的pattern,value为对应的处理方法
	GetHandlers() (map[string]http.HandlerFunc, error)
}

// BaseController 表示一个控制器
type BaseController struct {
	Name           string            // Controller的名称
	PatternMethods map[string]string // pattern -> 方法名
}

// GetName implements Controller
func (p *BaseController) GetName() string {
	return p.Name
}

var handlerFuncType = reflect.TypeOf(http.HandlerFunc(nil))

// ReflectHandlers 按照PatternMethods查找controller中签名为http.HandlerFunc的可导出方法
func ReflectHandlers(controller Controller, patternMethods map[string]string) (map[string]http.HandlerFunc, error) {
	val := reflect.ValueOf(controller)
	if !val.IsValid() || val.Kind() != reflect.Ptr || val.IsNil() {
		return nil, fmt.Errorf("controller must be a valid pointer")
	}

	handlers := make(map[string]http.HandlerFunc, len(patternMethods))
	for pattern, methodName := range patternMethods {
		method := val.MethodByName(methodName)
		if !method.IsValid() {
			return nil, fmt.Errorf("can't find method %s in %T", methodName, controller)
		}
		if !method.Type().ConvertibleTo(handlerFuncType) {
			return nil, fmt.Errorf("method %s of %T is not a http.HandlerFunc", methodName, controller)
		}
		handlers[pattern] = method.Convert(handlerFuncType).Interface().(http.HandlerFunc)
	}
	return handlers, nil
}
