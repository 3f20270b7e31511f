package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type DemoController struct {
	BaseController
	calls []string
}

func (p *DemoController) Index(w http.ResponseWriter, r *http.Request) {
	p.calls = append(p.calls, "index")
}

func (p *DemoController) Second(w http.ResponseWriter, r *http.Request) {
	p.calls = append(p.calls, "second")
}

func (p *DemoController) NotHandler() string {
	return p.Name
}

func (p *DemoController) GetHandlers() (map[string]http.HandlerFunc, error) {
	return ReflectHandlers(p, p.PatternMethods)
}

func TestReflectHandlers(t *testing.T) {
	testReflectHandlers(t, "demo1")
	testReflectHandlers(t, "demo2")
}

func testReflectHandlers(t *testing.T, name string) {
	controller := &DemoController{
		BaseController: BaseController{
			Name: name,
			PatternMethods: map[string]string{
				"GET /" + name + "/index":   "Index",
				"POST /" + name + "/second": "Second",
			},
		},
	}

	mapping, err := controller.GetHandlers()
	require.Nil(t, err, "err")
	assert.EqualValues(t, 2, len(mapping))

	w := httptest.NewRecorder()
	mapping["GET /"+name+"/index"](w, nil)
	mapping["POST /"+name+"/second"](w, nil)
	assert.Equal(t, []string{"index", "second"}, controller.calls)
	assert.Equal(t, name, controller.GetName())
}

func TestReflectHandlersError(t *testing.T) {
	controller := &DemoController{}
	_, err := ReflectHandlers(controller, map[string]string{"/": "Missing"})
	assert.Error(t, err)

	_, err = ReflectHandlers(controller, map[string]string{"/": "NotHandler"})
	assert.Error(t, err)

	var nilController *DemoController
	_, err = ReflectHandlers(nilController, nil)
	assert.Error(t, err)

	conf := NewConfig("")
	assert.Error(t, conf.RegController(nil))
	assert.NoError(t, conf.RegController(&DemoController{}))
	assert.Empty(t, conf.handles)
}
