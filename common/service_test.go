package common

import (
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type orderService struct {
	BaseService
	trace   *[]string
	failOn  string
	stopErr error
}

func (p *orderService) Start() error {
	if p.failOn == "start" {
		return errors.New("start fail")
	}
	*p.trace = append(*p.trace, "start:"+p.SName)
	return nil
}

func (p *orderService) Stop() error {
	*p.trace = append(*p.trace, "stop:"+p.SName)
	return p.stopErr
}

func TestServices(t *testing.T) {
	var trace []string
	a := &orderService{BaseService: BaseService{SName: "a", Order: 2}, trace: &trace}
	b := &orderService{BaseService: BaseService{SName: "b", Order: 1}, trace: &trace}

	services := NewServices(a, b)
	assert.NoError(t, services.Init())
	assert.Equal(t, INITED, a.State())
	assert.NoError(t, services.Start())
	assert.Equal(t, RUNNING, b.State())
	assert.NoError(t, services.Stop())
	assert.Equal(t, TERMINATED, a.State())
	assert.Equal(t, []string{"start:b", "start:a", "stop:a", "stop:b"}, trace)
}

func TestServicesFail(t *testing.T) {
	var trace []string
	a := &orderService{BaseService: BaseService{SName: "a"}, trace: &trace, failOn: "start"}
	b := &orderService{BaseService: BaseService{SName: "b", Order: -1}, trace: &trace, stopErr: errors.New("stop fail")}

	services := NewServices(a, b)
	assert.NoError(t, services.Init())
	err := services.Start()
	assert.Error(t, err)
	assert.Equal(t, FAILED, a.State())
	assert.Error(t, services.Stop())
	assert.Equal(t, FAILED, b.State())
	assert.Equal(t, []string{"start:b", "stop:b"}, trace)
}

func TestServiceStateTransfer(t *testing.T) {
	assert.True(t, IsValidServiceState(NEW, INITED))
	assert.True(t, IsValidServiceState(RUNNING, TERMINATED))
	assert.False(t, IsValidServiceState(TERMINATED, RUNNING))
	assert.Equal(t, "RUNNING", RUNNING.String())
}

func TestShutdownHook(t *testing.T) {
	shook := NewShutdownhook()
	called := false
	shook.AddHook(func() {
		called = true
	})

	go func() {
		time.Sleep(100 * time.Millisecond)
		shook.ch <- syscall.SIGINT
	}()
	shook.WaitShutdown()
	assert.True(t, called)
}

func TestHasNil(t *testing.T) {
	var p *orderService
	var m map[string]int
	assert.True(t, HasNil(nil))
	assert.True(t, HasNil(1, p))
	assert.True(t, HasNil(m))
	assert.False(t, HasNil(1, "a", &orderService{}))
}

func TestValidateAll(t *testing.T) {
	keyLen := &StringLenValidator{Min: 1, Max: 4}
	assert.NoError(t, ValidateAll("abcd", keyLen, &NotBlankValidator{}))
	assert.Error(t, ValidateAll("abcde", keyLen))
	assert.Error(t, ValidateAll("", keyLen))
	assert.Error(t, ValidateAll("  ", keyLen, &NotBlankValidator{}))
	// length is counted in bytes
	assert.Error(t, ValidateAll("语言", keyLen))
}
