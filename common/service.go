package common

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ServiceState 表示服务的状态
type ServiceState uint32

const (
	// NEW 新建
	NEW ServiceState = iota
	// INITED 初始化完毕
	INITED
	// RUNNING 正在运行
	RUNNING
	// TERMINATED 已经停止
	TERMINATED
	// FAILED 失败
	FAILED
)

var serviceStateStrings = map[ServiceState]string{
	NEW:        "NEW",
	INITED:     "INITED",
	RUNNING:    "RUNNING",
	TERMINATED: "TERMINATED",
	FAILED:     "FAILED",
}

func (p ServiceState) String() string {
	return serviceStateStrings[p]
}

var validStateTransfer = map[ServiceState][]ServiceState{
	NEW:        {INITED, FAILED, TERMINATED},
	INITED:     {RUNNING, FAILED, TERMINATED},
	RUNNING:    {FAILED, TERMINATED},
	TERMINATED: {},
	FAILED:     {},
}

// IsValidServiceState 检查ServiceState的状态转移是否有效
func IsValidServiceState(oldState ServiceState, newState ServiceState) bool {
	for _, targetState := range validStateTransfer[oldState] {
		if targetState == newState {
			return true
		}
	}
	return false
}

// Initable 表示需要进行初始化
type Initable interface {
	// Init 执行初始化操作,如果初始化失败,返回错误的原因
	Init() error
}

// Service 统一的服务接口
type Service interface {
	Initable
	// Name 取得服务名称
	Name() string
	// Start 启动服务
	Start() error
	// GetStartOrder 启动的次序,越小越先启动,停止的次序相反
	GetStartOrder() int
	// Stop 停止服务
	Stop() error
	// State 服务的状态
	State() ServiceState
	setState(newState ServiceState) bool
}

// BaseService 提供基本的Service接口实现
type BaseService struct {
	SName     string //服务的名称
	Order     int
	state     ServiceState
	stateLock sync.RWMutex
}

// Name 服务名称
func (p *BaseService) Name() string {
	return p.SName
}

// Init 初始化
func (p *BaseService) Init() error {
	return nil
}

// Start 启动服务
func (p *BaseService) Start() error {
	return nil
}

// GetStartOrder 启动次序
func (p *BaseService) GetStartOrder() int {
	return p.Order
}

// Stop 停止服务
func (p *BaseService) Stop() error {
	return nil
}

// State 取得服务的状态
func (p *BaseService) State() ServiceState {
	p.stateLock.RLock()
	defer p.stateLock.RUnlock()
	return p.state
}

func (p *BaseService) setState(newState ServiceState) bool {
	p.stateLock.Lock()
	defer p.stateLock.Unlock()
	if IsValidServiceState(p.state, newState) {
		p.state = newState
		return true
	}
	Warnf("invalid state transfer %s->%s,%s", p.state, newState, p.SName)
	return false
}

// ServiceName 取得服务的名称
func ServiceName(service Service) string {
	name := fmt.Sprintf("%T", service)
	if service.Name() != "" {
		name += "#" + service.Name()
	}
	return name
}

var errBadState = errors.New("bad service state")

// ServiceInit 初始化服务
func ServiceInit(service Service) error {
	if service.State() == INITED {
		return nil
	}
	if err := service.Init(); err != nil {
		service.setState(FAILED)
		return fmt.Errorf("init %s: %w", ServiceName(service), err)
	}
	if !service.setState(INITED) {
		return fmt.Errorf("init %s: %w", ServiceName(service), errBadState)
	}
	return nil
}

// ServiceStart 启动服务
func ServiceStart(service Service) error {
	if err := service.Start(); err != nil {
		service.setState(FAILED)
		return fmt.Errorf("start %s: %w", ServiceName(service), err)
	}
	if !service.setState(RUNNING) {
		return fmt.Errorf("start %s: %w", ServiceName(service), errBadState)
	}
	return nil
}

// ServiceStop 停止服务
func ServiceStop(service Service) error {
	if err := service.Stop(); err != nil {
		service.setState(FAILED)
		return fmt.Errorf("stop %s: %w", ServiceName(service), err)
	}
	service.setState(TERMINATED)
	return nil
}

// Services 一组按启动次序排列的Service
type Services struct {
	sorted []Service
}

// NewServices 构建新的Service集合
func NewServices(services ...Service) *Services {
	sorted := make([]Service, len(services))
	copy(sorted, services)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].GetStartOrder() < sorted[j].GetStartOrder()
	})
	return &Services{sorted: sorted}
}

// Init 依次初始化服务,遇到错误即返回
func (p *Services) Init() error {
	for _, service := range p.sorted {
		if err := ServiceInit(service); err != nil {
			return err
		}
	}
	return nil
}

// Start 依次启动服务,遇到错误即返回
func (p *Services) Start() error {
	for _, service := range p.sorted {
		if err := ServiceStart(service); err != nil {
			return err
		}
		Infof("%s started", ServiceName(service))
	}
	return nil
}

// Stop 按照启动的逆序停止服务,所有服务都会被停止,返回第一个错误
func (p *Services) Stop() error {
	var first error
	for i := len(p.sorted) - 1; i >= 0; i-- {
		service := p.sorted[i]
		if service.State() != RUNNING {
			continue
		}
		if err := ServiceStop(service); err != nil {
			Errorf("%v", err)
			if first == nil {
				first = err
			}
			continue
		}
		Infof("%s stopped", ServiceName(service))
	}
	return first
}
