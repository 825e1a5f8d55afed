package strategy

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// 注册表键是固定闭集，新增变体需要在 NewRegistry 里登记构造器。
const (
	KeyMACrossover = "SimpleMovingAverageCrossover"
	KeyRSI         = "RSIStrategy"
	KeyMACD        = "MACDStrategy"
	KeyBollinger   = "BollingerBandsStrategy"
)

// ErrUnknownStrategy 表示请求的策略名不在已知集合内。
var ErrUnknownStrategy = errors.New("strategy: unknown strategy")

// Registry 按名字创建、缓存并重配置策略实例。实例在进程生命周期内复用，
// Configure 会同时更新已缓存实例。
type Registry struct {
	mu        sync.Mutex
	factories map[string]func(Params) Strategy
	instances map[string]Strategy
	params    map[string]Params
}

// NewRegistry 构造包含全部内置变体的注册表。
func NewRegistry() *Registry {
	return &Registry{
		factories: map[string]func(Params) Strategy{
			KeyMACrossover: func(p Params) Strategy { return NewMACrossover(p) },
			KeyRSI:         func(p Params) Strategy { return NewRSIThreshold(p) },
			KeyMACD:        func(p Params) Strategy { return NewMACDCrossover(p) },
			KeyBollinger:   func(p Params) Strategy { return NewBollingerTouch(p) },
		},
		instances: make(map[string]Strategy),
		params:    make(map[string]Params),
	}
}

// Create 实例化并缓存命名策略，已存参数覆盖内置默认值。
func (r *Registry) Create(name string) (Strategy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(name)
}

func (r *Registry) createLocked(name string) (Strategy, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	inst := factory(r.params[name].Clone())
	r.instances[name] = inst
	return inst, nil
}

// Get 返回缓存实例，缺席时惰性创建。
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.instances[name]; ok {
		return inst, nil
	}
	return r.createLocked(name)
}

// Configure 把 params 合并进命名策略的存储参数（同键后写胜出）；
// 已缓存的实例立即应用增量，无需重建。
func (r *Registry) Configure(name string, params Params) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	stored, ok := r.params[name]
	if !ok {
		stored = make(Params, len(params))
		r.params[name] = stored
	}
	for k, v := range params {
		stored[k] = v
	}
	if inst, ok := r.instances[name]; ok {
		inst.SetParams(params)
	}
	return nil
}

// ListAvailable 返回全部已知策略名（字典序）。
func (r *Registry) ListAvailable() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Description 是 Describe 的结果。CurrentParams 只含显式配置过的键。
type Description struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	DefaultParams Params `json:"default_params"`
	CurrentParams Params `json:"current_params"`
}

// Describe 用一次性实例给出策略信息，不触碰实例缓存。
func (r *Registry) Describe(name string) (Description, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	factory, ok := r.factories[name]
	if !ok {
		return Description{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	probe := factory(nil)
	return Description{
		Name:          probe.Name(),
		Description:   probe.Description(),
		DefaultParams: probe.DefaultParams(),
		CurrentParams: r.params[name].Clone(),
	}, nil
}
