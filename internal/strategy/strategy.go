package strategy

import (
	"strconv"
	"sync"

	"finch/internal/series"
)

// Action 是信号方向。
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Signal 是一次策略评估的建议结果，每次评估新建，核心不保存。
type Signal struct {
	Action    Action  `json:"action"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
	Reason    string  `json:"reason"`
}

// Params 是策略参数表。变体忽略不认识的键（向前兼容），数值键接受
// int/float/字符串形式。
type Params map[string]any

// Clone 返回浅拷贝；nil 返回空表。
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Float 按宽松规则取浮点参数。
func (p Params) Float(key string) (float64, bool) {
	return asFloat(p[key])
}

// Int 按宽松规则取整型参数。
func (p Params) Int(key string) (int, bool) {
	v, ok := asFloat(p[key])
	if !ok {
		return 0, false
	}
	return int(v), true
}

func asFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Strategy 是对快照求值的无状态规则；参数之外不携带跨调用状态。
// 快照行数不足或缺少所需指标列时返回 nil（软失败），绝不报错。
type Strategy interface {
	Execute(snap series.Snapshot) *Signal
	Name() string
	Description() string
	DefaultParams() Params
	SetParams(params Params)
	Params() Params
}

// paramStore 给各变体提供带锁的参数存取。Execute 读参数、Configure 写
// 参数可能来自不同调用路径。
type paramStore struct {
	mu     sync.RWMutex
	params Params
}

func newParamStore(params, defaults Params) paramStore {
	merged := defaults.Clone()
	for k, v := range params {
		merged[k] = v
	}
	return paramStore{params: merged}
}

// SetParams 合并传入键值，后写覆盖先写。
func (s *paramStore) SetParams(params Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.params == nil {
		s.params = make(Params, len(params))
	}
	for k, v := range params {
		s.params[k] = v
	}
}

// Params 返回当前参数的拷贝。
func (s *paramStore) Params() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params.Clone()
}
