package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"finch/internal/logger"
)

// ChangeListener 在配置文件热更新并通过校验后被调用。
type ChangeListener func(*Config)

// Watcher 监听配置文件的 FS 事件，重新加载失败时保留旧配置。
type Watcher struct {
	v *viper.Viper

	mu        sync.RWMutex
	current   *Config
	listeners []ChangeListener
}

// Watch 加载配置并开始监听变更。
func Watch(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	w := &Watcher{v: v, current: cfg}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := v.ReadInConfig(); err != nil {
			logger.Errorf("config reload failed (%s): %v", evt.Name, err)
			return
		}
		next, err := decode(v)
		if err != nil {
			logger.Errorf("config reload rejected (%s): %v", evt.Name, err)
			return
		}
		w.mu.Lock()
		w.current = next
		fns := make([]ChangeListener, len(w.listeners))
		copy(fns, w.listeners)
		w.mu.Unlock()
		logger.Infof("config reloaded from %s", evt.Name)
		for _, fn := range fns {
			fn(next)
		}
	})
	v.WatchConfig()
	return w, nil
}

// Current 返回最近一次通过校验的配置。
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Subscribe 注册变更回调。
func (w *Watcher) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}
