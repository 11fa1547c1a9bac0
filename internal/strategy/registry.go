package strategy

import (
	"sort"
	"sync"

	"gridflow/pkg/errors"
	"gridflow/pkg/errors/ecode"
)

var (
	// 策略注册表，支持多策略注册
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = f
}

func Get(name string) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := registry[name]
	if !ok {
		return nil, errors.Newf(ecode.NotFoundErr, "strategy not found: %s", name)
	}
	return f, nil
}

// 已注册的策略类及其声明的属性
type Class struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Properties  []Property `json:"properties"`
}

func Classes() []Class {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Class, 0, len(registry))
	for name, f := range registry {
		s := f()
		out = append(out, Class{
			Name:        name,
			Description: s.Description(),
			Properties:  s.Properties(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
