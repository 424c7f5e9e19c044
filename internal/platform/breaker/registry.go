package breaker

import "sync"

// Registry hands out one breaker per named dependency. Breakers for
// unrelated dependencies never share state.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	cfg      Config
}

func NewRegistry(cfg Config) *Registry {
	if cfg.FailureThreshold <= 0 {
		cfg = DefaultConfig()
	}
	return &Registry{
		breakers: make(map[string]*Breaker),
		cfg:      cfg,
	}
}

func (r *Registry) Get(name string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	b = New(name, r.cfg)
	r.breakers[name] = b
	return b
}
