package log

import (
	"sort"
	"sync"

	"github.com/linchenxuan/sinklog/metrics"
)

// AppenderRegistry is the table of constructed appenders the dispatcher reads
// from. *Registry is the standard implementation; tests may substitute their own.
type AppenderRegistry interface {
	// Get returns the appender registered under name.
	Get(name string) (Appender, bool)
	// AddAppenders constructs and stores one fresh instance per name.
	AddAppenders(names ...string)
	// Clear closes and removes every appender.
	Clear()
}

// Registry holds named, already constructed appender singletons.
type Registry struct {
	factory   *Factory
	appenders map[string]Appender
	lock      sync.RWMutex
}

// NewRegistry creates an empty registry building its appenders with f.
// A nil factory means DefaultFactory().
func NewRegistry(f *Factory) *Registry {
	if f == nil {
		f = DefaultFactory()
	}
	return &Registry{
		factory:   f,
		appenders: make(map[string]Appender),
	}
}

var (
	_defaultRegistry     *Registry
	_defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry, creating it on first use.
func DefaultRegistry() *Registry {
	_defaultRegistryOnce.Do(func() {
		_defaultRegistry = NewRegistry(DefaultFactory())
	})
	return _defaultRegistry
}

// Factory returns the factory the registry builds appenders with.
func (r *Registry) Factory() *Factory {
	return r.factory
}

// AddAppenders asks the factory for a new instance of every name and stores
// it, replacing any previous instance. Replaced instances are closed, so state
// such as open files is never carried over. Names without a constructor are
// ignored.
func (r *Registry) AddAppenders(names ...string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, name := range names {
		a, ok := r.factory.Create(name)
		if !ok {
			continue
		}
		if old, exists := r.appenders[name]; exists && old != a {
			_ = old.Close()
		}
		r.appenders[name] = a
	}
	r.reportSizeLocked()
}

// Set stores an already constructed appender under name, closing the one it replaces.
func (r *Registry) Set(name string, a Appender) {
	if a == nil {
		return
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	if old, exists := r.appenders[name]; exists && old != a {
		_ = old.Close()
	}
	r.appenders[name] = a
	r.reportSizeLocked()
}

// Get implements AppenderRegistry.
func (r *Registry) Get(name string) (Appender, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	a, ok := r.appenders[name]
	return a, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	names := make([]string, 0, len(r.appenders))
	for name := range r.appenders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Remove closes and drops the appenders registered under names.
func (r *Registry) Remove(names ...string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, name := range names {
		if a, ok := r.appenders[name]; ok {
			_ = a.Close()
			delete(r.appenders, name)
		}
	}
	r.reportSizeLocked()
}

// Clear implements AppenderRegistry.
func (r *Registry) Clear() {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, a := range r.appenders {
		_ = a.Close()
	}
	r.appenders = make(map[string]Appender)
	r.reportSizeLocked()
}

func (r *Registry) reportSizeLocked() {
	metrics.UpdateGaugeWithGroup(metrics.NameRegistryAppenders, metrics.GroupLog, metrics.Value(len(r.appenders)))
}
