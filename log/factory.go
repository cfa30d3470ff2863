package log

import (
	"sync"
)

// CreateMethod constructs a fresh appender instance.
type CreateMethod func() Appender

// Factory maps appender names to constructors. It is pre-seeded with
// "console" and "file" and can be extended at runtime.
type Factory struct {
	methods map[string]CreateMethod
	lock    sync.RWMutex
}

// NewFactory creates a Factory holding the built-in constructors.
func NewFactory() *Factory {
	return &Factory{
		methods: builtinMethods(),
	}
}

func builtinMethods() map[string]CreateMethod {
	return map[string]CreateMethod{
		ConsoleAppenderName: func() Appender { return NewConsoleAppender() },
		FileAppenderName:    func() Appender { return NewFileAppender() },
	}
}

var (
	_defaultFactory     *Factory
	_defaultFactoryOnce sync.Once
)

// DefaultFactory returns the process-wide factory, creating it on first use.
func DefaultFactory() *Factory {
	_defaultFactoryOnce.Do(func() {
		_defaultFactory = NewFactory()
	})
	return _defaultFactory
}

// Create builds a new appender registered under name. The second result is
// false when no constructor is registered or the constructor returned nil.
func (f *Factory) Create(name string) (Appender, bool) {
	f.lock.RLock()
	m, ok := f.methods[name]
	f.lock.RUnlock()
	if !ok || m == nil {
		return nil, false
	}

	a := m()
	if a == nil {
		return nil, false
	}
	return a, true
}

// RegisterCreateMethod registers m under name. The last registration for a
// name wins.
func (f *Factory) RegisterCreateMethod(name string, m CreateMethod) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.methods[name] = m
}

// Has reports whether a constructor is registered under name.
func (f *Factory) Has(name string) bool {
	f.lock.RLock()
	defer f.lock.RUnlock()
	_, ok := f.methods[name]
	return ok
}

// Reset drops the constructor registered under name. Built-in names get their
// built-in constructor back.
func (f *Factory) Reset(name string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if m, ok := builtinMethods()[name]; ok {
		f.methods[name] = m
		return
	}
	delete(f.methods, name)
}

// Clear removes every constructor, including the built-in ones.
func (f *Factory) Clear() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.methods = make(map[string]CreateMethod)
}
