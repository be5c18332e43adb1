package generator

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Constructor builds a backend from its configuration.
type Constructor func(cfg *Config) (Generator, error)

var (
	registryMu   sync.RWMutex
	constructors = make(map[string]Constructor)
)

// Register registers a backend constructor by name.
// Backends register themselves from an init function.
func Register(name string, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	constructors[strings.ToLower(name)] = constructor
}

// New creates a backend by name.
func New(name string, cfg *Config) (Generator, error) {
	registryMu.RLock()
	constructor, ok := constructors[strings.ToLower(name)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown engine: %s (supported: %s)", name, strings.Join(Available(), ", "))
	}
	if cfg == nil {
		cfg = &Config{}
	}
	return constructor(cfg)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
