package history

import (
	"fmt"
	"sync"
)

// Config selects and locates a history store. An empty Store disables
// history.
type Config struct {
	Store string `json:"store,omitempty" env:"STORE"`
	Path  string `json:"path,omitempty" env:"PATH"`
}

// DefaultConfig returns the default history configuration (disabled).
func DefaultConfig() Config {
	return Config{}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Store != "" {
		c.Store = source.Store
	}
	if source.Path != "" {
		c.Path = source.Path
	}
}

// Opener builds a Store from configuration.
type Opener func(cfg Config) (Store, error)

var (
	openers = map[string]Opener{
		"memory": func(Config) (Store, error) { return NewMemoryStore(), nil },
		"bolt": func(cfg Config) (Store, error) {
			s, err := OpenBolt(cfg.Path)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		"sqlite": func(cfg Config) (Store, error) {
			s, err := OpenSQLite(cfg.Path)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	}
	mutex sync.RWMutex
)

// Register adds or replaces a named store opener.
func Register(name string, opener Opener) {
	mutex.Lock()
	defer mutex.Unlock()
	openers[name] = opener
}

// Open resolves cfg.Store through the registry. It returns a nil Store when
// history is disabled.
func Open(cfg Config) (Store, error) {
	if cfg.Store == "" {
		return nil, nil
	}

	mutex.RLock()
	opener, exists := openers[cfg.Store]
	mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, cfg.Store)
	}
	return opener(cfg)
}
