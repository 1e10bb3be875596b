package mdstream

import (
	"sync"

	"github.com/riverfjs/mdstream/internal/types"
)

type Config = types.Config

var (
	defaultConfig     *Config
	defaultConfigOnce sync.Once
)

// DefaultConfig returns the default configuration (singleton). Options copy
// it before changing anything.
func DefaultConfig() *Config {
	defaultConfigOnce.Do(func() {
		defaultConfig = types.DefaultConfig()
	})
	return defaultConfig
}
