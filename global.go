package serial

import (
	"errors"
	"sync"
)

var (
	std     *Registry
	stdOnce sync.Once
)

// Default returns the process-wide Registry, creating it on first use.
func Default() *Registry {
	stdOnce.Do(func() {
		std = NewRegistry()
	})
	return std
}

// ConfigureSerial configures the process-wide port.
//
// Only the first call has an effect. If the device cannot be opened the error is
// logged and the process exits: there is no port to fall back to. A later call
// with different arguments is logged and ignored.
func ConfigureSerial(path string, settings Settings) {
	reg := Default()
	err := reg.Configure(path, settings)
	if err == nil || errors.Is(err, ErrAlreadyConfigured) {
		return
	}
	reg.log().Fatal("serial port setup failed", "path", path, "err", err)
}
