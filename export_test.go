package serial

import "sync"

// SetDefault replaces the process-wide Registry for the duration of a test.
func SetDefault(r *Registry) (restore func()) {
	prev := std
	stdOnce = sync.Once{}
	stdOnce.Do(func() { std = r })
	return func() {
		stdOnce = sync.Once{}
		std = prev
		if prev != nil {
			stdOnce.Do(func() {})
		}
	}
}
