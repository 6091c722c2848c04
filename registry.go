package serial

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Registry owns one serial port for its whole lifetime: the committed path and
// settings, and the reader and writer halves of the opened device.
//
// The device is opened at most once, by the first call to Configure. Byte
// operations borrow a half under lock for the duration of a single driver call.
//
// The zero value is usable and behaves like NewRegistry with no options.
type Registry struct {
	driver Driver
	logger *log.Logger

	once sync.Once

	// mu guards the committed configuration. Unless split locks are enabled it
	// also guards both halves, so all byte operations form one total order.
	mu       sync.Mutex
	rmu      sync.Mutex
	wmu      sync.Mutex
	readLock *sync.Mutex
	wrLock   *sync.Mutex

	path     string
	settings Settings
	setupErr error

	halves atomic.Pointer[halves]
}

type halves struct {
	reader Reader
	writer Writer
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithDriver sets the driver used to open the device. Defaults to SystemDriver.
func WithDriver(d Driver) RegistryOption {
	return func(r *Registry) {
		r.driver = d
	}
}

// WithLogger sets the logger lifecycle events are reported to.
func WithLogger(l *log.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithSplitLocks gives the reader and writer independent locks, so a read and a
// write may run at the same time. Reads still serialize with reads and writes
// with writes.
func WithSplitLocks() RegistryOption {
	return func(r *Registry) {
		r.readLock = &r.rmu
		r.wrLock = &r.wmu
	}
}

// NewRegistry returns an unconfigured Registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		driver: SystemDriver{},
		logger: log.Default().WithPrefix("serial"),
	}
	r.readLock = &r.mu
	r.wrLock = &r.mu

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Configure opens the device on the first call and stores its halves.
//
// Later calls never touch the device. They return nil if path and settings
// match the committed ones, an error wrapping ErrAlreadyConfigured if they
// differ, or the original *SetupError if the first call failed. Concurrent
// first calls block until the winner has finished.
func (r *Registry) Configure(path string, settings Settings) error {
	won := false
	r.once.Do(func() {
		won = true
		r.setup(path, settings)
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	if won || r.setupErr != nil {
		return r.setupErr
	}

	if path != r.path || settings != r.settings {
		r.log().Warn("ignoring new configuration",
			"path", path, "settings", settings,
			"committed_path", r.path, "committed_settings", r.settings)
		return fmt.Errorf("%w: committed %s (%s), requested %s (%s)",
			ErrAlreadyConfigured, r.path, r.settings, path, settings)
	}
	return nil
}

// setup runs exactly once, inside the Once gate.
func (r *Registry) setup(path string, settings Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.path = path
	r.settings = settings

	// A panicking driver must not leave the gate closed with no outcome
	defer func() {
		if p := recover(); p != nil {
			r.setupErr = &SetupError{Path: path, Err: fmt.Errorf("%w: %v", ErrDriverPanic, p)}
			r.log().Error("could not initialize serial port", "path", path, "settings", settings, "panic", p)
			panic(p)
		}
	}()

	conn, err := r.open(path, settings)
	if err != nil {
		r.setupErr = &SetupError{Path: path, Err: err}
		r.log().Error("could not initialize serial port", "path", path, "settings", settings, "err", err)
		return
	}

	reader, writer := conn.Split()
	r.halves.Store(&halves{reader: reader, writer: writer})

	r.log().Info("serial port configured", "path", path, "settings", settings)
}

func (r *Registry) open(path string, settings Settings) (Conn, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	driver := r.driver
	if driver == nil {
		driver = SystemDriver{}
	}
	conn, err := driver.Open(path, settings)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, fmt.Errorf("driver returned no connection for %s", path)
	}
	return conn, nil
}

// WithReader runs fn with exclusive access to the reader half. It returns
// ErrNotConfigured if Configure has not completed successfully.
func (r *Registry) WithReader(fn func(Reader) error) error {
	lock := r.readLock
	if lock == nil {
		lock = &r.mu
	}
	lock.Lock()
	defer lock.Unlock()

	h := r.halves.Load()
	if h == nil {
		return ErrNotConfigured
	}
	return fn(h.reader)
}

// WithWriter runs fn with exclusive access to the writer half. It returns
// ErrNotConfigured if Configure has not completed successfully.
func (r *Registry) WithWriter(fn func(Writer) error) error {
	lock := r.wrLock
	if lock == nil {
		lock = &r.mu
	}
	lock.Lock()
	defer lock.Unlock()

	h := r.halves.Load()
	if h == nil {
		return ErrNotConfigured
	}
	return fn(h.writer)
}

// Configured reports whether the device has been opened.
func (r *Registry) Configured() bool {
	return r.halves.Load() != nil
}

// Path returns the committed device path.
func (r *Registry) Path() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path, r.halves.Load() != nil
}

// Settings returns the committed settings.
func (r *Registry) Settings() (Settings, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings, r.halves.Load() != nil
}

func (r *Registry) log() *log.Logger {
	if r.logger == nil {
		return log.Default()
	}
	return r.logger
}

// Serial returns a capability handle bound to r.
func (r *Registry) Serial() Serial {
	return Serial{registry: r}
}
