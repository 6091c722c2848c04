package serial

import (
	"errors"
	"fmt"

	"github.com/allbin/go-serial-hal/hal"
)

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")
	ErrInvalidBaudRate  = errors.New("invalid baud rate")
	ErrInvalidConfig    = errors.New("invalid serial configuration")
	ErrPortClosed       = errors.New("serial port is closed")

	// ErrUnsupportedPlatform is returned by SystemDriver where termios is not available.
	ErrUnsupportedPlatform = errors.New("serial port access not supported on this platform")

	// Registry lifecycle errors
	ErrNotConfigured     = errors.New("serial not initialized")
	ErrAlreadyConfigured = errors.New("serial already configured with different settings")
	ErrSetup             = errors.New("could not initialize port with given configuration")
	ErrDriverPanic       = errors.New("serial driver panicked while opening the port")

	// ErrWouldBlock is the transient condition returned by byte operations.
	ErrWouldBlock = hal.ErrWouldBlock
)

// SetupError is the sticky failure of a Registry's one-time initialization.
type SetupError struct {
	Path string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrSetup, e.Path, e.Err)
}

func (e *SetupError) Unwrap() []error {
	return []error{ErrSetup, e.Err}
}
