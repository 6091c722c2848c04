//go:build linux

package serial

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Port is an opened tty device configured for raw, non-blocking byte I/O.
type Port struct {
	mu       sync.RWMutex
	fd       int
	path     string
	settings Settings
	closed   bool
}

// PortReader is the read half of a Port.
type PortReader struct {
	port *Port
	buf  [1]byte
}

// PortWriter is the write half of a Port.
type PortWriter struct {
	port *Port
	buf  [1]byte
}

// Ensure the halves implement the driver contract at compile time
var (
	_ Conn   = (*Port)(nil)
	_ Reader = (*PortReader)(nil)
	_ Writer = (*PortWriter)(nil)
)

// getBaudRate converts an integer baud rate to the unix constant
func getBaudRate(rate int) (uint32, error) {
	switch rate {
	case 50:
		return unix.B50, nil
	case 75:
		return unix.B75, nil
	case 110:
		return unix.B110, nil
	case 134:
		return unix.B134, nil
	case 150:
		return unix.B150, nil
	case 200:
		return unix.B200, nil
	case 300:
		return unix.B300, nil
	case 600:
		return unix.B600, nil
	case 1200:
		return unix.B1200, nil
	case 1800:
		return unix.B1800, nil
	case 2400:
		return unix.B2400, nil
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	case 460800:
		return unix.B460800, nil
	case 500000:
		return unix.B500000, nil
	case 576000:
		return unix.B576000, nil
	case 921600:
		return unix.B921600, nil
	case 1000000:
		return unix.B1000000, nil
	case 1152000:
		return unix.B1152000, nil
	case 1500000:
		return unix.B1500000, nil
	case 2000000:
		return unix.B2000000, nil
	case 2500000:
		return unix.B2500000, nil
	case 3000000:
		return unix.B3000000, nil
	case 3500000:
		return unix.B3500000, nil
	case 4000000:
		return unix.B4000000, nil
	default:
		return 0, ErrInvalidBaudRate
	}
}

// Open opens the device at path and applies settings.
func Open(path string, settings Settings) (*Port, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, openError(path, err)
	}

	if err := configurePort(fd, settings); err != nil {
		unix.Close(fd)
		return nil, err
	}

	return &Port{
		fd:       fd,
		path:     path,
		settings: settings,
	}, nil
}

// openError maps errno values from open(2) onto the package sentinels
func openError(path string, err error) error {
	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENXIO), errors.Is(err, unix.ENODEV):
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, path)
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	case errors.Is(err, unix.EBUSY):
		return fmt.Errorf("%w: %s", ErrDeviceInUse, path)
	default:
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
}

// configurePort puts the tty in raw mode and applies settings
func configurePort(fd int, settings Settings) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get termios: %w", err)
	}

	baudRate, err := getBaudRate(settings.BaudRate)
	if err != nil {
		return err
	}

	termios.Cflag = unix.CREAD | unix.CLOCAL | baudRate
	termios.Iflag = 0 // No input processing
	termios.Oflag = 0 // No output processing
	termios.Lflag = 0 // No line processing (raw mode)
	termios.Ispeed = baudRate
	termios.Ospeed = baudRate

	// Reads return immediately; O_NONBLOCK turns an empty queue into EAGAIN
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = 0

	switch settings.CharSize {
	case CharSize5:
		termios.Cflag |= unix.CS5
	case CharSize6:
		termios.Cflag |= unix.CS6
	case CharSize7:
		termios.Cflag |= unix.CS7
	default:
		termios.Cflag |= unix.CS8
	}

	if settings.StopBits == StopBits2 {
		termios.Cflag |= unix.CSTOPB
	}

	switch settings.Parity {
	case ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
		termios.Iflag |= unix.INPCK
	case ParityEven:
		termios.Cflag |= unix.PARENB
		termios.Iflag |= unix.INPCK
	}

	switch settings.FlowControl {
	case FlowControlSoftware:
		termios.Iflag |= unix.IXON | unix.IXOFF
		termios.Cc[unix.VSTART] = 0x11
		termios.Cc[unix.VSTOP] = 0x13
	case FlowControlHardware:
		termios.Cflag |= unix.CRTSCTS
	}

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("failed to set termios: %w", err)
	}

	return nil
}

// Path returns the device path the port was opened with
func (p *Port) Path() string {
	return p.path
}

// Settings returns the settings the port was opened with
func (p *Port) Settings() Settings {
	return p.settings
}

// Split returns the read and write halves of the port.
func (p *Port) Split() (Reader, Writer) {
	return &PortReader{port: p}, &PortWriter{port: p}
}

// Close closes the serial port
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}

	err := unix.Close(p.fd)
	p.closed = true
	return err
}

// ReadByte reads one byte, or returns ErrWouldBlock if none is queued.
func (r *PortReader) ReadByte() (byte, error) {
	r.port.mu.RLock()
	defer r.port.mu.RUnlock()

	if r.port.closed {
		return 0, ErrPortClosed
	}

	n, err := unix.Read(r.port.fd, r.buf[:])
	if err != nil {
		return 0, transferError(err)
	}
	if n == 0 {
		return 0, ErrWouldBlock
	}
	return r.buf[0], nil
}

// WriteByte queues one byte for transmission, or returns ErrWouldBlock if the
// output queue is full.
func (w *PortWriter) WriteByte(c byte) error {
	w.port.mu.RLock()
	defer w.port.mu.RUnlock()

	if w.port.closed {
		return ErrPortClosed
	}

	w.buf[0] = c
	n, err := unix.Write(w.port.fd, w.buf[:])
	if err != nil {
		return transferError(err)
	}
	if n == 0 {
		return ErrWouldBlock
	}
	return nil
}

// Flush returns ErrWouldBlock until the kernel output queue has drained.
func (w *PortWriter) Flush() error {
	w.port.mu.RLock()
	defer w.port.mu.RUnlock()

	if w.port.closed {
		return ErrPortClosed
	}

	pending, err := unix.IoctlGetInt(w.port.fd, unix.TIOCOUTQ)
	if err != nil {
		return fmt.Errorf("failed to query output queue: %w", err)
	}
	if pending > 0 {
		return ErrWouldBlock
	}
	return nil
}

func transferError(err error) error {
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
		return ErrWouldBlock
	}
	return err
}
