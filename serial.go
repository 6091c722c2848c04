package serial

import (
	"errors"
	"io"

	"github.com/allbin/go-serial-hal/hal"
)

// Serial is the byte capability handle. It holds no state of its own: every
// call resolves the Registry's halves at call time. The zero value uses the
// process-wide Registry returned by Default.
type Serial struct {
	registry *Registry
}

// Ensure Serial implements the capability interfaces at compile time
var (
	_ hal.ByteReadWriter = Serial{}
	_ io.ByteReader      = Serial{}
	_ io.ByteWriter      = Serial{}
	_ io.ReadWriter      = Serial{}
)

func (s Serial) resolve() *Registry {
	if s.registry == nil {
		return Default()
	}
	return s.registry
}

// ReadByte reads one byte. It returns ErrWouldBlock if no byte is available and
// ErrNotConfigured before the port has been configured.
func (s Serial) ReadByte() (byte, error) {
	var c byte
	err := s.resolve().WithReader(func(r Reader) error {
		var err error
		c, err = r.ReadByte()
		return err
	})
	return c, err
}

// WriteByte writes one byte. It returns ErrWouldBlock if the driver cannot
// accept it right now and ErrNotConfigured before the port has been configured.
func (s Serial) WriteByte(c byte) error {
	return s.resolve().WithWriter(func(w Writer) error {
		return w.WriteByte(c)
	})
}

// Flush asks the driver to push out buffered output. It returns ErrWouldBlock
// while output is still pending.
func (s Serial) Flush() error {
	return s.resolve().WithWriter(func(w Writer) error {
		return w.Flush()
	})
}

// Read reads the bytes available right now, up to len(p). It returns
// ErrWouldBlock only when no byte could be read.
func (s Serial) Read(p []byte) (int, error) {
	for i := range p {
		c, err := s.ReadByte()
		if err != nil {
			if i > 0 && errors.Is(err, ErrWouldBlock) {
				return i, nil
			}
			return i, err
		}
		p[i] = c
	}
	return len(p), nil
}

// Write writes p one byte at a time and stops at the first error, returning
// the number of bytes accepted.
func (s Serial) Write(p []byte) (int, error) {
	for i, c := range p {
		if err := s.WriteByte(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}
