package serial

// Driver opens a device with the given settings.
type Driver interface {
	Open(path string, settings Settings) (Conn, error)
}

// Conn is an opened device that can be split into independent halves.
type Conn interface {
	Split() (Reader, Writer)
}

// Reader owns the read direction of an opened device. Implementations need not be
// safe for concurrent use; the Registry serializes access.
type Reader interface {
	ReadByte() (byte, error)
}

// Writer owns the write direction of an opened device. Implementations need not be
// safe for concurrent use; the Registry serializes access.
type Writer interface {
	WriteByte(c byte) error
	Flush() error
}

// SystemDriver opens real tty devices.
type SystemDriver struct{}

// Open implements Driver.
func (SystemDriver) Open(path string, settings Settings) (Conn, error) {
	p, err := Open(path, settings)
	if err != nil {
		return nil, err
	}
	return p, nil
}
