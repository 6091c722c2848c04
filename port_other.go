//go:build !linux

package serial

// Port is unavailable on this platform.
type Port struct{}

// Open always fails with ErrUnsupportedPlatform on this platform.
func Open(path string, settings Settings) (*Port, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return nil, ErrUnsupportedPlatform
}

// Split implements Conn.
func (p *Port) Split() (Reader, Writer) {
	return nil, nil
}

// Close implements io.Closer.
func (p *Port) Close() error {
	return ErrPortClosed
}
