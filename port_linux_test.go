//go:build linux

package serial

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/allbin/go-serial-hal/hal"
	"github.com/charmbracelet/log"
	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

// openPair opens a pty and returns the master end and the slave's path.
func openPair(t *testing.T) (*os.File, string) {
	t.Helper()
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })
	return master, slave.Name()
}

func TestGetBaudRate(t *testing.T) {
	tests := []struct {
		input    int
		hasError bool
	}{
		{115200, false},
		{9600, false},
		{57600, false},
		{123456, true},
	}

	for _, test := range tests {
		result, err := getBaudRate(test.input)
		if test.hasError {
			if err != ErrInvalidBaudRate {
				t.Errorf("Expected ErrInvalidBaudRate for %d, got %v", test.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for baud rate %d: %v", test.input, err)
		}
		if result == 0 {
			t.Errorf("Got zero result for valid baud rate %d", test.input)
		}
	}
}

func TestBaudRateTableMatchesDriver(t *testing.T) {
	for _, rate := range baudRates {
		if _, err := getBaudRate(rate); err != nil {
			t.Errorf("Rate %d accepted by Validate but not by the driver", rate)
		}
	}
}

func TestOpenNonExistentDevice(t *testing.T) {
	_, err := Open("/dev/nonexistent", DefaultSettings())
	require.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestOpenRejectsInvalidSettings(t *testing.T) {
	_, err := Open("/dev/null", Settings{BaudRate: 1})
	require.ErrorIs(t, err, ErrInvalidBaudRate)
}

func TestPortOverPTY(t *testing.T) {
	master, path := openPair(t)

	settings, err := NewSettings(WithBaudRate(9600), WithParity(ParityEven), WithStopBits(StopBits2))
	require.NoError(t, err)
	port, err := Open(path, settings)
	require.NoError(t, err)
	t.Cleanup(func() { port.Close() })

	require.Equal(t, path, port.Path())
	require.Equal(t, settings, port.Settings())

	r, w := port.Split()

	t.Run("empty read would block", func(t *testing.T) {
		_, err := r.ReadByte()
		require.ErrorIs(t, err, ErrWouldBlock)
	})

	t.Run("write reaches master", func(t *testing.T) {
		require.NoError(t, w.WriteByte(0x41))

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, hal.Flush(ctx, w))

		buf := make([]byte, 1)
		_, err := io.ReadFull(master, buf)
		require.NoError(t, err)
		require.Equal(t, byte(0x41), buf[0])
	})

	t.Run("master bytes arrive in order", func(t *testing.T) {
		_, err := master.Write([]byte{1, 2, 3, 0x0a, 0x0d})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		got := make([]byte, 5)
		_, err = hal.ReadFull(ctx, r, got)
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3, 0x0a, 0x0d}, got)
	})

	t.Run("closed port", func(t *testing.T) {
		require.NoError(t, port.Close())
		_, err := r.ReadByte()
		require.ErrorIs(t, err, ErrPortClosed)
		require.ErrorIs(t, w.WriteByte(0), ErrPortClosed)
		require.ErrorIs(t, w.Flush(), ErrPortClosed)
		require.ErrorIs(t, port.Close(), ErrPortClosed)
	})
}

func TestRegistryWithSystemDriver(t *testing.T) {
	master, path := openPair(t)

	reg := NewRegistry(WithLogger(log.New(io.Discard)))
	require.NoError(t, reg.Configure(path, DefaultSettings()))

	handle := reg.Serial()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := hal.Write(ctx, handle, []byte("ping"))
	require.NoError(t, err)
	require.NoError(t, hal.Flush(ctx, handle))

	buf := make([]byte, 4)
	_, err = io.ReadFull(master, buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf))

	_, err = master.Write([]byte("pong"))
	require.NoError(t, err)
	_, err = hal.ReadFull(ctx, handle, buf)
	require.NoError(t, err)
	require.Equal(t, "pong", string(buf))
}

func TestRegistrySetupFailsForMissingDevice(t *testing.T) {
	reg := NewRegistry(WithLogger(log.New(io.Discard)))
	err := reg.Configure("/dev/ttyFAKE0", DefaultSettings())
	require.ErrorIs(t, err, ErrSetup)
	require.ErrorIs(t, err, ErrDeviceNotFound)
}
