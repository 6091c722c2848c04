package serial_test

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	serial "github.com/allbin/go-serial-hal"
	"github.com/allbin/go-serial-hal/serialtest"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func settings9600(t *testing.T) serial.Settings {
	t.Helper()
	s, err := serial.NewSettings(
		serial.WithBaudRate(9600),
		serial.WithCharSize(serial.CharSize8),
		serial.WithStopBits(serial.StopBits1),
		serial.WithParity(serial.ParityNone),
		serial.WithFlowControl(serial.FlowControlNone),
	)
	require.NoError(t, err)
	return s
}

func TestLoopbackScenario(t *testing.T) {
	drv := serialtest.NewLoopback()
	reg := serial.NewRegistry(serial.WithDriver(drv), serial.WithLogger(quietLogger()))

	require.NoError(t, reg.Configure("/dev/ttyFAKE0", settings9600(t)))

	port := reg.Serial()
	require.NoError(t, port.WriteByte(0x41))
	require.NoError(t, port.Flush())

	c, err := port.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(0x41), c)
	require.Equal(t, []byte{0x41}, drv.Wire())
}

func TestConcurrentConfigureOpensOnce(t *testing.T) {
	drv := serialtest.NewLoopback()
	reg := serial.NewRegistry(serial.WithDriver(drv), serial.WithLogger(quietLogger()))

	rates := []int{9600, 19200, 38400, 57600, 115200}
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := serial.NewSettings(serial.WithBaudRate(rates[i%len(rates)]))
			assert.NoError(t, err)
			<-start
			err = reg.Configure("/dev/ttyFAKE0", s)
			if err != nil {
				assert.ErrorIs(t, err, serial.ErrAlreadyConfigured)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, drv.Opens())

	// The winner's arguments are the committed ones
	path, opened := drv.OpenedWith()
	committed, ok := reg.Settings()
	require.True(t, ok)
	require.Equal(t, opened, committed)
	committedPath, ok := reg.Path()
	require.True(t, ok)
	require.Equal(t, path, committedPath)
}

func TestReconfigure(t *testing.T) {
	drv := serialtest.NewLoopback()
	reg := serial.NewRegistry(serial.WithDriver(drv), serial.WithLogger(quietLogger()))
	first := settings9600(t)

	require.NoError(t, reg.Configure("/dev/ttyFAKE0", first))

	t.Run("same arguments", func(t *testing.T) {
		require.NoError(t, reg.Configure("/dev/ttyFAKE0", first))
	})

	t.Run("different settings", func(t *testing.T) {
		err := reg.Configure("/dev/ttyFAKE0", serial.DefaultSettings())
		require.ErrorIs(t, err, serial.ErrAlreadyConfigured)
	})

	t.Run("different path", func(t *testing.T) {
		err := reg.Configure("/dev/ttyFAKE1", first)
		require.ErrorIs(t, err, serial.ErrAlreadyConfigured)
	})

	require.Equal(t, 1, drv.Opens())
	got, ok := reg.Settings()
	require.True(t, ok)
	require.Equal(t, first, got)
}

func TestSetupFailureIsSticky(t *testing.T) {
	cause := errors.New("no such device")
	drv := &serialtest.Failing{Err: cause}
	reg := serial.NewRegistry(serial.WithDriver(drv), serial.WithLogger(quietLogger()))

	err := reg.Configure("/dev/ttyFAKE0", serial.DefaultSettings())
	require.ErrorIs(t, err, serial.ErrSetup)
	require.ErrorIs(t, err, cause)

	var setupErr *serial.SetupError
	require.ErrorAs(t, err, &setupErr)
	require.Equal(t, "/dev/ttyFAKE0", setupErr.Path)

	// No retry, even with other arguments
	again := reg.Configure("/dev/ttyFAKE1", settings9600(t))
	require.ErrorIs(t, again, serial.ErrSetup)
	require.Equal(t, 1, drv.Opens())
	require.False(t, reg.Configured())

	_, err = reg.Serial().ReadByte()
	require.ErrorIs(t, err, serial.ErrNotConfigured)
}

// panicDriver blows up inside Open
type panicDriver struct{}

func (panicDriver) Open(string, serial.Settings) (serial.Conn, error) {
	panic("driver exploded")
}

func TestDriverPanicFailsSetup(t *testing.T) {
	reg := serial.NewRegistry(serial.WithDriver(panicDriver{}), serial.WithLogger(quietLogger()))

	require.PanicsWithValue(t, "driver exploded", func() {
		_ = reg.Configure("/dev/ttyFAKE0", serial.DefaultSettings())
	})

	// Same arguments must not report success for a port that never opened
	err := reg.Configure("/dev/ttyFAKE0", serial.DefaultSettings())
	require.ErrorIs(t, err, serial.ErrSetup)
	require.ErrorIs(t, err, serial.ErrDriverPanic)
	require.False(t, reg.Configured())

	_, err = reg.Serial().ReadByte()
	require.ErrorIs(t, err, serial.ErrNotConfigured)
}

func TestZeroValueRegistry(t *testing.T) {
	var reg serial.Registry
	port := reg.Serial()

	_, err := port.ReadByte()
	require.ErrorIs(t, err, serial.ErrNotConfigured)
	require.ErrorIs(t, port.WriteByte(0x41), serial.ErrNotConfigured)
	require.ErrorIs(t, port.Flush(), serial.ErrNotConfigured)

	// Falls back to the system driver and the default logger
	err = reg.Configure("/dev/ttyFAKE0", serial.DefaultSettings())
	require.ErrorIs(t, err, serial.ErrSetup)
	require.False(t, reg.Configured())
}

func TestInvalidSettingsFailSetup(t *testing.T) {
	drv := serialtest.NewLoopback()
	reg := serial.NewRegistry(serial.WithDriver(drv), serial.WithLogger(quietLogger()))

	err := reg.Configure("/dev/ttyFAKE0", serial.Settings{BaudRate: 1234, CharSize: 8, StopBits: 1})
	require.ErrorIs(t, err, serial.ErrSetup)
	require.ErrorIs(t, err, serial.ErrInvalidBaudRate)
	require.Zero(t, drv.Opens())
}

func TestNotConfigured(t *testing.T) {
	reg := serial.NewRegistry(serial.WithDriver(serialtest.NewLoopback()), serial.WithLogger(quietLogger()))
	port := reg.Serial()

	_, err := port.ReadByte()
	require.ErrorIs(t, err, serial.ErrNotConfigured)
	require.ErrorIs(t, port.WriteByte(1), serial.ErrNotConfigured)
	require.ErrorIs(t, port.Flush(), serial.ErrNotConfigured)

	require.False(t, reg.Configured())
	_, ok := reg.Path()
	require.False(t, ok)
	_, ok = reg.Settings()
	require.False(t, ok)
}

func TestReadWouldBlockOnSilentDevice(t *testing.T) {
	reg := serial.NewRegistry(serial.WithDriver(&serialtest.Silent{}), serial.WithLogger(quietLogger()))
	require.NoError(t, reg.Configure("/dev/ttyFAKE0", serial.DefaultSettings()))

	done := make(chan error, 1)
	go func() {
		_, err := reg.Serial().ReadByte()
		done <- err
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, serial.ErrWouldBlock)
	case <-time.After(time.Second):
		t.Fatal("ReadByte blocked on a device with no data")
	}
}

func TestReadsPreserveArrivalOrder(t *testing.T) {
	drv := serialtest.NewLoopback()
	reg := serial.NewRegistry(serial.WithDriver(drv), serial.WithLogger(quietLogger()))
	require.NoError(t, reg.Configure("/dev/ttyFAKE0", serial.DefaultSettings()))

	want := []byte("the quick brown fox")
	drv.Inject(want...)

	port := reg.Serial()
	got := make([]byte, 0, len(want))
	for {
		c, err := port.ReadByte()
		if errors.Is(err, serial.ErrWouldBlock) {
			break
		}
		require.NoError(t, err)
		got = append(got, c)
	}
	require.Equal(t, want, got)
}

func TestSharedLockSerializesEverything(t *testing.T) {
	drv := &serialtest.Exclusive{Driver: serialtest.NewLoopback(), Hold: 50 * time.Microsecond}
	reg := serial.NewRegistry(serial.WithDriver(drv), serial.WithLogger(quietLogger()))
	require.NoError(t, reg.Configure("/dev/ttyFAKE0", serial.DefaultSettings()))

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(2)
		go func(id byte) {
			defer wg.Done()
			port := reg.Serial()
			for i := 0; i < perWorker; i++ {
				assert.NoError(t, port.WriteByte(id))
				assert.NoError(t, port.Flush())
			}
		}(byte(w))
		go func() {
			defer wg.Done()
			port := reg.Serial()
			for i := 0; i < perWorker; i++ {
				_, err := port.ReadByte()
				if err != nil {
					assert.ErrorIs(t, err, serial.ErrWouldBlock)
				}
			}
		}()
	}
	wg.Wait()

	require.Zero(t, drv.Overlaps())
	require.Len(t, drv.Log(), workers*perWorker*3)
}

func TestWritesKeepPerGoroutineOrder(t *testing.T) {
	drv := &serialtest.Exclusive{Driver: serialtest.NewLoopback()}
	reg := serial.NewRegistry(serial.WithDriver(drv), serial.WithLogger(quietLogger()))
	require.NoError(t, reg.Configure("/dev/ttyFAKE0", serial.DefaultSettings()))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(base byte) {
			defer wg.Done()
			port := reg.Serial()
			for i := byte(0); i < 20; i++ {
				assert.NoError(t, port.WriteByte(base+i))
			}
		}(byte(w * 64))
	}
	wg.Wait()

	last := map[byte]int{}
	for _, op := range drv.Log() {
		worker := op.Byte / 64
		seq := int(op.Byte % 64)
		prev, seen := last[worker]
		if seen {
			assert.Greater(t, seq, prev, "worker %d wrote out of order", worker)
		}
		last[worker] = seq
	}
}

func TestSplitLocks(t *testing.T) {
	drv := &serialtest.Exclusive{Driver: serialtest.NewLoopback(), Hold: 50 * time.Microsecond}
	reg := serial.NewRegistry(
		serial.WithDriver(drv),
		serial.WithLogger(quietLogger()),
		serial.WithSplitLocks(),
	)
	require.NoError(t, reg.Configure("/dev/ttyFAKE0", serial.DefaultSettings()))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				assert.NoError(t, reg.Serial().WriteByte('w'))
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, _ = reg.Serial().ReadByte()
			}
		}()
	}
	wg.Wait()

	require.Zero(t, drv.SameDirectionOverlaps())
}

func TestWithReaderPropagatesDriverErrors(t *testing.T) {
	reg := serial.NewRegistry(serial.WithDriver(serialtest.NewLoopback()), serial.WithLogger(quietLogger()))
	require.NoError(t, reg.Configure("/dev/ttyFAKE0", serial.DefaultSettings()))

	boom := errors.New("boom")
	err := reg.WithReader(func(serial.Reader) error { return boom })
	require.ErrorIs(t, err, boom)
	err = reg.WithWriter(func(serial.Writer) error { return boom })
	require.ErrorIs(t, err, boom)
}
