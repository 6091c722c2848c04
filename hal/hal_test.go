package hal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fifo becomes readable after a number of would-block attempts.
type fifo struct {
	data    []byte
	stalls  int
	out     []byte
	flushes int
}

func (f *fifo) ReadByte() (byte, error) {
	if f.stalls > 0 {
		f.stalls--
		return 0, ErrWouldBlock
	}
	if len(f.data) == 0 {
		return 0, ErrWouldBlock
	}
	c := f.data[0]
	f.data = f.data[1:]
	return c, nil
}

func (f *fifo) WriteByte(c byte) error {
	if f.stalls > 0 {
		f.stalls--
		return ErrWouldBlock
	}
	f.out = append(f.out, c)
	return nil
}

func (f *fifo) Flush() error {
	f.flushes++
	if f.flushes < 3 {
		return ErrWouldBlock
	}
	return nil
}

func TestBlockRetriesWouldBlock(t *testing.T) {
	f := &fifo{data: []byte("x"), stalls: 5}

	c, err := ReadByte(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, byte('x'), c)
	require.Zero(t, f.stalls)
}

func TestBlockStopsOnContext(t *testing.T) {
	f := &fifo{}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := ReadByte(ctx, f)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBlockReturnsOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := Block(context.Background(), func() (int, error) {
		calls++
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}

func TestWriteAndFlush(t *testing.T) {
	f := &fifo{stalls: 2}
	ctx := context.Background()

	n, err := Write(ctx, f, []byte("abc"))
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte("abc"), f.out)

	require.NoError(t, Flush(ctx, f))
	require.Equal(t, 3, f.flushes)
}

func TestReadFullPartial(t *testing.T) {
	f := &fifo{data: []byte("ab")}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	buf := make([]byte, 4)
	n, err := ReadFull(ctx, f, buf)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 2, n)
	require.Equal(t, []byte("ab"), buf[:n])
}

func TestReadSomeTakesAvailable(t *testing.T) {
	f := &fifo{data: []byte("abc"), stalls: 2}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	buf := make([]byte, 8)
	n, err := ReadSome(ctx, f, buf)
	require.NoError(t, err)
	require.Equal(t, "abc", string(buf[:n]))

	n, err = ReadSome(ctx, f, buf[:0])
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestReadSomeBoundedByBuffer(t *testing.T) {
	f := &fifo{data: []byte("abcdef")}

	buf := make([]byte, 4)
	n, err := ReadSome(context.Background(), f, buf)
	require.NoError(t, err)
	require.Equal(t, "abcd", string(buf[:n]))
	require.Equal(t, []byte("ef"), f.data)
}

func TestReadSomeNothingArrives(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	n, err := ReadSome(ctx, &fifo{}, make([]byte, 4))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Zero(t, n)
}
