// Package hal defines the byte-level serial capability that protocol code is written
// against, independent of where the bytes come from.
//
// Operations are non-blocking: when a byte cannot be moved right now they return
// ErrWouldBlock and the caller decides how to retry. The helpers in this package
// implement the common policy of polling until the operation completes or the
// context is done:
//
//	b, err := hal.ReadByte(ctx, port)
//	if errors.Is(err, context.DeadlineExceeded) {
//	    // nothing arrived in time
//	}
package hal

import (
	"context"
	"errors"
	"time"
)

// ErrWouldBlock reports that an operation could not complete immediately and
// should be retried later. It is never fatal.
var ErrWouldBlock = errors.New("operation would block")

// PollInterval is the delay between attempts made by Block and the helpers built on it.
var PollInterval = time.Millisecond

// ByteReader is the read half of the serial capability.
type ByteReader interface {
	ReadByte() (byte, error)
}

// ByteWriter is the write half of the serial capability.
type ByteWriter interface {
	WriteByte(c byte) error
	Flush() error
}

// ByteReadWriter groups both halves.
type ByteReadWriter interface {
	ByteReader
	ByteWriter
}

// Block calls op until it returns something other than ErrWouldBlock or ctx is done.
// Any other error from op is returned immediately.
func Block[T any](ctx context.Context, op func() (T, error)) (T, error) {
	var zero T
	var ticker *time.Ticker

	for {
		v, err := op()
		if !errors.Is(err, ErrWouldBlock) {
			return v, err
		}

		if ticker == nil {
			ticker = time.NewTicker(PollInterval)
			defer ticker.Stop()
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ReadByte blocks until a byte is read from r.
func ReadByte(ctx context.Context, r ByteReader) (byte, error) {
	return Block(ctx, r.ReadByte)
}

// WriteByte blocks until c is accepted by w.
func WriteByte(ctx context.Context, w ByteWriter, c byte) error {
	_, err := Block(ctx, func() (struct{}, error) {
		return struct{}{}, w.WriteByte(c)
	})
	return err
}

// Flush blocks until w reports its output flushed.
func Flush(ctx context.Context, w ByteWriter) error {
	_, err := Block(ctx, func() (struct{}, error) {
		return struct{}{}, w.Flush()
	})
	return err
}

// Write writes every byte of p in order and returns how many were accepted.
func Write(ctx context.Context, w ByteWriter, p []byte) (int, error) {
	for i, c := range p {
		if err := WriteByte(ctx, w, c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// ReadFull fills p from r, preserving arrival order.
func ReadFull(ctx context.Context, r ByteReader, p []byte) (int, error) {
	for i := range p {
		c, err := ReadByte(ctx, r)
		if err != nil {
			return i, err
		}
		p[i] = c
	}
	return len(p), nil
}

// ReadSome blocks until at least one byte is read into p, then takes the bytes
// already available without waiting further. It returns an error only when no
// byte was read.
func ReadSome(ctx context.Context, r ByteReader, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	c, err := ReadByte(ctx, r)
	if err != nil {
		return 0, err
	}
	p[0] = c

	n := 1
	for ; n < len(p); n++ {
		c, err := r.ReadByte()
		if err != nil {
			// Anything but would-block resurfaces on the next blocking read
			break
		}
		p[n] = c
	}
	return n, nil
}
