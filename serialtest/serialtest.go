// Package serialtest provides drivers for testing code that uses a serial
// Registry without real hardware.
package serialtest

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	serial "github.com/allbin/go-serial-hal"
)

// ErrOpen is returned by Failing when no other error is set.
var ErrOpen = errors.New("serialtest: open failed")

// opener records how a driver was opened.
type opener struct {
	mu       sync.Mutex
	opens    atomic.Int32
	path     string
	settings serial.Settings
}

func (o *opener) record(path string, settings serial.Settings) {
	o.opens.Add(1)
	o.mu.Lock()
	o.path = path
	o.settings = settings
	o.mu.Unlock()
}

// Opens returns how many times Open was called.
func (o *opener) Opens() int {
	return int(o.opens.Load())
}

// OpenedWith returns the arguments of the most recent Open.
func (o *opener) OpenedWith() (string, serial.Settings) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.path, o.settings
}

// Loopback is a device whose output is wired to its input. Written bytes are
// held until Flush, after which they can be read back in order.
type Loopback struct {
	opener

	mu      sync.Mutex
	pending []byte
	rx      []byte
	wire    []byte
}

// NewLoopback returns an empty Loopback driver.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Open implements serial.Driver.
func (l *Loopback) Open(path string, settings serial.Settings) (serial.Conn, error) {
	l.record(path, settings)
	return loopbackConn{l}, nil
}

// Inject queues bytes as if they had arrived from the remote end.
func (l *Loopback) Inject(p ...byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rx = append(l.rx, p...)
}

// Wire returns every byte flushed onto the line so far.
func (l *Loopback) Wire() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]byte(nil), l.wire...)
}

type loopbackConn struct{ l *Loopback }

func (c loopbackConn) Split() (serial.Reader, serial.Writer) {
	return loopbackReader{c.l}, loopbackWriter{c.l}
}

type loopbackReader struct{ l *Loopback }

func (r loopbackReader) ReadByte() (byte, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if len(r.l.rx) == 0 {
		return 0, serial.ErrWouldBlock
	}
	c := r.l.rx[0]
	r.l.rx = r.l.rx[1:]
	return c, nil
}

type loopbackWriter struct{ l *Loopback }

func (w loopbackWriter) WriteByte(c byte) error {
	w.l.mu.Lock()
	defer w.l.mu.Unlock()
	w.l.pending = append(w.l.pending, c)
	return nil
}

func (w loopbackWriter) Flush() error {
	w.l.mu.Lock()
	defer w.l.mu.Unlock()
	w.l.wire = append(w.l.wire, w.l.pending...)
	w.l.rx = append(w.l.rx, w.l.pending...)
	w.l.pending = w.l.pending[:0]
	return nil
}

// Silent is a device that never receives data. Writes and flushes succeed.
type Silent struct {
	opener
}

// Open implements serial.Driver.
func (s *Silent) Open(path string, settings serial.Settings) (serial.Conn, error) {
	s.record(path, settings)
	return silentConn{}, nil
}

type silentConn struct{}

func (silentConn) Split() (serial.Reader, serial.Writer) { return silentConn{}, silentConn{} }
func (silentConn) ReadByte() (byte, error)                { return 0, serial.ErrWouldBlock }
func (silentConn) WriteByte(byte) error                   { return nil }
func (silentConn) Flush() error                           { return nil }

// Failing is a driver whose Open always fails with Err, or ErrOpen if Err is nil.
type Failing struct {
	opener
	Err error
}

// Open implements serial.Driver.
func (f *Failing) Open(path string, settings serial.Settings) (serial.Conn, error) {
	f.record(path, settings)
	if f.Err != nil {
		return nil, f.Err
	}
	return nil, ErrOpen
}

// Op is one operation observed by Exclusive.
type Op struct {
	Kind string // "read", "write" or "flush"
	Byte byte
}

// Exclusive wraps another driver and records overlapping operations. Each
// operation holds its slot for Hold, which widens the window in which an
// overlap would be seen.
type Exclusive struct {
	opener

	Driver serial.Driver
	Hold   time.Duration

	active  atomic.Int32
	reads   atomic.Int32
	writes  atomic.Int32
	overlap atomic.Int32
	sameDir atomic.Int32

	mu  sync.Mutex
	log []Op
}

// Open implements serial.Driver.
func (e *Exclusive) Open(path string, settings serial.Settings) (serial.Conn, error) {
	e.record(path, settings)
	conn, err := e.Driver.Open(path, settings)
	if err != nil {
		return nil, err
	}
	r, w := conn.Split()
	return exclusiveConn{e: e, r: r, w: w}, nil
}

// Overlaps returns how many operations started while another was running.
func (e *Exclusive) Overlaps() int {
	return int(e.overlap.Load())
}

// SameDirectionOverlaps counts reads that overlapped a read and writes that
// overlapped a write.
func (e *Exclusive) SameDirectionOverlaps() int {
	return int(e.sameDir.Load())
}

// Log returns completed operations in the order they ran.
func (e *Exclusive) Log() []Op {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Op(nil), e.log...)
}

func (e *Exclusive) enter(dir *atomic.Int32) {
	if e.active.Add(1) > 1 {
		e.overlap.Add(1)
	}
	if dir.Add(1) > 1 {
		e.sameDir.Add(1)
	}
	if e.Hold > 0 {
		time.Sleep(e.Hold)
	}
}

func (e *Exclusive) leave(dir *atomic.Int32, op Op) {
	e.mu.Lock()
	e.log = append(e.log, op)
	e.mu.Unlock()
	dir.Add(-1)
	e.active.Add(-1)
}

type exclusiveConn struct {
	e *Exclusive
	r serial.Reader
	w serial.Writer
}

func (c exclusiveConn) Split() (serial.Reader, serial.Writer) {
	return exclusiveReader(c), exclusiveWriter(c)
}

type exclusiveReader exclusiveConn

func (r exclusiveReader) ReadByte() (byte, error) {
	r.e.enter(&r.e.reads)
	c, err := r.r.ReadByte()
	r.e.leave(&r.e.reads, Op{Kind: "read", Byte: c})
	return c, err
}

type exclusiveWriter exclusiveConn

func (w exclusiveWriter) WriteByte(c byte) error {
	w.e.enter(&w.e.writes)
	err := w.w.WriteByte(c)
	w.e.leave(&w.e.writes, Op{Kind: "write", Byte: c})
	return err
}

func (w exclusiveWriter) Flush() error {
	w.e.enter(&w.e.writes)
	err := w.w.Flush()
	w.e.leave(&w.e.writes, Op{Kind: "flush"})
	return err
}
