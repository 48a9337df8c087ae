// Package stream serializes access to a single shared byte stream.
//
// A Coordinator hands out each byte of the underlying reader exactly once, in
// stream order, to whichever caller holds it. Callers that need several reads
// to be contiguous (a block plus the bytes that finish its last word) do them
// inside Exclusive.
package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"syscall"
)

// maxEmptyReads bounds how many (0, nil) reads are tolerated in a row.
const maxEmptyReads = 100

// Block is one contiguous span delivered by the stream.
type Block struct {
	Data   []byte
	Offset int64 // stream offset of Data[0]
	EOF    bool  // the read came up short, the stream is exhausted
}

// ReadError is a fatal I/O failure on the shared stream.
type ReadError struct {
	Offset int64
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read stream at offset %d: %v", e.Offset, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Coordinator owns the shared stream.
type Coordinator struct {
	mu  sync.Mutex
	src *bufio.Reader
	eof bool

	consumed atomic.Int64
	total    int64
	known    bool
}

// NewCoordinator wraps src. When src is an io.Seeker the remaining length is
// measured so Progress can report a fraction; the read position is restored.
func NewCoordinator(src io.Reader, bufSize int) (*Coordinator, error) {
	if src == nil {
		return nil, errors.New("stream: nil source")
	}
	if bufSize < 16 {
		bufSize = 16
	}

	c := &Coordinator{src: bufio.NewReaderSize(src, bufSize)}

	if seeker, ok := src.(io.Seeker); ok {
		total, known, err := measureLength(seeker)
		if err != nil {
			return nil, err
		}
		c.total, c.known = total, known
	}

	return c, nil
}

// measureLength measures the bytes left between the current position and the
// end. A seeker that cannot seek (a pipe behind *os.File) reports unknown.
func measureLength(s io.Seeker) (int64, bool, error) {
	start, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, false, nil
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, false, nil
	}
	if _, err := s.Seek(start, io.SeekStart); err != nil {
		return 0, false, &ReadError{Offset: 0, Err: fmt.Errorf("restore position: %w", err)}
	}
	if end < start {
		return 0, false, nil
	}
	return end - start, true, nil
}

// ReadBlock fills buf from the stream under the lock.
func (c *Coordinator) ReadBlock(buf []byte) (Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readBlock(buf)
}

// Exclusive runs fn while holding the stream. No other caller reads until fn
// returns. The Reader must not be retained after fn returns.
func (c *Coordinator) Exclusive(fn func(r *Reader) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := &Reader{c: c}
	defer func() { r.c = nil }()
	return fn(r)
}

// Progress reports consumption without taking the lock.
func (c *Coordinator) Progress() Progress {
	return Progress{
		Consumed: c.consumed.Load(),
		Total:    c.total,
		Known:    c.known,
	}
}

// readBlock reads until buf is full or the stream ends. A short block is
// always the last one. Caller holds mu.
func (c *Coordinator) readBlock(buf []byte) (Block, error) {
	offset := c.consumed.Load()
	if c.eof {
		return Block{Data: buf[:0], Offset: offset, EOF: true}, nil
	}

	n := 0
	empty := 0
	for n < len(buf) {
		m, err := c.src.Read(buf[n:])
		n += m
		c.consumed.Add(int64(m))

		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			if errors.Is(err, io.EOF) {
				c.eof = true
				break
			}
			return Block{Data: buf[:n], Offset: offset}, &ReadError{Offset: offset + int64(n), Err: err}
		}

		if m == 0 {
			empty++
			if empty >= maxEmptyReads {
				return Block{Data: buf[:n], Offset: offset}, &ReadError{Offset: offset + int64(n), Err: io.ErrNoProgress}
			}
			continue
		}
		empty = 0
	}

	if n < len(buf) {
		c.eof = true
	}
	return Block{Data: buf[:n], Offset: offset, EOF: c.eof}, nil
}

// readByte returns the next byte or io.EOF. Caller holds mu.
func (c *Coordinator) readByte() (byte, error) {
	if c.eof {
		return 0, io.EOF
	}
	for {
		b, err := c.src.ReadByte()
		if err == nil {
			c.consumed.Add(1)
			return b, nil
		}
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		if errors.Is(err, io.EOF) {
			c.eof = true
			return 0, io.EOF
		}
		return 0, &ReadError{Offset: c.consumed.Load(), Err: err}
	}
}

// Reader is the view of the stream handed to an Exclusive callback.
type Reader struct {
	c *Coordinator
}

// ReadBlock fills buf; see Coordinator.ReadBlock.
func (r *Reader) ReadBlock(buf []byte) (Block, error) {
	if r.c == nil {
		return Block{}, errReleased
	}
	return r.c.readBlock(buf)
}

// ReadByte returns the next byte of the stream or io.EOF.
func (r *Reader) ReadByte() (byte, error) {
	if r.c == nil {
		return 0, errReleased
	}
	return r.c.readByte()
}

// Offset is the stream offset of the next byte to be read.
func (r *Reader) Offset() int64 {
	if r.c == nil {
		return 0
	}
	return r.c.consumed.Load()
}

var errReleased = errors.New("stream: reader used outside Exclusive")
