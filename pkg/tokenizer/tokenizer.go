// Package tokenizer turns blocks of the shared stream into whitespace
// delimited words and folds them into a per-worker Result.
package tokenizer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"unicode"
	"unicode/utf8"

	"github.com/dtnitsch/text-analyzer/pkg/analytics"
	"github.com/dtnitsch/text-analyzer/pkg/stream"
)

// Word is a complete token and the stream offset of its first byte.
type Word struct {
	Text   string
	Offset int64
}

// Worker pulls blocks from a shared Coordinator and keeps the words of the
// most recent block queued until they are consumed.
type Worker struct {
	id        int
	coord     *stream.Coordinator
	blockSize int
	logger    *slog.Logger

	buf     []byte
	pending []Word
	head    int

	exhausted bool
	bytesRead int64
	malformed int
}

// New creates a worker reading blockSize bytes at a time from c.
func New(id int, c *stream.Coordinator, blockSize int, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Worker{
		id:        id,
		coord:     c,
		blockSize: blockSize,
		logger:    logger,
		buf:       make([]byte, blockSize),
	}
}

// Run folds every word this worker obtains into a fresh Result.
func (w *Worker) Run(ctx context.Context) (analytics.Result, error) {
	result := analytics.NewResult()
	w.logger.Debug("Worker started", "worker_id", w.id, "block_size", w.blockSize)

	for {
		word, ok, err := w.NextWord(ctx)
		if err != nil {
			return analytics.Result{}, err
		}
		if !ok {
			break
		}
		result.AddWord(word.Text, word.Offset)
	}

	result.MalformedWords = w.malformed
	result.BytesRead = w.bytesRead
	w.logger.Debug("Worker finished", "worker_id", w.id, "words", result.TotalWords, "bytes", w.bytesRead)
	return result, nil
}

// NextWord returns the next complete word. ok is false once the local queue
// is empty and the stream has nothing more to give.
func (w *Worker) NextWord(ctx context.Context) (Word, bool, error) {
	for w.head >= len(w.pending) {
		if w.exhausted {
			return Word{}, false, nil
		}
		if err := ctx.Err(); err != nil {
			return Word{}, false, err
		}
		if err := w.fill(); err != nil {
			return Word{}, false, err
		}
	}

	word := w.pending[w.head]
	w.pending[w.head] = Word{}
	w.head++
	return word, true, nil
}

// fill reads one block and, when the block stops inside a word, the bytes
// that complete it. Both happen inside one Exclusive call so no other worker
// can read between them.
func (w *Worker) fill() error {
	w.pending = w.pending[:0]
	w.head = 0

	return w.coord.Exclusive(func(r *stream.Reader) error {
		block, err := r.ReadBlock(w.buf[:w.blockSize])
		if err != nil {
			return err
		}

		data := block.Data
		if !block.EOF && !endsOnSpace(data) {
			if data, err = extend(r, data); err != nil {
				return err
			}
		}
		// keep any capacity grown by the extension for the next block
		if cap(data) > cap(w.buf) {
			w.buf = data[:cap(data)]
		}

		if len(data) == 0 {
			w.exhausted = true
			return nil
		}
		w.bytesRead += int64(len(data))
		w.split(data, block.Offset)
		return nil
	})
}

// extend appends single bytes until data ends on a whitespace rune or the
// stream ends. A multi-byte character cut by the block boundary is completed
// along the way.
func extend(r *stream.Reader, data []byte) ([]byte, error) {
	for {
		b, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return data, nil
		}
		if err != nil {
			return data, err
		}
		data = append(data, b)
		if endsOnSpace(data) {
			return data, nil
		}
	}
}

// endsOnSpace reports whether data ends with a complete whitespace rune.
func endsOnSpace(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	r, size := utf8.DecodeLastRune(data)
	if r == utf8.RuneError && size <= 1 {
		return false
	}
	return unicode.IsSpace(r)
}

// split queues the words of data, which starts at stream offset base. Every
// candidate is final: data either ends on whitespace or at end of stream.
func (w *Worker) split(data []byte, base int64) {
	start := -1
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r != utf8.RuneError && unicode.IsSpace(r) {
			if start >= 0 {
				w.enqueue(data[start:i], base+int64(start))
				start = -1
			}
		} else if start < 0 {
			start = i
		}
		i += size
	}
	if start >= 0 {
		w.enqueue(data[start:], base+int64(start))
	}
}

func (w *Worker) enqueue(token []byte, offset int64) {
	if !utf8.Valid(token) {
		w.malformed++
		w.logger.Warn("Dropping malformed token", "worker_id", w.id, "offset", offset, "bytes", len(token))
		return
	}
	w.pending = append(w.pending, Word{Text: string(token), Offset: offset})
}
