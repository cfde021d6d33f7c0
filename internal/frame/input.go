package frame

// input.go wraps raw CSV input before it reaches encoding/csv:
//
//   - the UTF-8 byte order mark written by Excel is dropped
//   - invalid UTF-8 bytes are replaced with '?' so headers and cells stay printable
//   - an optional byte limit rejects oversized input with ErrInputTooLarge
//
// All three work on the stream, so memory stays O(buffer size).

import (
	"bufio"
	"errors"
	"io"
	"unicode/utf8"
)

// ErrInputTooLarge is returned when input exceeds the configured byte limit.
var ErrInputTooLarge = errors.New("input exceeds size limit")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM returns a reader positioned after a leading UTF-8 BOM, if any.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil &&
		head[0] == utf8BOM[0] && head[1] == utf8BOM[1] && head[2] == utf8BOM[2] {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// utf8Sanitizer replaces invalid UTF-8 bytes with '?' on the fly.
// A multi-byte rune split across two reads is carried over in pending.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	atEOF := errors.Is(err, io.EOF)
	write := 0
	for read := 0; read < n; {
		if p[read] < utf8.RuneSelf {
			p[write] = p[read]
			write++
			read++
			continue
		}
		if !atEOF && !utf8.FullRune(p[read:n]) {
			s.pending = append(s.pending, p[read:n]...)
			break
		}
		r, size := utf8.DecodeRune(p[read:n])
		if r == utf8.RuneError && size == 1 {
			p[write] = '?'
			write++
			read++
			continue
		}
		copy(p[write:], p[read:read+size])
		write += size
		read += size
	}

	// Never report (0, nil) while bytes are still pending.
	if write == 0 && err == nil && len(s.pending) > 0 {
		return s.Read(p)
	}
	return write, err
}

// limitedReader fails with ErrInputTooLarge once more than max bytes were read.
type limitedReader struct {
	r    io.Reader
	left int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.left < 0 {
		return 0, ErrInputTooLarge
	}
	if int64(len(p)) > l.left+1 {
		p = p[:l.left+1]
	}
	n, err := l.r.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return n, ErrInputTooLarge
	}
	return n, err
}

// wrapInput applies BOM skipping, sanitizing and the optional size limit.
// maxBytes <= 0 disables the limit.
func wrapInput(r io.Reader, maxBytes int64) io.Reader {
	if maxBytes > 0 {
		r = &limitedReader{r: r, left: maxBytes}
	}
	return newUTF8Sanitizer(skipBOM(r))
}
