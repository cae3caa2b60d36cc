package ase

import (
	"strings"
	"unicode/utf8"
)

// Reader walks a reply buffer. Every read checks the remaining length first,
// so the cursor never moves past the end of the buffer.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps a reply buffer with the cursor at the first byte.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the cursor position.
func (r *Reader) Offset() int { return r.off }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.buf) - r.off }

// Peek returns the byte at the cursor without consuming it.
func (r *Reader) Peek() (byte, bool) {
	if r.off >= len(r.buf) {
		return 0, false
	}
	return r.buf[r.off], true
}

// Byte consumes one byte.
func (r *Reader) Byte() (byte, error) {
	b, ok := r.Peek()
	if !ok {
		return 0, fail(KindTruncatedField, "", r.off, "no byte left")
	}
	r.off++
	return b, nil
}

// Skip consumes n fixed bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 || n > r.Len() {
		return fail(KindTruncatedField, "", r.off, "fixed bytes past end")
	}
	r.off += n
	return nil
}

// Bytes consumes n raw bytes and returns them without copying.
func (r *Reader) Bytes(n int) ([]byte, error) {
	start := r.off
	if err := r.Skip(n); err != nil {
		return nil, err
	}
	return r.buf[start:r.off], nil
}

// Field reads one length-prefixed field. The length byte L counts an implicit
// terminator, so L-1 content bytes follow. On failure the cursor is left untouched.
func (r *Reader) Field() (string, error) {
	if r.off >= len(r.buf) {
		return "", fail(KindTruncatedField, "", r.off, "missing length byte")
	}
	l := int(r.buf[r.off])
	if l == 0 {
		return "", fail(KindTruncatedField, "", r.off, "zero length byte")
	}
	end := r.off + 1 + (l - 1)
	if end > len(r.buf) {
		return "", fail(KindTruncatedField, "", r.off, "declared length exceeds buffer")
	}
	content := r.buf[r.off+1 : end]
	r.off = end
	return decodeText(content), nil
}

// SkipField consumes one length-prefixed field and discards it.
func (r *Reader) SkipField() error {
	_, err := r.Field()
	return err
}

func decodeText(b []byte) string {
	s := string(b)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	return s
}
