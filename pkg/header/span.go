package header

import "fmt"

// Span is a borrowed, read-only view into a parent buffer. It never copies
// until Clone is called.
type Span struct {
	parent []byte
	off    int
	n      int
}

// NewSpan returns a span covering all of parent.
func NewSpan(parent []byte) Span {
	return Span{parent: parent, n: len(parent)}
}

// Sub returns the span [off, off+n) relative to s.
func (s Span) Sub(off, n int) (Span, error) {
	if off < 0 || n < 0 || off > s.n || n > s.n-off {
		return Span{}, fmt.Errorf("%w: span [%d, %d) outside of %d bytes", ErrInvalidHeader, off, off+n, s.n)
	}
	return Span{parent: s.parent, off: s.off + off, n: n}, nil
}

// Bytes returns the viewed bytes. The result shares storage with the parent
// and must not be written to.
func (s Span) Bytes() []byte {
	if s.n == 0 {
		return nil
	}
	end := s.off + s.n
	return s.parent[s.off:end:end]
}

// Clone returns an owned copy of the viewed bytes.
func (s Span) Clone() []byte {
	if s.n == 0 {
		return nil
	}
	out := make([]byte, s.n)
	copy(out, s.Bytes())
	return out
}

func (s Span) Len() int    { return s.n }
func (s Span) Offset() int { return s.off }
