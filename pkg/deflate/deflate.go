// Package deflate adapts raw DEFLATE (no zlib or gzip framing) to the entry
// codec, with synchronous and streaming variants that produce identical
// bytes.
package deflate

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/valyala/bytebufferpool"
)

const (
	// DefaultLevel selects the library's default compression level.
	DefaultLevel = flate.DefaultCompression

	chunkSize = 32 << 10
)

var writerPools [flate.BestCompression - flate.HuffmanOnly + 1]sync.Pool

func getWriter(w io.Writer, level int) (*flate.Writer, error) {
	if level < flate.HuffmanOnly || level > flate.BestCompression {
		return nil, fmt.Errorf("deflate: invalid compression level %d", level)
	}
	if fw, ok := writerPools[level-flate.HuffmanOnly].Get().(*flate.Writer); ok {
		fw.Reset(w)
		return fw, nil
	}
	return flate.NewWriter(w, level)
}

func putWriter(fw *flate.Writer, level int) {
	writerPools[level-flate.HuffmanOnly].Put(fw)
}

type emitWriter struct {
	emit ChunkFunc
	n    int64
}

func (w *emitWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		w.emit(p)
		w.n += int64(len(p))
	}
	return len(p), nil
}

// DeflateStream compresses src and hands the output to emit in order.
func DeflateStream(src []byte, level int, emit ChunkFunc) (int64, error) {
	ew := &emitWriter{emit: emit}
	fw, err := getWriter(ew, level)
	if err != nil {
		return 0, err
	}
	defer putWriter(fw, level)
	if _, err := fw.Write(src); err != nil {
		return ew.n, fmt.Errorf("deflate: %w", err)
	}
	if err := fw.Close(); err != nil {
		return ew.n, fmt.Errorf("deflate: %w", err)
	}
	return ew.n, nil
}

// InflateStream decompresses src and hands the output to emit in order.
func InflateStream(src []byte, emit ChunkFunc) (int64, error) {
	fr := flate.NewReader(bytes.NewReader(src))
	defer fr.Close()
	buf := make([]byte, chunkSize)
	var n int64
	for {
		m, err := fr.Read(buf)
		if m > 0 {
			emit(buf[:m])
			n += int64(m)
		}
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("inflate: %w", err)
		}
	}
}

func collect(sizeHint int, stream func(ChunkFunc) (int64, error)) ([]byte, error) {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)
	if sizeHint > 0 && cap(bb.B) < sizeHint {
		bb.B = make([]byte, 0, sizeHint)
	}
	if _, err := stream(func(p []byte) { bb.B = append(bb.B, p...) }); err != nil {
		return nil, err
	}
	out := make([]byte, len(bb.B))
	copy(out, bb.B)
	return out, nil
}

// Deflate compresses src in one call.
func Deflate(src []byte, level int) ([]byte, error) {
	return collect(len(src)/2, func(emit ChunkFunc) (int64, error) {
		return DeflateStream(src, level, emit)
	})
}

// Inflate decompresses src in one call. sizeHint pre-sizes the output.
func Inflate(src []byte, sizeHint int) ([]byte, error) {
	return collect(sizeHint, func(emit ChunkFunc) (int64, error) {
		return InflateStream(src, emit)
	})
}

// DeflateAsync compresses src on another goroutine, streaming the output to
// onChunk. The concatenated chunks equal Deflate(src, level).
func DeflateAsync(src []byte, level int, onChunk ChunkFunc) *Task {
	return Go(func() (int64, error) { return DeflateStream(src, level, onChunk) })
}

// InflateAsync decompresses src on another goroutine, streaming the output
// to onChunk. The concatenated chunks equal Inflate(src, 0).
func InflateAsync(src []byte, onChunk ChunkFunc) *Task {
	return Go(func() (int64, error) { return InflateStream(src, onChunk) })
}
