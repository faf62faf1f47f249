package entry

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/alec-rabold/zipkit/pkg/crc"
	"github.com/alec-rabold/zipkit/pkg/deflate"
	"github.com/alec-rabold/zipkit/pkg/header"
)

func crcOf(p []byte) uint32 { return crc.Checksum(p) }

func (o Options) level() int {
	if o.Level == 0 {
		return deflate.DefaultLevel
	}
	return o.Level
}

// decompress runs the decoded path of GetData.
func (e *Entry) decompress(password []byte) ([]byte, error) {
	var out []byte
	if hint := sizeHint(e.central.UncompressedSize); hint > 0 {
		out = make([]byte, 0, hint)
	}
	_, err := e.decompressStream(password, func(p []byte) { out = append(out, p...) })
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// GetDataAsync streams the uncompressed payload to onChunk on another
// goroutine. The concatenated chunks and the task outcome equal those of
// GetData, including checksum failures, which are reported after the last
// chunk was delivered.
func (e *Entry) GetDataAsync(password []byte, onChunk deflate.ChunkFunc) *deflate.Task {
	if e.state == Pending {
		payload := e.payload
		return deflate.Go(func() (int64, error) {
			if len(payload) > 0 {
				onChunk(payload)
			}
			return int64(len(payload)), nil
		})
	}
	return deflate.Go(func() (int64, error) { return e.decompressStream(password, onChunk) })
}

func (e *Entry) decompressStream(password []byte, emit deflate.ChunkFunc) (int64, error) {
	if e.isDir {
		return 0, nil
	}
	src := e.data.Bytes()
	if len(src) == 0 {
		return 0, nil
	}
	if e.central.Flags.Encrypted() {
		if password == nil || e.opts.Cipher == nil {
			return 0, fmt.Errorf("%w: %q", ErrIncompatiblePassword, e.name)
		}
		plain, err := e.opts.Cipher.Decrypt(src, e.central, password)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrIncompatiblePassword, e.name, err)
		}
		src = plain
	}

	sum := uint32(0)
	check := func(p []byte) {
		sum = crc.Update(sum, p)
		emit(p)
	}

	var (
		n   int64
		err error
	)
	switch e.central.Method {
	case header.Store:
		n, err = e.unstore(src, check)
	case header.Deflate:
		n, err = deflate.InflateStream(src, check)
	default:
		return 0, fmt.Errorf("%w: %q: %s", ErrUnsupportedMethod, e.name, e.central.Method)
	}
	if err != nil {
		return n, fmt.Errorf("%q: %w", e.name, err)
	}

	if e.central.Flags.DataDescriptor() {
		log.WithField("entry", e.name).Debug("verifying against central directory checksum, data descriptor flag set")
	}
	if sum != e.central.CRC32 {
		return n, fmt.Errorf("%w: %q: got 0x%08x, want 0x%08x", ErrBadChecksum, e.name, sum, e.central.CRC32)
	}
	return n, nil
}

// unstore emits a STORED payload sized to the declared uncompressed size.
func (e *Entry) unstore(src []byte, emit deflate.ChunkFunc) (int64, error) {
	if e.central.UncompressedSize != uint64(len(src)) {
		return 0, fmt.Errorf("%w: stored size %d, declared %d", ErrBadChecksum, len(src), e.central.UncompressedSize)
	}
	emit(src)
	return int64(len(src)), nil
}

// CompressedData returns the bytes written after the local header. For a
// decoded entry this is the borrowed span; a pending payload is compressed
// with the entry's method and the result cached until the next change.
func (e *Entry) CompressedData() ([]byte, error) {
	if e.state == Decoded {
		return e.data.Bytes(), nil
	}
	if e.compressed != nil {
		return e.compressed, nil
	}
	var out []byte
	switch e.central.Method {
	case header.Store:
		out = e.payload
	case header.Deflate:
		var err error
		if out, err = deflate.Deflate(e.payload, e.opts.level()); err != nil {
			return nil, fmt.Errorf("%q: %w", e.name, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q: %s", ErrUnsupportedMethod, e.name, e.central.Method)
	}
	e.compressed = out
	e.central.CompressedSize = uint64(len(out))
	log.WithFields(log.Fields{
		"entry":  e.name,
		"method": e.central.Method,
		"size":   len(e.payload),
		"csize":  len(out),
	}).Debug("compressed entry")
	return out, nil
}

// CompressedDataAsync streams CompressedData to onChunk on another
// goroutine. Once the task is done, CompressedSize reflects the streamed
// length. The entry must not be used until the task finishes.
func (e *Entry) CompressedDataAsync(onChunk deflate.ChunkFunc) *deflate.Task {
	if e.state == Decoded || e.compressed != nil || e.central.Method != header.Deflate {
		return deflate.Go(func() (int64, error) {
			out, err := e.CompressedData()
			if err != nil {
				return 0, err
			}
			if len(out) > 0 {
				onChunk(out)
			}
			return int64(len(out)), nil
		})
	}
	return deflate.Go(func() (int64, error) {
		n, err := deflate.DeflateStream(e.payload, e.opts.level(), onChunk)
		if err != nil {
			return n, fmt.Errorf("%q: %w", e.name, err)
		}
		e.central.CompressedSize = uint64(n)
		return n, nil
	})
}
