package header

import "encoding/binary"

type readBuf []byte

func (b *readBuf) uint16() uint16 {
	v := binary.LittleEndian.Uint16(*b)
	*b = (*b)[2:]
	return v
}

func (b *readBuf) uint32() uint32 {
	v := binary.LittleEndian.Uint32(*b)
	*b = (*b)[4:]
	return v
}

func (b *readBuf) uint64() uint64 {
	v := binary.LittleEndian.Uint64(*b)
	*b = (*b)[8:]
	return v
}

// sub borrows the next n bytes. The capacity is capped so appending to the
// result never writes into the parent buffer. Zero-length sections are nil.
func (b *readBuf) sub(n int) []byte {
	if n == 0 {
		return nil
	}
	b2 := (*b)[:n:n]
	*b = (*b)[n:]
	return b2
}

func (b *readBuf) skip(n int) *readBuf {
	*b = (*b)[n:]
	return b
}

type writeBuf []byte

func (b *writeBuf) uint16(v uint16) {
	binary.LittleEndian.PutUint16(*b, v)
	*b = (*b)[2:]
}

func (b *writeBuf) uint32(v uint32) {
	binary.LittleEndian.PutUint32(*b, v)
	*b = (*b)[4:]
}

func (b *writeBuf) uint64(v uint64) {
	binary.LittleEndian.PutUint64(*b, v)
	*b = (*b)[8:]
}

func (b *writeBuf) bytes(p []byte) {
	n := copy(*b, p)
	*b = (*b)[n:]
}

func clamp32(v uint64) uint32 {
	if v >= Sentinel32 {
		return Sentinel32
	}
	return uint32(v)
}

func clamp16(v uint32) uint16 {
	if v >= Sentinel16 {
		return Sentinel16
	}
	return uint16(v)
}

// SignatureOf returns the signature b starts with, NoSignature when b is
// shorter than four bytes.
func SignatureOf(b []byte) Signature {
	if len(b) < 4 {
		return NoSignature
	}
	return Signature(binary.LittleEndian.Uint32(b))
}
