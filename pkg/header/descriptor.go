package header

// DataDescriptor trails compressed data when FlagDataDescriptor is set. It
// carries the CRC and sizes that were unknown when the local header was
// written. The leading signature is optional on disk.
type DataDescriptor struct {
	CRC32            uint32
	CompressedSize   uint64
	UncompressedSize uint64
}

// DataDescriptorLen returns the encoded length with a leading signature.
func DataDescriptorLen(zip64 bool) int {
	if zip64 {
		return 24
	}
	return 16
}

// DecodeDataDescriptor decodes a descriptor from the start of b, with or
// without its signature. zip64 selects 8-byte sizes. It returns the number
// of bytes consumed.
func DecodeDataDescriptor(b []byte, zip64 bool) (*DataDescriptor, int, error) {
	n := DataDescriptorLen(zip64)
	buf := readBuf(b)
	if SignatureOf(b) == DataDescriptorSignature {
		if len(b) < n {
			return nil, 0, invalid(DataDescriptorSignature, "need %d bytes, have %d", n, len(b))
		}
		buf.skip(4)
	} else {
		n -= 4
		if len(b) < n {
			return nil, 0, invalid(DataDescriptorSignature, "need %d bytes, have %d", n, len(b))
		}
	}
	d := &DataDescriptor{CRC32: buf.uint32()}
	if zip64 {
		d.CompressedSize = buf.uint64()
		d.UncompressedSize = buf.uint64()
	} else {
		d.CompressedSize = uint64(buf.uint32())
		d.UncompressedSize = uint64(buf.uint32())
	}
	return d, n, nil
}

// Encode writes the descriptor with its signature.
func (d *DataDescriptor) Encode(zip64 bool) []byte {
	out := make([]byte, DataDescriptorLen(zip64))
	b := writeBuf(out)
	b.uint32(uint32(DataDescriptorSignature))
	b.uint32(d.CRC32)
	if zip64 {
		b.uint64(d.CompressedSize)
		b.uint64(d.UncompressedSize)
	} else {
		b.uint32(uint32(d.CompressedSize))
		b.uint32(uint32(d.UncompressedSize))
	}
	return out
}
