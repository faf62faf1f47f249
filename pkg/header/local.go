package header

// LocalRecord is the header immediately preceding an entry's compressed bytes.
type LocalRecord struct {
	VersionNeeded    uint16
	Flags            Flags
	Method           Method
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32

	// Name and Extra borrow from the decoded buffer.
	Name  []byte
	Extra []byte
}

func (r *LocalRecord) FileNameLength() int { return len(r.Name) }
func (r *LocalRecord) ExtraLength() int    { return len(r.Extra) }

// Size is the encoded length including the variable sections.
func (r *LocalRecord) Size() int { return LocalHeaderLen + len(r.Name) + len(r.Extra) }

// DecodeLocal decodes a local header from the start of b. Bytes after the
// extra field are ignored.
func DecodeLocal(b []byte) (*LocalRecord, error) {
	if len(b) < LocalHeaderLen {
		return nil, invalid(LocalHeaderSignature, "need %d bytes, have %d", LocalHeaderLen, len(b))
	}
	buf := readBuf(b)
	if sig := Signature(buf.uint32()); sig != LocalHeaderSignature {
		return nil, invalid(LocalHeaderSignature, "bad signature 0x%08x", uint32(sig))
	}
	r := &LocalRecord{
		VersionNeeded:    buf.uint16(),
		Flags:            Flags(buf.uint16()),
		Method:           Method(buf.uint16()),
		ModTime:          buf.uint16(),
		ModDate:          buf.uint16(),
		CRC32:            buf.uint32(),
		CompressedSize:   buf.uint32(),
		UncompressedSize: buf.uint32(),
	}
	nameLen := int(buf.uint16())
	extraLen := int(buf.uint16())
	if len(buf) < nameLen+extraLen {
		return nil, invalid(LocalHeaderSignature, "variable sections need %d bytes, have %d", nameLen+extraLen, len(buf))
	}
	r.Name = buf.sub(nameLen)
	r.Extra = buf.sub(extraLen)
	return r, nil
}

// Encode serializes the record. Name and Extra must each fit in 16 bits.
func (r *LocalRecord) Encode() []byte {
	out := make([]byte, r.Size())
	b := writeBuf(out)
	b.uint32(uint32(LocalHeaderSignature))
	b.uint16(r.VersionNeeded)
	b.uint16(uint16(r.Flags))
	b.uint16(uint16(r.Method))
	b.uint16(r.ModTime)
	b.uint16(r.ModDate)
	b.uint32(r.CRC32)
	b.uint32(r.CompressedSize)
	b.uint32(r.UncompressedSize)
	b.uint16(uint16(len(r.Name)))
	b.uint16(uint16(len(r.Extra)))
	b.bytes(r.Name)
	b.bytes(r.Extra)
	return out
}
