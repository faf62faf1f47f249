package header

// CentralRecord is one central directory entry. Sizes, the local header
// offset and the start disk hold their effective values: the Zip64 extra
// field has already been applied on decode.
type CentralRecord struct {
	VersionMadeBy     uint16
	VersionNeeded     uint16
	Flags             Flags
	Method            Method
	ModTime           uint16
	ModDate           uint16
	CRC32             uint32
	CompressedSize    uint64
	UncompressedSize  uint64
	DiskNumberStart   uint32
	InternalAttrs     uint16
	ExternalAttrs     uint32
	LocalHeaderOffset uint64

	Name    []byte
	Extra   []byte
	Comment []byte

	// ExtraFields maps extra field ids to their payloads, borrowed from Extra.
	ExtraFields map[uint16][]byte
}

func (r *CentralRecord) FileNameLength() int { return len(r.Name) }
func (r *CentralRecord) ExtraLength() int    { return len(r.Extra) }
func (r *CentralRecord) CommentLength() int  { return len(r.Comment) }

// Size is the encoded length including the variable sections.
func (r *CentralRecord) Size() int {
	return CentralHeaderLen + len(r.Name) + len(r.Extra) + len(r.Comment)
}

// DecodeCentral decodes one central directory header from the start of b.
// Bytes beyond the record are ignored.
func DecodeCentral(b []byte) (*CentralRecord, error) {
	if len(b) < CentralHeaderLen {
		return nil, invalid(CentralHeaderSignature, "need %d bytes, have %d", CentralHeaderLen, len(b))
	}
	buf := readBuf(b)
	if sig := Signature(buf.uint32()); sig != CentralHeaderSignature {
		return nil, invalid(CentralHeaderSignature, "bad signature 0x%08x", uint32(sig))
	}
	r := &CentralRecord{
		VersionMadeBy:    buf.uint16(),
		VersionNeeded:    buf.uint16(),
		Flags:            Flags(buf.uint16()),
		Method:           Method(buf.uint16()),
		ModTime:          buf.uint16(),
		ModDate:          buf.uint16(),
		CRC32:            buf.uint32(),
		CompressedSize:   uint64(buf.uint32()),
		UncompressedSize: uint64(buf.uint32()),
	}
	nameLen := int(buf.uint16())
	extraLen := int(buf.uint16())
	commentLen := int(buf.uint16())
	r.DiskNumberStart = uint32(buf.uint16())
	r.InternalAttrs = buf.uint16()
	r.ExternalAttrs = buf.uint32()
	r.LocalHeaderOffset = uint64(buf.uint32())

	if need := nameLen + extraLen + commentLen; len(buf) < need {
		return nil, invalid(CentralHeaderSignature, "variable sections need %d bytes, have %d", need, len(buf))
	}
	r.Name = buf.sub(nameLen)
	r.Extra = buf.sub(extraLen)
	r.Comment = buf.sub(commentLen)
	r.ExtraFields = ParseExtra(r.Extra)

	if err := r.applyZip64(); err != nil {
		return nil, err
	}
	return r, nil
}

// applyZip64 overrides sentinel fields from the Zip64 extra field. The
// payload holds only the fields that were sentineled, in a fixed order.
func (r *CentralRecord) applyZip64() error {
	payload, ok := r.ExtraFields[Zip64ExtraID]
	if !ok {
		return nil
	}
	b := readBuf(payload)
	if r.UncompressedSize == Sentinel32 {
		if len(b) < 8 {
			return invalid(CentralHeaderSignature, "zip64 extra missing uncompressed size")
		}
		r.UncompressedSize = b.uint64()
	}
	if r.CompressedSize == Sentinel32 {
		if len(b) < 8 {
			return invalid(CentralHeaderSignature, "zip64 extra missing compressed size")
		}
		r.CompressedSize = b.uint64()
	}
	if r.LocalHeaderOffset == Sentinel32 {
		if len(b) < 8 {
			return invalid(CentralHeaderSignature, "zip64 extra missing local header offset")
		}
		r.LocalHeaderOffset = b.uint64()
	}
	if r.DiskNumberStart == Sentinel16 {
		if len(b) < 4 {
			return invalid(CentralHeaderSignature, "zip64 extra missing disk number")
		}
		r.DiskNumberStart = b.uint32()
	}
	return nil
}

// NeedsZip64 reports whether any field overflows its 32 or 16 bit slot.
func (r *CentralRecord) NeedsZip64() bool {
	return r.UncompressedSize >= Sentinel32 ||
		r.CompressedSize >= Sentinel32 ||
		r.LocalHeaderOffset >= Sentinel32 ||
		r.DiskNumberStart >= Sentinel16
}

// SetZip64Extra rebuilds the Zip64 extra sub-record from the current field
// values, dropping it when nothing overflows. Extra is replaced by a fresh
// buffer. It reports whether a Zip64 sub-record is present afterwards.
func (r *CentralRecord) SetZip64Extra() bool {
	extra := RemoveExtra(r.Extra, Zip64ExtraID)
	var payload []byte
	if r.NeedsZip64() {
		p := make([]byte, 28)
		b := writeBuf(p)
		if r.UncompressedSize >= Sentinel32 {
			b.uint64(r.UncompressedSize)
		}
		if r.CompressedSize >= Sentinel32 {
			b.uint64(r.CompressedSize)
		}
		if r.LocalHeaderOffset >= Sentinel32 {
			b.uint64(r.LocalHeaderOffset)
		}
		if r.DiskNumberStart >= Sentinel16 {
			b.uint32(r.DiskNumberStart)
		}
		payload = p[:len(p)-len(b)]
		extra = AppendExtra(extra, Zip64ExtraID, payload)
	}
	if len(extra) == 0 {
		extra = nil
	}
	r.Extra = extra
	r.ExtraFields = ParseExtra(extra)
	return payload != nil
}

// Encode serializes the record. Overflowing fields are written as their
// sentinel; the caller keeps the Zip64 extra field current (SetZip64Extra).
func (r *CentralRecord) Encode() []byte {
	out := make([]byte, r.Size())
	b := writeBuf(out)
	b.uint32(uint32(CentralHeaderSignature))
	b.uint16(r.VersionMadeBy)
	b.uint16(r.VersionNeeded)
	b.uint16(uint16(r.Flags))
	b.uint16(uint16(r.Method))
	b.uint16(r.ModTime)
	b.uint16(r.ModDate)
	b.uint32(r.CRC32)
	b.uint32(clamp32(r.CompressedSize))
	b.uint32(clamp32(r.UncompressedSize))
	b.uint16(uint16(len(r.Name)))
	b.uint16(uint16(len(r.Extra)))
	b.uint16(uint16(len(r.Comment)))
	b.uint16(clamp16(r.DiskNumberStart))
	b.uint16(r.InternalAttrs)
	b.uint32(r.ExternalAttrs)
	b.uint32(clamp32(r.LocalHeaderOffset))
	b.bytes(r.Name)
	b.bytes(r.Extra)
	b.bytes(r.Comment)
	return out
}

// Local derives the matching local header. When either size overflows, both
// are written as sentinels and carried in a local Zip64 extra field.
func (r *CentralRecord) Local() *LocalRecord {
	l := &LocalRecord{
		VersionNeeded:    r.VersionNeeded,
		Flags:            r.Flags,
		Method:           r.Method,
		ModTime:          r.ModTime,
		ModDate:          r.ModDate,
		CRC32:            r.CRC32,
		CompressedSize:   uint32(r.CompressedSize),
		UncompressedSize: uint32(r.UncompressedSize),
		Name:             r.Name,
	}
	if r.UncompressedSize >= Sentinel32 || r.CompressedSize >= Sentinel32 {
		p := make([]byte, 16)
		b := writeBuf(p)
		b.uint64(r.UncompressedSize)
		b.uint64(r.CompressedSize)
		l.CompressedSize = Sentinel32
		l.UncompressedSize = Sentinel32
		l.Extra = AppendExtra(nil, Zip64ExtraID, p)
	}
	return l
}
