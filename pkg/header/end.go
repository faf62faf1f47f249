package header

// EndRecord is the end of central directory record.
type EndRecord struct {
	DiskNumber    uint16
	DiskWithCD    uint16
	EntriesOnDisk uint16
	TotalEntries  uint16
	CDSize        uint32
	CDOffset      uint32
	Comment       []byte
}

func (r *EndRecord) CommentLength() int { return len(r.Comment) }
func (r *EndRecord) Size() int          { return EndLen + len(r.Comment) }

// NeedsZip64 reports whether a field holds its sentinel, meaning the real
// value lives in the Zip64 end record.
func (r *EndRecord) NeedsZip64() bool {
	return r.DiskNumber == Sentinel16 || r.DiskWithCD == Sentinel16 ||
		r.EntriesOnDisk == Sentinel16 || r.TotalEntries == Sentinel16 ||
		r.CDSize == Sentinel32 || r.CDOffset == Sentinel32
}

// DecodeEnd decodes an end record from the start of b. Bytes after the
// comment are ignored.
func DecodeEnd(b []byte) (*EndRecord, error) {
	if len(b) < EndLen {
		return nil, invalid(EndSignature, "need %d bytes, have %d", EndLen, len(b))
	}
	buf := readBuf(b)
	if sig := Signature(buf.uint32()); sig != EndSignature {
		return nil, invalid(EndSignature, "bad signature 0x%08x", uint32(sig))
	}
	r := &EndRecord{
		DiskNumber:    buf.uint16(),
		DiskWithCD:    buf.uint16(),
		EntriesOnDisk: buf.uint16(),
		TotalEntries:  buf.uint16(),
		CDSize:        buf.uint32(),
		CDOffset:      buf.uint32(),
	}
	l := int(buf.uint16())
	if l > len(buf) {
		return nil, invalid(EndSignature, "comment length %d exceeds %d available bytes", l, len(buf))
	}
	r.Comment = buf.sub(l)
	return r, nil
}

// Encode serializes the record. The comment must fit in 16 bits.
func (r *EndRecord) Encode() []byte {
	out := make([]byte, r.Size())
	b := writeBuf(out)
	b.uint32(uint32(EndSignature))
	b.uint16(r.DiskNumber)
	b.uint16(r.DiskWithCD)
	b.uint16(r.EntriesOnDisk)
	b.uint16(r.TotalEntries)
	b.uint32(r.CDSize)
	b.uint32(r.CDOffset)
	b.uint16(uint16(len(r.Comment)))
	b.bytes(r.Comment)
	return out
}
