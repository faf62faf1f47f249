package header

// Zip64Locator points at the Zip64 end record. It sits immediately before
// the end record.
type Zip64Locator struct {
	DiskWithZip64End uint32
	Zip64EndOffset   uint64
	TotalDisks       uint32
}

// DecodeZip64Locator decodes a locator from the start of b.
func DecodeZip64Locator(b []byte) (*Zip64Locator, error) {
	if len(b) < Zip64LocatorLen {
		return nil, invalid(Zip64LocatorSignature, "need %d bytes, have %d", Zip64LocatorLen, len(b))
	}
	buf := readBuf(b)
	if sig := Signature(buf.uint32()); sig != Zip64LocatorSignature {
		return nil, invalid(Zip64LocatorSignature, "bad signature 0x%08x", uint32(sig))
	}
	return &Zip64Locator{
		DiskWithZip64End: buf.uint32(),
		Zip64EndOffset:   buf.uint64(),
		TotalDisks:       buf.uint32(),
	}, nil
}

func (r *Zip64Locator) Encode() []byte {
	out := make([]byte, Zip64LocatorLen)
	b := writeBuf(out)
	b.uint32(uint32(Zip64LocatorSignature))
	b.uint32(r.DiskWithZip64End)
	b.uint64(r.Zip64EndOffset)
	b.uint32(r.TotalDisks)
	return out
}

// Zip64EndRecord is the 64-bit counterpart of EndRecord.
type Zip64EndRecord struct {
	VersionMadeBy uint16
	VersionNeeded uint16
	DiskNumber    uint32
	DiskWithCD    uint32
	EntriesOnDisk uint64
	TotalEntries  uint64
	CDSize        uint64
	CDOffset      uint64
	// Extensible is the trailing extensible data sector.
	Extensible []byte
}

// Size is the full encoded length, including the 12 leading bytes the
// record's own size field does not count.
func (r *Zip64EndRecord) Size() int { return Zip64EndLen + len(r.Extensible) }

// DecodeZip64End decodes a Zip64 end record from the start of b, trimming
// it to the length declared by its size field.
func DecodeZip64End(b []byte) (*Zip64EndRecord, error) {
	if len(b) < Zip64EndLen {
		return nil, invalid(Zip64EndSignature, "need %d bytes, have %d", Zip64EndLen, len(b))
	}
	buf := readBuf(b)
	if sig := Signature(buf.uint32()); sig != Zip64EndSignature {
		return nil, invalid(Zip64EndSignature, "bad signature 0x%08x", uint32(sig))
	}
	size := buf.uint64()
	if size < Zip64EndLen-zip64EndLead || size > uint64(len(b)-zip64EndLead) {
		return nil, invalid(Zip64EndSignature, "record size %d out of range", size)
	}
	r := &Zip64EndRecord{
		VersionMadeBy: buf.uint16(),
		VersionNeeded: buf.uint16(),
		DiskNumber:    buf.uint32(),
		DiskWithCD:    buf.uint32(),
		EntriesOnDisk: buf.uint64(),
		TotalEntries:  buf.uint64(),
		CDSize:        buf.uint64(),
		CDOffset:      buf.uint64(),
	}
	r.Extensible = buf.sub(int(size) + zip64EndLead - Zip64EndLen)
	return r, nil
}

func (r *Zip64EndRecord) Encode() []byte {
	out := make([]byte, r.Size())
	b := writeBuf(out)
	b.uint32(uint32(Zip64EndSignature))
	b.uint64(uint64(r.Size() - zip64EndLead))
	b.uint16(r.VersionMadeBy)
	b.uint16(r.VersionNeeded)
	b.uint32(r.DiskNumber)
	b.uint32(r.DiskWithCD)
	b.uint64(r.EntriesOnDisk)
	b.uint64(r.TotalEntries)
	b.uint64(r.CDSize)
	b.uint64(r.CDOffset)
	b.bytes(r.Extensible)
	return out
}
