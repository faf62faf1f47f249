package header

// DigitalSignature is the optional record following the central directory.
type DigitalSignature struct {
	Data []byte
}

func (r *DigitalSignature) Size() int { return DigitalSignatureLen + len(r.Data) }

func DecodeDigitalSignature(b []byte) (*DigitalSignature, error) {
	if len(b) < DigitalSignatureLen {
		return nil, invalid(DigitalSignatureSignature, "need %d bytes, have %d", DigitalSignatureLen, len(b))
	}
	buf := readBuf(b)
	if sig := Signature(buf.uint32()); sig != DigitalSignatureSignature {
		return nil, invalid(DigitalSignatureSignature, "bad signature 0x%08x", uint32(sig))
	}
	n := int(buf.uint16())
	if n > len(buf) {
		return nil, invalid(DigitalSignatureSignature, "data length %d exceeds %d available bytes", n, len(buf))
	}
	return &DigitalSignature{Data: buf.sub(n)}, nil
}

func (r *DigitalSignature) Encode() []byte {
	out := make([]byte, r.Size())
	b := writeBuf(out)
	b.uint32(uint32(DigitalSignatureSignature))
	b.uint16(uint16(len(r.Data)))
	b.bytes(r.Data)
	return out
}
