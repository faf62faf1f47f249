package header

import "encoding/binary"

// ParseExtra splits an extra field into its (id, size, payload) sub-records.
// The size is always a 16-bit value. A repeated id keeps the last payload.
// A truncated trailing sub-record is ignored. Returns nil for an empty field.
func ParseExtra(extra []byte) map[uint16][]byte {
	var fields map[uint16][]byte
	for b := readBuf(extra); len(b) >= 4; {
		id := b.uint16()
		size := int(b.uint16())
		if len(b) < size {
			break
		}
		if fields == nil {
			fields = make(map[uint16][]byte)
		}
		fields[id] = b.sub(size)
	}
	return fields
}

// AppendExtra appends one sub-record to extra.
func AppendExtra(extra []byte, id uint16, payload []byte) []byte {
	var hdr [4]byte
	binary.LittleEndian.PutUint16(hdr[0:], id)
	binary.LittleEndian.PutUint16(hdr[2:], uint16(len(payload)))
	extra = append(extra, hdr[:]...)
	return append(extra, payload...)
}

// RemoveExtra returns a fresh extra field without sub-records carrying id.
func RemoveExtra(extra []byte, id uint16) []byte {
	var out []byte
	for b := readBuf(extra); len(b) >= 4; {
		fid := b.uint16()
		size := int(b.uint16())
		if len(b) < size {
			break
		}
		payload := b.sub(size)
		if fid != id {
			out = AppendExtra(out, fid, payload)
		}
	}
	return out
}
