package header

import (
	"encoding/binary"
	"fmt"
)

// Locate scans b backwards for a record starting with sig and returns its
// offset. The scan begins at len(b)-minTail, the smallest legal size of the
// record, and returns the match nearest the tail. Meeting boundary first
// means the scan walked past the trailer into another table and fails.
// Pass NoSignature as boundary to disable that check.
func Locate(b []byte, sig Signature, minTail int, boundary Signature) (int, error) {
	for p := len(b) - minTail; p >= 0; p-- {
		if p+4 > len(b) {
			continue
		}
		switch Signature(binary.LittleEndian.Uint32(b[p:])) {
		case sig:
			return p, nil
		case boundary:
			if boundary != NoSignature {
				return -1, fmt.Errorf("%w: %s reached at offset %d before %s", ErrRecordNotFound, boundary, p, sig)
			}
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrRecordNotFound, sig)
}
