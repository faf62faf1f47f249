package zipfile

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/alec-rabold/zipkit/pkg/header"
)

// readAtFunc returns n bytes starting at the absolute offset off.
type readAtFunc func(off int64, n int) ([]byte, error)

// directoryEnd is the resolved trailer: the end record plus the Zip64 end
// record when one overrides it.
type directoryEnd struct {
	end      *header.EndRecord
	zip64    *header.Zip64EndRecord
	offset   int64 // of the end record
	limit    int64 // first byte after the central directory area
	cdOffset uint64
	cdSize   uint64
	entries  uint64
}

// readDirectoryEnd finds the end record in tail, which holds the archive
// bytes starting at tailOffset, and follows the Zip64 locator when any
// field of the end record is saturated.
func readDirectoryEnd(tail []byte, tailOffset int64, readAt readAtFunc) (*directoryEnd, error) {
	p, err := header.Locate(tail, header.EndSignature, header.EndLen, header.CentralHeaderSignature)
	if err != nil {
		return nil, err
	}
	end, err := header.DecodeEnd(tail[p:])
	if err != nil {
		return nil, err
	}
	d := &directoryEnd{
		end:      end,
		offset:   tailOffset + int64(p),
		limit:    tailOffset + int64(p),
		cdOffset: uint64(end.CDOffset),
		cdSize:   uint64(end.CDSize),
		entries:  uint64(end.TotalEntries),
	}
	if !end.NeedsZip64() || d.offset < header.Zip64LocatorLen {
		return d, d.validate()
	}

	locOffset := d.offset - header.Zip64LocatorLen
	b, err := readAt(locOffset, header.Zip64LocatorLen)
	if err != nil {
		return nil, err
	}
	loc, err := header.DecodeZip64Locator(b)
	if errors.Is(err, header.ErrInvalidHeader) {
		// saturated values that are real, e.g. exactly 65535 entries
		return d, d.validate()
	}
	if err != nil {
		return nil, err
	}
	if loc.Zip64EndOffset > uint64(locOffset) || uint64(locOffset)-loc.Zip64EndOffset < header.Zip64EndLen {
		return nil, fmt.Errorf("%w: zip64 end record offset %d out of range", header.ErrInvalidHeader, loc.Zip64EndOffset)
	}
	b, err = readAt(int64(loc.Zip64EndOffset), int(uint64(locOffset)-loc.Zip64EndOffset))
	if err != nil {
		return nil, err
	}
	z, err := header.DecodeZip64End(b)
	if err != nil {
		return nil, err
	}
	log.Debugf("zip64 end record at offset %d: %d entries", loc.Zip64EndOffset, z.TotalEntries)
	d.zip64 = z
	d.limit = int64(loc.Zip64EndOffset)
	d.cdOffset, d.cdSize, d.entries = z.CDOffset, z.CDSize, z.TotalEntries
	return d, d.validate()
}

// validate makes sure the central directory lies before the trailer.
func (d *directoryEnd) validate() error {
	if d.cdOffset > uint64(d.limit) || d.cdSize > uint64(d.limit)-d.cdOffset {
		return fmt.Errorf("%w: central directory [%d, +%d) overlaps trailer at %d",
			header.ErrInvalidHeader, d.cdOffset, d.cdSize, d.limit)
	}
	return nil
}

// readDirectory decodes the central directory records in cd followed by an
// optional digital signature.
func readDirectory(cd []byte, entries uint64) ([]*header.CentralRecord, *header.DigitalSignature, error) {
	var records []*header.CentralRecord
	off := 0
	// The count of files inside a zip is truncated to fit in a uint16.
	// Gloss over this by reading headers until we encounter a bad one, and
	// then only report an error if the count modulo 65536 is incorrect.
	for header.SignatureOf(cd[off:]) == header.CentralHeaderSignature {
		r, err := header.DecodeCentral(cd[off:])
		if err != nil {
			return nil, nil, fmt.Errorf("central directory entry %d: %w", len(records), err)
		}
		records = append(records, r)
		off += r.Size()
	}
	if uint16(len(records)) != uint16(entries) {
		return nil, nil, fmt.Errorf("%w: central directory holds %d entries, end record declares %d",
			header.ErrInvalidHeader, len(records), entries)
	}
	var sig *header.DigitalSignature
	if header.SignatureOf(cd[off:]) == header.DigitalSignatureSignature {
		var err error
		if sig, err = header.DecodeDigitalSignature(cd[off:]); err != nil {
			return nil, nil, err
		}
	}
	return records, sig, nil
}
