package zipfile

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/valyala/bytebufferpool"

	"github.com/alec-rabold/zipkit/pkg/header"
)

func clamp32(v uint64) uint32 {
	return uint32(min(v, header.Sentinel32))
}

func clamp16(v int) uint16 {
	return uint16(min(v, header.Sentinel16))
}

// Encode serializes the archive: every entry's local header, data and
// optional data descriptor, then the central directory, the digital
// signature if any, and the trailer. A Zip64 end record and locator are
// written when counts, sizes or offsets overflow the classic trailer.
func (a *Archive) Encode() ([]byte, error) {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	for _, e := range a.entries {
		data, err := e.CompressedData()
		if err != nil {
			log.Errorf("error compressing entry (name: %s), err: %v", e.Name(), err)
			return nil, err
		}
		e.SetLocalHeaderOffset(uint64(bb.Len()))
		bb.Write(e.PackLocal())
		bb.Write(data)
		if dd := e.DataDescriptor(); dd != nil {
			zip64 := e.CompressedSize() >= header.Sentinel32 || e.Size() >= header.Sentinel32
			bb.Write(dd.Encode(zip64))
		}
	}

	cdOffset := uint64(bb.Len())
	for _, e := range a.entries {
		bb.Write(e.PackHeader())
	}
	if a.signature != nil {
		bb.Write(a.signature.Encode())
	}
	cdSize := uint64(bb.Len()) - cdOffset

	count := len(a.entries)
	if count >= header.Sentinel16 || cdSize >= header.Sentinel32 || cdOffset >= header.Sentinel32 {
		zip64Offset := uint64(bb.Len())
		end64 := &header.Zip64EndRecord{
			VersionMadeBy: header.VersionMadeBy(a.opts.Host),
			VersionNeeded: header.VersionZip64,
			EntriesOnDisk: uint64(count),
			TotalEntries:  uint64(count),
			CDSize:        cdSize,
			CDOffset:      cdOffset,
		}
		bb.Write(end64.Encode())
		loc := &header.Zip64Locator{Zip64EndOffset: zip64Offset, TotalDisks: 1}
		bb.Write(loc.Encode())
	}

	end := &header.EndRecord{
		EntriesOnDisk: clamp16(count),
		TotalEntries:  clamp16(count),
		CDSize:        clamp32(cdSize),
		CDOffset:      clamp32(cdOffset),
		Comment:       a.comment,
	}
	bb.Write(end.Encode())

	out := make([]byte, bb.Len())
	copy(out, bb.B)
	return out, nil
}

// WriteFile encodes the archive to path.
func (a *Archive) WriteFile(path string) error {
	b, err := a.Encode()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		log.Errorf("error writing archive (name: %s), err: %v", path, err)
		return err
	}
	return nil
}
