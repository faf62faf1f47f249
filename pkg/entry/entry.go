// Package entry pairs a central directory record with its local header and
// compressed bytes, and serves the entry's payload on demand.
//
// An Entry is not safe for concurrent use. Reads of unmodified entries only
// touch the borrowed archive bytes, so distinct entries of one archive may be
// read from different goroutines.
package entry

import (
	"fmt"
	"io/fs"
	"math"
	"strings"
	"time"

	"github.com/alec-rabold/zipkit/pkg/header"
)

// Entry is one archived file or directory.
type Entry struct {
	central *header.CentralRecord
	local   *header.LocalRecord
	data    header.Span

	// payload is the uncompressed data supplied by SetData.
	payload    []byte
	compressed []byte
	state      State

	name  string
	isDir bool
	opts  Options
}

// Decode builds an entry from a central record and a buffer starting at the
// entry's local header. The compressed span borrows from local.
func Decode(cen *header.CentralRecord, local []byte, opts Options) (*Entry, error) {
	loc, err := header.DecodeLocal(local)
	if err != nil {
		return nil, err
	}
	start := loc.Size()
	if cen.CompressedSize > uint64(len(local)-start) {
		return nil, fmt.Errorf("%w: %q: compressed size %d exceeds %d available bytes",
			header.ErrInvalidHeader, cen.Name, cen.CompressedSize, len(local)-start)
	}
	data, err := header.NewSpan(local).Sub(start, int(cen.CompressedSize))
	if err != nil {
		return nil, err
	}
	return &Entry{
		central: cen,
		local:   loc,
		data:    data,
		state:   Decoded,
		name:    decodeText(cen.Name, cen.Flags.UTF8()),
		isDir:   isDirName(cen.Name),
		opts:    opts,
	}, nil
}

// New synthesizes an empty entry. A trailing '/' makes it a directory.
func New(name string, attr Attr, opts Options) (*Entry, error) {
	if len(name) > header.MaxVariableLen {
		return nil, fmt.Errorf("%w: name is %d bytes", ErrNameTooLong, len(name))
	}
	if attr == nil {
		attr = Default{}
	}
	cen := &header.CentralRecord{
		VersionMadeBy: header.VersionMadeBy(opts.Host),
		VersionNeeded: header.VersionNeeded(header.Store, false),
		Flags:         header.FlagUTF8,
		Method:        header.Store,
		Name:          []byte(name),
	}
	e := &Entry{
		central: cen,
		state:   Decoded,
		name:    name,
		isDir:   isDirName(cen.Name),
		opts:    opts,
	}
	attr.apply(cen, e.isDir, opts.now())
	return e, nil
}

// Name is the decoded entry name.
func (e *Entry) Name() string { return e.name }

// RawName is the name as stored in the central directory.
func (e *Entry) RawName() []byte { return e.central.Name }

// BaseName is the last path element of the name.
func (e *Entry) BaseName() string {
	n := strings.TrimRight(strings.ReplaceAll(e.name, "\\", "/"), "/")
	return n[strings.LastIndex(n, "/")+1:]
}

// SetName renames the entry. The name is stored as UTF-8.
func (e *Entry) SetName(name string) error {
	if len(name) > header.MaxVariableLen {
		return fmt.Errorf("%w: name is %d bytes", ErrNameTooLong, len(name))
	}
	e.central.Name = []byte(name)
	e.central.Flags = e.central.Flags.With(header.FlagUTF8, true)
	e.name = name
	e.isDir = isDirName(e.central.Name)
	return nil
}

func (e *Entry) IsDirectory() bool { return e.isDir }
func (e *Entry) State() State      { return e.state }

// Changed reports whether a payload was supplied with SetData.
func (e *Entry) Changed() bool { return e.state == Pending }

func (e *Entry) Comment() string {
	return decodeText(e.central.Comment, e.central.Flags.UTF8())
}

func (e *Entry) SetComment(comment string) error {
	if len(comment) > header.MaxVariableLen {
		return fmt.Errorf("%w: comment is %d bytes", ErrNameTooLong, len(comment))
	}
	e.central.Comment = []byte(comment)
	return nil
}

// Extra is the raw central directory extra field.
func (e *Entry) Extra() []byte { return e.central.Extra }

// SetExtra replaces the extra field and re-parses its sub-records.
func (e *Entry) SetExtra(extra []byte) error {
	if len(extra) > header.MaxVariableLen {
		return fmt.Errorf("%w: extra field is %d bytes", ErrNameTooLong, len(extra))
	}
	e.central.Extra = append([]byte(nil), extra...)
	e.central.ExtraFields = header.ParseExtra(e.central.Extra)
	return nil
}

func (e *Entry) Method() header.Method { return e.central.Method }

// SetMethod selects how a pending payload is compressed. Directories and
// empty payloads stay STORED.
func (e *Entry) SetMethod(m header.Method) error {
	if !m.Supported() {
		return fmt.Errorf("%w: %s", ErrUnsupportedMethod, m)
	}
	if e.isDir || (e.state == Pending && len(e.payload) == 0) {
		m = header.Store
	}
	if m != e.central.Method {
		e.central.Method = m
		e.central.VersionNeeded = header.VersionNeeded(m, false)
		e.compressed = nil
	}
	return nil
}

func (e *Entry) Flags() header.Flags       { return e.central.Flags }
func (e *Entry) Encrypted() bool           { return e.central.Flags.Encrypted() }
func (e *Entry) CRC32() uint32             { return e.central.CRC32 }
func (e *Entry) Size() uint64              { return e.central.UncompressedSize }
func (e *Entry) CompressedSize() uint64    { return e.central.CompressedSize }
func (e *Entry) ExternalAttrs() uint32     { return e.central.ExternalAttrs }
func (e *Entry) LocalHeaderOffset() uint64 { return e.central.LocalHeaderOffset }

// SetLocalHeaderOffset records where the local header is written.
func (e *Entry) SetLocalHeaderOffset(off uint64) { e.central.LocalHeaderOffset = off }

// Header is the central directory record. Changes to it are written by
// PackHeader.
func (e *Entry) Header() *header.CentralRecord { return e.central }

// LocalHeader is the decoded local header, nil for synthesized entries.
func (e *Entry) LocalHeader() *header.LocalRecord { return e.local }

func (e *Entry) ModTime() time.Time {
	return header.FromDOS(e.central.ModTime, e.central.ModDate)
}

func (e *Entry) SetModTime(t time.Time) { setTime(e.central, t) }

// SetAttr re-derives modification time and external attributes.
func (e *Entry) SetAttr(attr Attr) { attr.apply(e.central, e.isDir, e.opts.now()) }

// Mode returns the Unix permission bits, or 0 when none were recorded.
func (e *Entry) Mode() fs.FileMode {
	return fs.FileMode(e.central.ExternalAttrs >> 16 & unixPerm)
}

// SetData supplies the uncompressed payload and moves the entry to Pending.
// Later reads return it unchanged. Directories always end up empty and
// STORED.
func (e *Entry) SetData(data []byte) {
	e.state = Pending
	e.compressed = nil
	e.central.Flags = e.central.Flags.With(header.FlagEncrypted, false).With(header.FlagDataDescriptor, false)
	if e.isDir || len(data) == 0 {
		e.payload = []byte{}
		e.central.Method = header.Store
		e.central.CRC32 = 0
		e.central.UncompressedSize = 0
		e.central.CompressedSize = 0
	} else {
		e.payload = append(make([]byte, 0, len(data)), data...)
		e.central.Method = header.Deflate
		e.central.CRC32 = crcOf(e.payload)
		e.central.UncompressedSize = uint64(len(e.payload))
	}
	e.central.VersionNeeded = header.VersionNeeded(e.central.Method, false)
}

// GetData returns the uncompressed payload. A pending payload is returned
// as supplied; otherwise the compressed span is decrypted if needed,
// decompressed and verified.
func (e *Entry) GetData(password []byte) ([]byte, error) {
	if e.state == Pending {
		return e.payload, nil
	}
	return e.decompress(password)
}

// DataDescriptor returns the trailer to write after the compressed data
// when the entry keeps the data descriptor flag, nil otherwise.
func (e *Entry) DataDescriptor() *header.DataDescriptor {
	if !e.central.Flags.DataDescriptor() {
		return nil
	}
	return &header.DataDescriptor{
		CRC32:            e.central.CRC32,
		CompressedSize:   e.central.CompressedSize,
		UncompressedSize: e.central.UncompressedSize,
	}
}

// PackHeader serializes the central directory header, name, extra field and
// comment for directory table assembly.
func (e *Entry) PackHeader() []byte {
	if e.central.SetZip64Extra() && e.central.VersionNeeded < header.VersionZip64 {
		e.central.VersionNeeded = header.VersionZip64
	}
	return e.central.Encode()
}

// PackLocal serializes the local header matching the central record. Extra
// sub-records of a decoded local header are preserved, except Zip64.
func (e *Entry) PackLocal() []byte {
	loc := e.central.Local()
	if e.local != nil {
		extra := header.RemoveExtra(e.local.Extra, header.Zip64ExtraID)
		if len(loc.Extra) > 0 {
			extra = append(extra, loc.Extra...)
		}
		loc.Extra = extra
	}
	if len(loc.Extra) > 0 && loc.VersionNeeded < header.VersionZip64 && loc.CompressedSize == header.Sentinel32 {
		loc.VersionNeeded = header.VersionZip64
	}
	return loc.Encode()
}

func (e *Entry) String() string {
	return fmt.Sprintf(`{
	name: %q
	comment: %q
	isDirectory: %t
	state: %s
	method: %s
	flags: 0x%04x
	time: %s
	crc: 0x%08X
	compressedSize: %d bytes
	size: %d bytes
	attr: 0x%08x
	offset: %d
	compressedData: <%d bytes buffer>
	data: <%d bytes buffer>
}`, e.name, e.Comment(), e.isDir, e.state, e.central.Method, uint16(e.central.Flags),
		e.ModTime().Format(time.RFC3339), e.central.CRC32, e.central.CompressedSize,
		e.central.UncompressedSize, e.central.ExternalAttrs, e.central.LocalHeaderOffset,
		e.data.Len(), len(e.payload))
}

func sizeHint(n uint64) int {
	const limit = 64 << 20
	if n > limit || n > math.MaxInt32 {
		return 0
	}
	return int(n)
}
