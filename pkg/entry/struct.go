package entry

import (
	"errors"
	"io/fs"
	"time"

	"github.com/alec-rabold/zipkit/pkg/deflate"
	"github.com/alec-rabold/zipkit/pkg/header"
)

var (
	// ErrBadChecksum indicates decompressed data whose CRC-32 does not match the header
	ErrBadChecksum = errors.New("zip: checksum error")
	// ErrUnsupportedMethod indicates an invalid/unsupported compression algorithm
	ErrUnsupportedMethod = errors.New("zip: unsupported compression algorithm")
	// ErrIncompatiblePassword indicates an encrypted entry read without a usable password
	ErrIncompatiblePassword = errors.New("zip: incompatible password")
	// ErrDirectoryHasNoContent indicates an attempt to give a directory a payload
	ErrDirectoryHasNoContent = errors.New("zip: a directory cannot have content")
	// ErrNameTooLong indicates a name, extra field or comment over 65535 bytes
	ErrNameTooLong = errors.New("zip: variable length field too long")
)

// State of an entry's payload.
type State uint8

const (
	// Decoded entries serve data by decompressing their compressed span.
	Decoded State = iota
	// Pending entries hold an explicitly supplied payload.
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "decoded"
}

// Cipher decrypts the compressed bytes of an encrypted entry.
type Cipher interface {
	Decrypt(data []byte, h *header.CentralRecord, password []byte) ([]byte, error)
}

// Options configure entries. The zero value writes Unix as host system,
// uses the default deflate level and cannot read encrypted entries.
type Options struct {
	// Host is written into "version made by" of synthesized entries.
	Host header.HostSystem
	// Level is the deflate level used by compress. Zero selects the
	// default level.
	Level int
	// Cipher decrypts entries with the encrypted flag set.
	Cipher Cipher
	// Now supplies the modification time of synthesized entries.
	Now func() time.Time
}

// DefaultOptions returns Options with the default deflate level.
func DefaultOptions() Options {
	return Options{Host: header.HostUnix, Level: deflate.DefaultLevel}
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// MS-DOS attribute bits stored in the low byte of the external attributes.
const (
	msdosReadOnly = 0x01
	msdosDir      = 0x10
)

// Unix file type bits stored in the high half of the external attributes.
const (
	unixDir  = 0o040000
	unixFile = 0o100000
	unixPerm = 0o7777
)

// Attr describes how file attributes of a new entry are derived. It is one
// of FromMetadata, FromPermissionBits or Default.
type Attr interface {
	apply(r *header.CentralRecord, isDir bool, now time.Time)
}

// FromMetadata takes modification time and mode from file metadata.
type FromMetadata struct {
	ModTime time.Time
	Mode    fs.FileMode
}

// FromMetadataOf builds FromMetadata from an fs.FileInfo.
func FromMetadataOf(fi fs.FileInfo) FromMetadata {
	return FromMetadata{ModTime: fi.ModTime(), Mode: fi.Mode()}
}

// FromPermissionBits takes raw Unix permission bits.
type FromPermissionBits uint32

// Default uses 0755 for directories, 0644 for files and the current time.
type Default struct{}

func externalAttrs(isDir bool, perm uint32) uint32 {
	unix := uint32(unixFile)
	var dos uint32
	if isDir {
		unix = unixDir
		dos = msdosDir
	}
	if perm&0o200 == 0 {
		dos |= msdosReadOnly
	}
	return (unix|perm&unixPerm)<<16 | dos
}

func setTime(r *header.CentralRecord, t time.Time) {
	r.ModTime, r.ModDate = header.ToDOS(t)
}

func (a FromMetadata) apply(r *header.CentralRecord, isDir bool, now time.Time) {
	t := a.ModTime
	if t.IsZero() {
		t = now
	}
	setTime(r, t)
	perm := uint32(a.Mode.Perm())
	if a.Mode&fs.ModeSetuid != 0 {
		perm |= 0o4000
	}
	if a.Mode&fs.ModeSetgid != 0 {
		perm |= 0o2000
	}
	if a.Mode&fs.ModeSticky != 0 {
		perm |= 0o1000
	}
	r.ExternalAttrs = externalAttrs(isDir || a.Mode.IsDir(), perm)
}

func (a FromPermissionBits) apply(r *header.CentralRecord, isDir bool, now time.Time) {
	setTime(r, now)
	r.ExternalAttrs = externalAttrs(isDir, uint32(a))
}

func (Default) apply(r *header.CentralRecord, isDir bool, now time.Time) {
	setTime(r, now)
	perm := uint32(0o644)
	if isDir {
		perm = 0o755
	}
	r.ExternalAttrs = externalAttrs(isDir, perm)
}
