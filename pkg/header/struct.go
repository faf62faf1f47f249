package header

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidHeader indicates a fixed record whose signature or layout does
	// not conform to the zip specification
	ErrInvalidHeader = errors.New("zip: invalid header")
	// ErrRecordNotFound indicates the signature scanner exhausted its search window
	ErrRecordNotFound = errors.New("zip: record not found")
)

// Signature identifies a fixed record.
type Signature uint32

// Record signatures.
const (
	NoSignature               Signature = 0
	LocalHeaderSignature      Signature = 0x04034b50
	CentralHeaderSignature    Signature = 0x02014b50
	EndSignature              Signature = 0x06054b50
	Zip64LocatorSignature     Signature = 0x07064b50
	Zip64EndSignature         Signature = 0x06064b50
	DataDescriptorSignature   Signature = 0x08074b50
	DigitalSignatureSignature Signature = 0x05054b50
)

func (s Signature) String() string {
	switch s {
	case LocalHeaderSignature:
		return "local header"
	case CentralHeaderSignature:
		return "central directory header"
	case EndSignature:
		return "end of central directory"
	case Zip64LocatorSignature:
		return "zip64 end of central directory locator"
	case Zip64EndSignature:
		return "zip64 end of central directory"
	case DataDescriptorSignature:
		return "data descriptor"
	case DigitalSignatureSignature:
		return "digital signature"
	}
	return fmt.Sprintf("signature 0x%08x", uint32(s))
}

const (
	LocalHeaderLen      = 30 // + filename + extra
	CentralHeaderLen    = 46 // + filename + extra + comment
	EndLen              = 22 // + comment
	Zip64LocatorLen     = 20
	Zip64EndLen         = 56 // + extensible data
	DigitalSignatureLen = 6  // + data

	// leading bytes of the zip64 end record not counted by its size field
	zip64EndLead = 12

	MaxVariableLen = 0xffff
)

// Extra field IDs.
const (
	Zip64ExtraID = 0x0001 // Zip64 extended information
	NTFSExtraID  = 0x000a
	UnixExtraID  = 0x000d
)

// Zip64 sentinels stored in the 32 and 16 bit fields they override.
const (
	Sentinel32 = 0xffffffff
	Sentinel16 = 0xffff
)

// Method is a compression method code.
type Method uint16

// Compression methods.
const (
	Store   Method = 0 // no compression
	Deflate Method = 8 // DEFLATE compressed
)

func (m Method) String() string {
	switch m {
	case Store:
		return "STORED (0)"
	case Deflate:
		return "DEFLATED (8)"
	}
	return fmt.Sprintf("UNSUPPORTED (%d)", uint16(m))
}

// Supported reports whether m is a method this codec can handle.
func (m Method) Supported() bool { return m == Store || m == Deflate }

// Flags is the general purpose bit flag.
type Flags uint16

const (
	FlagEncrypted      Flags = 1 << 0
	FlagDataDescriptor Flags = 1 << 3
	FlagUTF8           Flags = 1 << 11
)

func (f Flags) Encrypted() bool      { return f&FlagEncrypted != 0 }
func (f Flags) DataDescriptor() bool { return f&FlagDataDescriptor != 0 }
func (f Flags) UTF8() bool           { return f&FlagUTF8 != 0 }

// With returns f with flag set or cleared.
func (f Flags) With(flag Flags, on bool) Flags {
	if on {
		return f | flag
	}
	return f &^ flag
}

// HostSystem is the upper byte of "version made by".
type HostSystem uint8

const (
	HostFAT     HostSystem = 0
	HostUnix    HostSystem = 3
	HostWindows HostSystem = 10 // NTFS
	HostDarwin  HostSystem = 19
)

// ParseHostSystem maps a configuration value to a HostSystem.
func ParseHostSystem(s string) (HostSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unix", "linux":
		return HostUnix, nil
	case "windows", "ntfs":
		return HostWindows, nil
	case "darwin", "macos", "osx":
		return HostDarwin, nil
	case "fat", "dos", "msdos":
		return HostFAT, nil
	}
	return 0, fmt.Errorf("zip: unknown host system %q", s)
}

// Versions, encoded as major*10 + minor.
const (
	VersionStore   = 10
	VersionDeflate = 20
	VersionZip64   = 45
)

// VersionMadeBy combines a host system with the APPNOTE version written (2.0).
func VersionMadeBy(host HostSystem) uint16 {
	return uint16(host)<<8 | VersionDeflate
}

// VersionNeeded returns the minimum version to extract an entry.
func VersionNeeded(m Method, zip64 bool) uint16 {
	switch {
	case zip64:
		return VersionZip64
	case m == Deflate:
		return VersionDeflate
	}
	return VersionStore
}

func invalid(sig Signature, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidHeader, sig, fmt.Sprintf(format, args...))
}
