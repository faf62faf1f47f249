package zipfile

import (
	"errors"

	"github.com/alec-rabold/zipkit/pkg/deflate"
	"github.com/alec-rabold/zipkit/pkg/entry"
	"github.com/alec-rabold/zipkit/pkg/header"
)

var (
	// ErrEntryNotFound indicates a name with no matching entry
	ErrEntryNotFound = errors.New("zip: entry not found")
	// ErrDuplicateEntry indicates a rename onto an existing entry name
	ErrDuplicateEntry = errors.New("zip: duplicate entry name")
)

const (
	defaultWorkers   = 4
	defaultCacheSize = 64

	// tail sizes searched for the end record, the second one covering the
	// largest possible comment
	shortTail = 1024
	longTail  = header.EndLen + header.MaxVariableLen
)

// Options configure archive decoding, encoding and extraction.
type Options struct {
	// Host is written into "version made by" of added entries.
	Host header.HostSystem
	// Level is the deflate level for added entries.
	Level int
	// Workers bounds parallel entry reads. Zero selects a default.
	Workers int
	// CacheSize is the number of decoded payloads kept in memory. Negative
	// disables the cache, zero selects a default.
	CacheSize int
	// Cipher decrypts encrypted entries.
	Cipher entry.Cipher
}

// DefaultOptions returns Options for a Unix host with the default deflate
// level.
func DefaultOptions() Options {
	return Options{
		Host:      header.HostUnix,
		Level:     deflate.DefaultLevel,
		Workers:   defaultWorkers,
		CacheSize: defaultCacheSize,
	}
}

func (o Options) entryOptions() entry.Options {
	return entry.Options{Host: o.Host, Level: o.Level, Cipher: o.Cipher}
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return defaultWorkers
	}
	return o.Workers
}
