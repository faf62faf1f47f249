// Package zipfile decodes, edits and encodes whole ZIP archives, locally or
// straight out of S3 using ranged reads.
package zipfile

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"

	"github.com/alec-rabold/zipkit/pkg/entry"
	"github.com/alec-rabold/zipkit/pkg/header"
)

// Archive is an in-memory ZIP archive. Entries of a decoded archive borrow
// the bytes passed to Decode, which must not be modified afterwards.
//
// Reads (ReadFile, Walk) may run concurrently; mutations may not run
// concurrently with anything else.
type Archive struct {
	entries   []*entry.Entry
	index     map[string]*entry.Entry
	comment   []byte
	signature *header.DigitalSignature
	opts      Options
	cache     *lru.Cache[*entry.Entry, []byte]
}

// New returns an empty archive.
func New(opts Options) *Archive {
	a := &Archive{
		index: make(map[string]*entry.Entry),
		opts:  opts,
	}
	size := opts.CacheSize
	if size == 0 {
		size = defaultCacheSize
	}
	if size > 0 {
		a.cache, _ = lru.New[*entry.Entry, []byte](size)
	}
	return a
}

// Decode parses an archive held entirely in data.
func Decode(data []byte, opts Options) (*Archive, error) {
	readAt := func(off int64, n int) ([]byte, error) {
		if off < 0 || n < 0 || off > int64(len(data)) || int64(n) > int64(len(data))-off {
			return nil, fmt.Errorf("%w: range [%d, +%d) outside %d byte archive", header.ErrInvalidHeader, off, n, len(data))
		}
		return data[off : off+int64(n)], nil
	}
	d, err := readDirectoryEnd(data, 0, readAt)
	if err != nil {
		return nil, err
	}
	cd, err := readAt(int64(d.cdOffset), int(d.cdSize))
	if err != nil {
		return nil, err
	}
	records, sig, err := readDirectory(cd, d.entries)
	if err != nil {
		return nil, err
	}

	a := New(opts)
	a.comment = d.end.Comment
	a.signature = sig
	for _, r := range records {
		if r.LocalHeaderOffset >= uint64(d.cdOffset) {
			return nil, fmt.Errorf("%w: %q: local header offset %d inside central directory",
				header.ErrInvalidHeader, r.Name, r.LocalHeaderOffset)
		}
		e, err := entry.Decode(r, data[r.LocalHeaderOffset:d.cdOffset], opts.entryOptions())
		if err != nil {
			return nil, err
		}
		a.insert(e)
	}
	log.Debugf("decoded archive: %d entries, central directory at %d (%d bytes)", len(a.entries), d.cdOffset, d.cdSize)
	return a, nil
}

// OpenFile reads and decodes the archive at path.
func OpenFile(path string, opts Options) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Errorf("error reading archive (name: %s), err: %v", path, err)
		return nil, err
	}
	a, err := Decode(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

func (a *Archive) insert(e *entry.Entry) {
	a.entries = append(a.entries, e)
	// the first of duplicate names wins lookups
	if _, ok := a.index[e.Name()]; !ok {
		a.index[e.Name()] = e
	}
}

func (a *Archive) reindex() {
	a.index = make(map[string]*entry.Entry, len(a.entries))
	for _, e := range a.entries {
		if _, ok := a.index[e.Name()]; !ok {
			a.index[e.Name()] = e
		}
	}
}

func (a *Archive) forget(e *entry.Entry) {
	if a.cache != nil {
		a.cache.Remove(e)
	}
}

// Entries returns the entries in directory order.
func (a *Archive) Entries() []*entry.Entry {
	return append([]*entry.Entry(nil), a.entries...)
}

// Entry looks an entry up by name.
func (a *Archive) Entry(name string) (*entry.Entry, error) {
	e, ok := a.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEntryNotFound, name)
	}
	return e, nil
}

// Comment is the archive comment.
func (a *Archive) Comment() string {
	if !utf8.Valid(a.comment) {
		if b, err := charmap.CodePage437.NewDecoder().Bytes(a.comment); err == nil {
			return string(b)
		}
	}
	return string(a.comment)
}

// SetComment replaces the archive comment.
func (a *Archive) SetComment(comment string) error {
	if len(comment) > header.MaxVariableLen {
		return fmt.Errorf("%w: archive comment is %d bytes", entry.ErrNameTooLong, len(comment))
	}
	a.comment = []byte(comment)
	return nil
}

// DigitalSignature is the record following the central directory, if any.
func (a *Archive) DigitalSignature() *header.DigitalSignature { return a.signature }

// ReadFile returns the uncompressed content of the named entry. Decoded
// payloads of unencrypted entries are cached and shared between callers,
// who must not modify them.
func (a *Archive) ReadFile(name string, password []byte) ([]byte, error) {
	e, err := a.Entry(name)
	if err != nil {
		return nil, err
	}
	return a.Read(e, password)
}

// Read returns the uncompressed content of e, which must belong to the
// archive. Unlike ReadFile it reaches every entry when names repeat.
func (a *Archive) Read(e *entry.Entry, password []byte) ([]byte, error) {
	cacheable := a.cache != nil && !e.Changed() && !e.Encrypted() && !e.IsDirectory()
	if cacheable {
		if b, ok := a.cache.Get(e); ok {
			return b, nil
		}
	}
	b, err := e.GetData(password)
	if err != nil {
		return nil, err
	}
	if cacheable {
		a.cache.Add(e, b)
	}
	return b, nil
}

// AddFile stores data under name, replacing the content of an existing
// entry with that name. A name ending in '/' adds a directory, which cannot
// hold data.
func (a *Archive) AddFile(name string, data []byte, attr entry.Attr) (*entry.Entry, error) {
	if strings.HasSuffix(name, "/") && len(data) > 0 {
		return nil, fmt.Errorf("%w: %q", entry.ErrDirectoryHasNoContent, name)
	}
	if attr == nil {
		attr = entry.Default{}
	}
	e, ok := a.index[name]
	if ok {
		e.SetAttr(attr)
	} else {
		var err error
		if e, err = entry.New(name, attr, a.opts.entryOptions()); err != nil {
			return nil, err
		}
		a.insert(e)
	}
	e.SetData(data)
	a.forget(e)
	return e, nil
}

// Rename moves an entry to a new name.
func (a *Archive) Rename(from, to string) error {
	e, err := a.Entry(from)
	if err != nil {
		return err
	}
	if _, ok := a.index[to]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateEntry, to)
	}
	if err := e.SetName(to); err != nil {
		return err
	}
	a.reindex()
	return nil
}

// Delete removes the named entry. Deleting a directory removes everything
// beneath it.
func (a *Archive) Delete(name string) error {
	e, err := a.Entry(name)
	if err != nil {
		return err
	}
	kept := a.entries[:0]
	for _, c := range a.entries {
		if c == e || (e.IsDirectory() && strings.HasPrefix(c.Name(), name)) {
			a.forget(c)
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(a.entries); i++ {
		a.entries[i] = nil
	}
	a.entries = kept
	a.reindex()
	return nil
}

// WalkFunc receives each entry with its content. It may be called from
// several goroutines at once.
type WalkFunc func(e *entry.Entry, data []byte) error

// Walk reads every entry using up to Options.Workers goroutines and hands
// the results to fn. The first error cancels the walk and is returned.
func (a *Archive) Walk(ctx context.Context, password []byte, fn WalkFunc) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.workers())
	for _, e := range a.entries {
		e := e
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := a.Read(e, password)
			if err != nil {
				log.Errorf("error reading entry (name: %s), err: %v", e.Name(), err)
				return err
			}
			return fn(e, data)
		})
	}
	return g.Wait()
}
