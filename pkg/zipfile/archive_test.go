package zipfile

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alec-rabold/zipkit/pkg/entry"
	"github.com/alec-rabold/zipkit/pkg/header"
)

type testFile struct {
	name   string
	method uint16
	body   []byte
}

var testFiles = []testFile{
	{"readme.txt", zip.Store, []byte("read me first\n")},
	{"docs/", zip.Store, nil},
	{"docs/guide.md", zip.Deflate, bytes.Repeat([]byte("# guide\nsome text\n"), 500)},
	{"empty.bin", zip.Deflate, nil},
}

// stdlibArchive builds an archive with the standard library writer.
func stdlibArchive(t *testing.T, files []testFile, comment string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.name,
			Method:   f.method,
			Modified: time.Date(2020, 1, 2, 3, 4, 6, 0, time.UTC),
		})
		require.NoError(t, err)
		_, err = w.Write(f.body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.SetComment(comment))
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// readStdlib reads every file of data back with the standard library.
func readStdlib(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err, f.Name)
		require.NoError(t, rc.Close())
		out[f.Name] = b
	}
	return out
}

func TestDecodeStdlibArchive(t *testing.T) {
	data := stdlibArchive(t, testFiles, "archive comment")
	a, err := Decode(data, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "archive comment", a.Comment())
	require.Len(t, a.Entries(), len(testFiles))

	for i, f := range testFiles {
		e := a.Entries()[i]
		assert.Equal(t, f.name, e.Name())
		got, err := a.ReadFile(f.name, nil)
		require.NoError(t, err, f.name)
		if len(f.body) == 0 {
			assert.Empty(t, got)
		} else {
			assert.Equal(t, f.body, got)
		}
	}
	d, err := a.Entry("docs/")
	require.NoError(t, err)
	assert.True(t, d.IsDirectory())

	_, err = a.ReadFile("missing", nil)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestDuplicateNamesReadIndependently(t *testing.T) {
	data := stdlibArchive(t, []testFile{
		{"a.txt", zip.Deflate, []byte("first")},
		{"a.txt", zip.Deflate, []byte("second")},
	}, "")
	a, err := Decode(data, DefaultOptions())
	require.NoError(t, err)
	entries := a.Entries()
	require.Len(t, entries, 2)

	for round := 0; round < 2; round++ {
		got, err := a.Read(entries[0], nil)
		require.NoError(t, err)
		assert.Equal(t, "first", string(got))
		got, err = a.Read(entries[1], nil)
		require.NoError(t, err)
		assert.Equal(t, "second", string(got))
	}

	// a corrupt shadowed entry is still verified
	entries[1].Header().CRC32 ^= 1
	_, err = a.Read(entries[1], nil)
	assert.ErrorIs(t, err, entry.ErrBadChecksum)
	err = a.Walk(context.Background(), nil, func(*entry.Entry, []byte) error { return nil })
	assert.ErrorIs(t, err, entry.ErrBadChecksum)

	got, err := a.ReadFile("a.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
}

func TestEncodeReadableByStdlib(t *testing.T) {
	opts := DefaultOptions()
	a := New(opts)
	for _, f := range testFiles {
		_, err := a.AddFile(f.name, f.body, entry.FromPermissionBits(0o640))
		require.NoError(t, err)
	}
	require.NoError(t, a.SetComment("made here"))
	data, err := a.Encode()
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, "made here", zr.Comment)

	got := readStdlib(t, data)
	for _, f := range testFiles {
		assert.Equal(t, string(f.body), string(got[f.name]), f.name)
	}
	for _, f := range zr.File {
		if f.Name == "docs/" {
			assert.True(t, f.Mode().IsDir())
			continue
		}
		assert.Equal(t, os.FileMode(0o640), f.Mode().Perm(), f.Name)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := stdlibArchive(t, testFiles, "")
	a, err := Decode(src, DefaultOptions())
	require.NoError(t, err)
	_, err = a.AddFile("new/file.txt", []byte("added later"), nil)
	require.NoError(t, err)

	data, err := a.Encode()
	require.NoError(t, err)
	b, err := Decode(data, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, b.Entries(), len(testFiles)+1)
	got, err := b.ReadFile("new/file.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, "added later", string(got))

	// entries written with data descriptors keep them and stay readable
	std := readStdlib(t, data)
	assert.Equal(t, testFiles[2].body, std["docs/guide.md"])
}

func TestAddFileReplacesContent(t *testing.T) {
	a, err := Decode(stdlibArchive(t, testFiles, ""), DefaultOptions())
	require.NoError(t, err)
	before, err := a.ReadFile("readme.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, testFiles[0].body, before)

	_, err = a.AddFile("readme.txt", []byte("new content"), nil)
	require.NoError(t, err)
	after, err := a.ReadFile("readme.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, "new content", string(after))
	assert.Len(t, a.Entries(), len(testFiles))
}

func TestAddDirectoryWithContent(t *testing.T) {
	a := New(DefaultOptions())
	_, err := a.AddFile("dir/", []byte("x"), nil)
	assert.ErrorIs(t, err, entry.ErrDirectoryHasNoContent)
	assert.Empty(t, a.Entries())
}

func TestDeleteDirectory(t *testing.T) {
	a, err := Decode(stdlibArchive(t, testFiles, ""), DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, a.Delete("docs/"))
	var names []string
	for _, e := range a.Entries() {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"readme.txt", "empty.bin"}, names)
	assert.ErrorIs(t, a.Delete("docs/"), ErrEntryNotFound)
}

func TestRename(t *testing.T) {
	a, err := Decode(stdlibArchive(t, testFiles, ""), DefaultOptions())
	require.NoError(t, err)
	assert.ErrorIs(t, a.Rename("readme.txt", "empty.bin"), ErrDuplicateEntry)
	require.NoError(t, a.Rename("readme.txt", "README"))
	got, err := a.ReadFile("README", nil)
	require.NoError(t, err)
	assert.Equal(t, testFiles[0].body, got)
	_, err = a.Entry("readme.txt")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestWalk(t *testing.T) {
	a, err := Decode(stdlibArchive(t, testFiles, ""), DefaultOptions())
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen []string
	)
	err = a.Walk(context.Background(), nil, func(e *entry.Entry, data []byte) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, fmt.Sprintf("%s:%d", e.Name(), len(data)))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(seen)
	assert.Equal(t, []string{"docs/:0", "docs/guide.md:9000", "empty.bin:0", "readme.txt:14"}, seen)
}

func TestWalkStopsOnChecksumError(t *testing.T) {
	a, err := Decode(stdlibArchive(t, testFiles, ""), DefaultOptions())
	require.NoError(t, err)
	e, err := a.Entry("docs/guide.md")
	require.NoError(t, err)
	e.Header().CRC32 ^= 0xff

	err = a.Walk(context.Background(), nil, func(*entry.Entry, []byte) error { return nil })
	assert.ErrorIs(t, err, entry.ErrBadChecksum)
}

func TestDecodeErrors(t *testing.T) {
	data := stdlibArchive(t, testFiles, "")

	t.Run("no end record", func(t *testing.T) {
		_, err := Decode(data[:len(data)-header.EndLen], DefaultOptions())
		assert.ErrorIs(t, err, header.ErrRecordNotFound)
	})
	t.Run("empty", func(t *testing.T) {
		_, err := Decode(nil, DefaultOptions())
		assert.ErrorIs(t, err, header.ErrRecordNotFound)
	})
	t.Run("entry count mismatch", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		eocd := len(bad) - header.EndLen
		bad[eocd+10]++ // total entries
		_, err := Decode(bad, DefaultOptions())
		assert.ErrorIs(t, err, header.ErrInvalidHeader)
	})
	t.Run("directory past trailer", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		eocd := len(bad) - header.EndLen
		bad[eocd+19] = 0x7f // high byte of the directory offset
		_, err := Decode(bad, DefaultOptions())
		assert.ErrorIs(t, err, header.ErrInvalidHeader)
	})
}

func TestDigitalSignaturePreserved(t *testing.T) {
	data := stdlibArchive(t, testFiles, "c")
	eocd, err := header.Locate(data, header.EndSignature, header.EndLen, header.CentralHeaderSignature)
	require.NoError(t, err)
	end, err := header.DecodeEnd(data[eocd:])
	require.NoError(t, err)

	sig := (&header.DigitalSignature{Data: []byte("signed")}).Encode()
	end.CDSize += uint32(len(sig))
	spliced := append(append(append([]byte(nil), data[:eocd]...), sig...), end.Encode()...)

	a, err := Decode(spliced, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, a.DigitalSignature())
	assert.Equal(t, []byte("signed"), a.DigitalSignature().Data)

	out, err := a.Encode()
	require.NoError(t, err)
	b, err := Decode(out, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, b.DigitalSignature())
	assert.Equal(t, []byte("signed"), b.DigitalSignature().Data)
}

func TestZip64EntryCount(t *testing.T) {
	if testing.Short() {
		t.Skip("writes 70000 entries")
	}
	const n = 70000
	opts := DefaultOptions()
	opts.CacheSize = -1
	a := New(opts)
	for i := 0; i < n; i++ {
		_, err := a.AddFile(fmt.Sprintf("f%05d", i), nil, nil)
		require.NoError(t, err)
	}
	data, err := a.Encode()
	require.NoError(t, err)

	b, err := Decode(data, opts)
	require.NoError(t, err)
	assert.Len(t, b.Entries(), n)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Len(t, zr.File, n)
}

func TestOpenAndWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.zip")
	a := New(DefaultOptions())
	_, err := a.AddFile("hello.txt", []byte("hello"), nil)
	require.NoError(t, err)
	require.NoError(t, a.WriteFile(path))

	b, err := OpenFile(path, DefaultOptions())
	require.NoError(t, err)
	got, err := b.ReadFile("hello.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	_, err = OpenFile(filepath.Join(dir, "missing.zip"), DefaultOptions())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
