package zipfile

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/alec-rabold/zipkit/pkg/aws"
	"github.com/alec-rabold/zipkit/pkg/entry"
	"github.com/alec-rabold/zipkit/pkg/header"
)

// localSlack is read past the expected end of an entry so a local extra
// field longer than the central one rarely needs a second request.
const localSlack = 256

// FileExtractor extracts & decompresses files from a zip archive in S3
// without downloading the whole object.
type FileExtractor struct {
	aws    *aws.Client
	bucket string
	key    string
	size   int64
	opts   Options
}

// File is an extracted entry with its decompressed contents.
type File struct {
	*entry.Entry
	Contents []byte
}

// NewFileExtractor creates a FileExtractor for the object at bucket/key.
func NewFileExtractor(ctx context.Context, client *aws.Client, bucket, key string, opts Options) (*FileExtractor, error) {
	size, err := client.Size(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	return &FileExtractor{
		aws:    client,
		bucket: bucket,
		key:    key,
		size:   size,
		opts:   opts,
	}, nil
}

func (x *FileExtractor) readAt(ctx context.Context) readAtFunc {
	return func(off int64, n int) ([]byte, error) {
		if off < 0 || n < 0 || off+int64(n) > x.size {
			return nil, fmt.Errorf("%w: range [%d, +%d) outside %d byte object", header.ErrInvalidHeader, off, n, x.size)
		}
		return x.aws.ReadRange(ctx, x.bucket, x.key, off, n)
	}
}

// getDirectoryEnd looks for the end record in the last 1k, then in the
// largest tail that can hold it.
func (x *FileExtractor) getDirectoryEnd(ctx context.Context) (*directoryEnd, error) {
	readAt := x.readAt(ctx)
	var lastErr error
	for _, n := range []int64{shortTail, longTail} {
		n = min(n, x.size)
		tail, err := readAt(x.size-n, int(n))
		if err != nil {
			return nil, err
		}
		d, err := readDirectoryEnd(tail, x.size-n, readAt)
		if err == nil {
			return d, nil
		}
		lastErr = err
		if n == x.size {
			break
		}
	}
	return nil, lastErr
}

// List returns the central directory records of the remote archive.
func (x *FileExtractor) List(ctx context.Context) ([]*header.CentralRecord, error) {
	d, err := x.getDirectoryEnd(ctx)
	if err != nil {
		return nil, err
	}
	cd, err := x.readAt(ctx)(int64(d.cdOffset), int(d.cdSize))
	if err != nil {
		return nil, err
	}
	records, _, err := readDirectory(cd, d.entries)
	if err != nil {
		return nil, err
	}
	log.Debugf("read %d central directory records of s3://%s/%s", len(records), x.bucket, x.key)
	return records, nil
}

// ExtractFiles fetches and decompresses every entry whose name contains one
// of the search terms. Entries are fetched in parallel, one ranged request
// each, and returned in directory order.
func (x *FileExtractor) ExtractFiles(ctx context.Context, terms []string, password []byte) ([]*File, error) {
	records, err := x.List(ctx)
	if err != nil {
		return nil, err
	}
	var matched []*header.CentralRecord
	for _, r := range records {
		if MatchesAny(terms, string(r.Name)) {
			matched = append(matched, r)
		}
	}

	files := make([]*File, len(matched))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(x.opts.workers())
	for i, r := range matched {
		i, r := i, r
		g.Go(func() error {
			f, err := x.extract(ctx, r, password)
			if err != nil {
				log.Errorf("error extracting file (name: %s), err: %v", r.Name, err)
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func (x *FileExtractor) extract(ctx context.Context, r *header.CentralRecord, password []byte) (*File, error) {
	readAt := x.readAt(ctx)
	off := int64(r.LocalHeaderOffset)
	want := int64(header.LocalHeaderLen+len(r.Name)+len(r.Extra)) + int64(r.CompressedSize)
	n := min(want+localSlack, x.size-off)
	b, err := readAt(off, int(n))
	if err != nil {
		return nil, err
	}
	loc, err := header.DecodeLocal(b)
	if err != nil {
		return nil, err
	}
	if need := int64(loc.Size()) + int64(r.CompressedSize); need > int64(len(b)) {
		if b, err = readAt(off, int(need)); err != nil {
			return nil, err
		}
	}
	e, err := entry.Decode(r, b, x.opts.entryOptions())
	if err != nil {
		return nil, err
	}
	data, err := e.GetData(password)
	if err != nil {
		return nil, err
	}
	return &File{Entry: e, Contents: data}, nil
}

// MatchesAny reports whether name contains one of the search terms. No
// terms match every name.
func MatchesAny(terms []string, name string) bool {
	if len(terms) == 0 {
		return true
	}
	for _, t := range terms {
		if strings.Contains(name, t) {
			return true
		}
	}
	return false
}
