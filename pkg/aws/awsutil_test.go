package aws

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	body   []byte
	ranges []string
	err    error
}

func (f *fakeS3) HeadObjectWithContext(_ aws.Context, in *s3.HeadObjectInput, _ ...request.Option) (*s3.HeadObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(42)}, nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.ranges = append(f.ranges, aws.StringValue(in.Range))
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.body))}, nil
}

func TestSize(t *testing.T) {
	c := NewClientWithAPI(&fakeS3{})
	n, err := c.Size(context.Background(), "b", "k")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestReadRange(t *testing.T) {
	fake := &fakeS3{body: []byte("0123")}
	c := NewClientWithAPI(fake)
	b, err := c.ReadRange(context.Background(), "b", "k", 10, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123"), b)
	assert.Equal(t, []string{"bytes=10-13"}, fake.ranges)

	_, err = c.ReadRange(context.Background(), "b", "k", 10, 8)
	assert.Error(t, err, "short body")

	b, err = c.ReadRange(context.Background(), "b", "k", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, b)
	assert.Len(t, fake.ranges, 2)
}

func TestErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	c := NewClientWithAPI(&fakeS3{err: boom})
	_, err := c.Size(context.Background(), "b", "k")
	assert.ErrorIs(t, err, boom)
	_, err = c.ReadRange(context.Background(), "b", "k", 0, 1)
	assert.ErrorIs(t, err, boom)
}
