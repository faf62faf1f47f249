// Package aws wraps the S3 calls needed to read byte ranges of a remote
// archive.
package aws

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	log "github.com/sirupsen/logrus"
)

// Client is an abstraction layer for interacting with AWS services.
type Client struct {
	s3 s3iface.S3API
}

// NewClient creates a new AWS client, expecting that the environment variables configure the settings.
// A non-empty region overrides the shared configuration.
func NewClient(region string) *Client {
	cfg := aws.NewConfig()
	if region != "" {
		cfg = cfg.WithRegion(region)
	}
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		SharedConfigState: session.SharedConfigEnable,
	}))
	return &Client{
		s3: s3.New(sess),
	}
}

// NewClientWithAPI wraps an existing S3 implementation.
func NewClientWithAPI(api s3iface.S3API) *Client {
	return &Client{s3: api}
}

// GetHeadObject implements the AWS interface
func (c *Client) GetHeadObject(ctx context.Context, bucket, key string) (*s3.HeadObjectOutput, error) {
	output, err := c.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		log.Errorf("error getting S3 head object (bucket: %s)(key: %s), err: %v", bucket, key, err)
		return nil, err
	}
	return output, nil
}

// GetS3ObjectWithRange implements the AWS interface
func (c *Client) GetS3ObjectWithRange(ctx context.Context, bucket, key, byteRange string) (*s3.GetObjectOutput, error) {
	output, err := c.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Range:  &byteRange,
	})
	if err != nil {
		log.Errorf("error getting S3 object (bucket: %s)(key: %s)(range: %s), err: %v", bucket, key, byteRange, err)
		return nil, err
	}
	return output, nil
}

// Size returns the object's content length.
func (c *Client) Size(ctx context.Context, bucket, key string) (int64, error) {
	head, err := c.GetHeadObject(ctx, bucket, key)
	if err != nil {
		return 0, err
	}
	return aws.Int64Value(head.ContentLength), nil
}

// ReadRange returns n bytes of the object starting at off.
func (c *Client) ReadRange(ctx context.Context, bucket, key string, off int64, n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	byteRange := fmt.Sprintf("bytes=%d-%d", off, off+int64(n)-1)
	output, err := c.GetS3ObjectWithRange(ctx, bucket, key, byteRange)
	if err != nil {
		return nil, err
	}
	defer output.Body.Close()
	b, err := io.ReadAll(output.Body)
	if err != nil {
		log.Errorf("error reading S3 object body (bucket: %s)(key: %s)(range: %s), err: %v", bucket, key, byteRange, err)
		return nil, err
	}
	if len(b) != n {
		return nil, fmt.Errorf("aws: range %s of %s/%s returned %d bytes", byteRange, bucket, key, len(b))
	}
	return b, nil
}
