package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/angelmondragon/sales-analytics/pkg/config"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Client uploads files into one S3 bucket under an optional prefix.
type Client struct {
	api    objectAPI
	bucket string
	prefix string
}

// NewClient loads the default AWS configuration chain and builds a client.
// A custom endpoint switches to path-style addressing for MinIO/LocalStack.
func NewClient(ctx context.Context, cfg config.S3Config, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("s3 bucket name is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.Bucket), "s3 client initialized")
	}
	return newWithAPI(api, cfg.Bucket, cfg.Prefix), nil
}

func newWithAPI(api objectAPI, bucket, prefix string) *Client {
	return &Client{api: api, bucket: bucket, prefix: prefix}
}

// Name identifies the sink in logs.
func (c *Client) Name() string {
	return "s3"
}

// Key joins the configured prefix and key.
func (c *Client) Key(key string) string {
	prefix := strings.Trim(c.prefix, "/")
	key = strings.TrimLeft(key, "/")
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}

// Upload puts r under key. Pass a seekable body (*os.File, bytes.Reader) so
// the SDK can compute the payload checksum.
func (c *Client) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	if c == nil || c.api == nil {
		return errors.New("s3 client not initialized")
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.Key(key)),
		Body:   r,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := c.api.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 put s3://%s/%s: %w", c.bucket, c.Key(key), err)
	}
	return nil
}

// List returns the keys under prefix, relative to the configured prefix.
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("s3 client not initialized")
	}
	full := c.Key(strings.TrimSuffix(prefix, "/"))
	if strings.HasSuffix(prefix, "/") && full != "" {
		full += "/"
	}
	root := strings.Trim(c.prefix, "/")

	var keys []string
	pages := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(full),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list s3://%s/%s: %w", c.bucket, full, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if root != "" {
				key = strings.TrimPrefix(key, root+"/")
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Delete removes the object under key.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.api == nil {
		return errors.New("s3 client not initialized")
	}
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.Key(key)),
	})
	if err != nil {
		return fmt.Errorf("s3 delete s3://%s/%s: %w", c.bucket, c.Key(key), err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no releasable resources.
func (c *Client) Close() error {
	return nil
}
