package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/angelmondragon/sales-analytics/pkg/config"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type (
	writerFactory func(ctx context.Context, bucket, object, contentType string) io.WriteCloser
	objectLister  func(ctx context.Context, bucket, prefix string) ([]string, error)
	objectDeleter func(ctx context.Context, bucket, object string) error
)

// Client uploads files into one bucket under an optional prefix.
type Client struct {
	client       *storage.Client
	bucket       string
	prefix       string
	newWriter    writerFactory
	listObjects  objectLister
	deleteObject objectDeleter
}

// NewClient builds a GCS client using explicit credentials when configured
// and Application Default Credentials otherwise.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	var opts []option.ClientOption
	switch {
	case gcp.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case gcp.ApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}

	sc, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	c := &Client{
		client: sc,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}
	c.newWriter = func(ctx context.Context, bucket, object, contentType string) io.WriteCloser {
		w := sc.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}
	c.listObjects = func(ctx context.Context, bucket, prefix string) ([]string, error) {
		var names []string
		it := sc.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
		for {
			attrs, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return names, nil
			}
			if err != nil {
				return nil, err
			}
			names = append(names, attrs.Name)
		}
	}
	c.deleteObject = func(ctx context.Context, bucket, object string) error {
		err := sc.Bucket(bucket).Object(object).Delete(ctx)
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.Bucket), "gcs client initialized")
	}
	return c, nil
}

// Name identifies the sink in logs.
func (c *Client) Name() string {
	return "gcs"
}

// Bucket returns the target bucket.
func (c *Client) Bucket() string {
	return c.bucket
}

// ObjectName joins the configured prefix and key.
func (c *Client) ObjectName(key string) string {
	return joinKey(c.prefix, key)
}

// Upload streams r into the object named by key.
func (c *Client) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	if c == nil || c.newWriter == nil {
		return errors.New("gcs client not initialized")
	}
	object := c.ObjectName(key)
	w := c.newWriter(ctx, c.bucket, object, contentType)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy to gs://%s/%s: %w", c.bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize gs://%s/%s: %w", c.bucket, object, err)
	}
	return nil
}

// List returns the keys under prefix, relative to the configured prefix.
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	if c == nil || c.listObjects == nil {
		return nil, errors.New("gcs client not initialized")
	}
	objectPrefix := c.ObjectName(strings.TrimSuffix(prefix, "/"))
	if strings.HasSuffix(prefix, "/") && objectPrefix != "" {
		objectPrefix += "/"
	}
	names, err := c.listObjects(ctx, c.bucket, objectPrefix)
	if err != nil {
		return nil, fmt.Errorf("list gs://%s/%s: %w", c.bucket, objectPrefix, err)
	}
	root := strings.Trim(c.prefix, "/")
	keys := make([]string, 0, len(names))
	for _, name := range names {
		if root != "" {
			name = strings.TrimPrefix(name, root+"/")
		}
		keys = append(keys, name)
	}
	return keys, nil
}

// Delete removes the object named by key; a missing object is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.deleteObject == nil {
		return errors.New("gcs client not initialized")
	}
	object := c.ObjectName(key)
	if err := c.deleteObject(ctx, c.bucket, object); err != nil {
		return fmt.Errorf("delete gs://%s/%s: %w", c.bucket, object, err)
	}
	return nil
}

// Close releases the underlying storage client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func joinKey(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	key = strings.TrimLeft(key, "/")
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}
