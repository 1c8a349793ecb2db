package s3

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"tempfiles-api/config"
	"tempfiles-api/internal/domain/resource"
	"tempfiles-api/internal/infrastructure/storage"
)

const noSuchKey = "NoSuchKey"

// Client stores resources as "<id>/data/<name>" objects in one bucket.
type Client struct {
	logger *zap.Logger
	mc     *minio.Client
	bucket string
}

func New(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.S3,
) (*Client, error) {
	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("s3 endpoint: %w", err)
	}
	if cfg.Secure {
		secure = true
	}

	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := mc.BucketExists(ctx, cfg.BucketUploads)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("bucket does not exist: %s", cfg.BucketUploads)
	}

	logger.Info("object storage connected",
		zap.String("endpoint", endpoint),
		zap.String("bucket", cfg.BucketUploads),
	)

	return &Client{
		logger: logger,
		mc:     mc,
		bucket: cfg.BucketUploads,
	}, nil
}

// normaliseEndpoint accepts "minio:9000" as well as "http(s)://minio:9000".
func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, errors.New("empty endpoint")
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, errors.New("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, errors.New("endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}

	return raw, false, nil
}

func (c *Client) Exists(ctx context.Context, id resource.ID) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    storage.ObjectPrefix(id),
		Recursive: true,
		MaxKeys:   1,
	}) {
		if obj.Err != nil {
			return false, obj.Err
		}
		return true, nil
	}
	return false, nil
}

func (c *Client) Put(ctx context.Context, id resource.ID, name string, r io.Reader, size int64) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}
	if _, err := c.mc.PutObject(ctx, c.bucket, storage.ObjectKey(id, name), r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	}); err != nil {
		return fmt.Errorf("put %s/%s: %w", id, name, err)
	}
	return nil
}

func (c *Client) Open(ctx context.Context, id resource.ID, name string) (io.ReadCloser, int64, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, 0, err
	}
	obj, err := c.mc.GetObject(ctx, c.bucket, storage.ObjectKey(id, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, mapErr(err)
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, 0, mapErr(err)
	}

	return obj, info.Size, nil
}

func (c *Client) Names(ctx context.Context, id resource.ID) ([]string, error) {
	prefix := storage.DataPrefix(id)

	var names []string
	for obj := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		names = append(names, strings.TrimPrefix(obj.Key, prefix))
	}
	if len(names) == 0 {
		return nil, storage.ErrNotFound
	}
	return names, nil
}

// RemoveAll deletes every object under the resource prefix.
func (c *Client) RemoveAll(ctx context.Context, id resource.ID) error {
	objects := c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    storage.ObjectPrefix(id),
		Recursive: true,
	})

	var errs []error
	for rerr := range c.mc.RemoveObjects(ctx, c.bucket, objects, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("remove %s: %w", rerr.ObjectName, rerr.Err))
	}
	return errors.Join(errs...)
}

func (c *Client) Probe(ctx context.Context) error {
	want := make([]byte, 32)
	if _, err := rand.Read(want); err != nil {
		return err
	}
	key := ".probe"

	if _, err := c.mc.PutObject(ctx, c.bucket, key, bytes.NewReader(want), int64(len(want)), minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("%w: put: %v", storage.ErrProbeFailed, err)
	}
	defer func() {
		if err := c.mc.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			c.logger.Warn("remove storage probe", zap.String("bucket", c.bucket), zap.Error(err))
		}
	}()

	obj, err := c.mc.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("%w: get: %v", storage.ErrProbeFailed, err)
	}
	defer obj.Close()

	got, err := io.ReadAll(obj)
	if err != nil {
		return fmt.Errorf("%w: read: %v", storage.ErrProbeFailed, err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: content mismatch", storage.ErrProbeFailed)
	}

	c.logger.Info("storage probe ok", zap.String("bucket", c.bucket))
	return nil
}

func mapErr(err error) error {
	if minio.ToErrorResponse(err).Code == noSuchKey {
		return storage.ErrNotFound
	}
	return err
}
