package objstore

import (
	"context"
	"io"
	"strconv"

	"github.com/minio/minio-go"
	"github.com/pkg/errors"
)

type minioBackend struct {
	client *minio.Client
}

func newMinio(options map[string]string) (*minioBackend, error) {
	err := checkOptions("minio", options, "endpoint", "access_key", "secret_key", "secure")
	if err != nil {
		return nil, err
	}

	endpoint := options["endpoint"]
	if endpoint == "" {
		return nil, errors.Wrap(ErrMissingOption, "minio: endpoint")
	}

	secure := true
	if raw, ok := options["secure"]; ok {
		secure, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.Wrap(err, "minio: secure")
		}
	}

	client, err := minio.New(endpoint, options["access_key"], options["secret_key"], secure)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create minio client")
	}

	return &minioBackend{client: client}, nil
}

func (b *minioBackend) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	_, err := b.client.PutObjectWithContext(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return errors.Wrap(err, "unable to put object")
	}

	return nil
}

func (b *minioBackend) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := b.client.GetObjectWithContext(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "unable to get object")
	}

	return obj, nil
}

func (b *minioBackend) Close() error { return nil }
