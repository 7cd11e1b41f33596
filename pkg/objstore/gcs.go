package objstore

import (
	"context"
	"io"
	"strconv"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

type gcsBackend struct {
	client    *storage.Client
	chunkSize int
}

func newGCS(ctx context.Context, options map[string]string, chunkSize int) (*gcsBackend, error) {
	err := checkOptions("gs", options, "credentials_file", "endpoint", "anonymous")
	if err != nil {
		return nil, err
	}

	var clientOptions []option.ClientOption
	if path := options["credentials_file"]; path != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(path))
	}
	if endpoint := options["endpoint"]; endpoint != "" {
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}
	if raw, ok := options["anonymous"]; ok {
		anonymous, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.Wrap(err, "gs: anonymous")
		}
		if anonymous {
			clientOptions = append(clientOptions, option.WithoutAuthentication())
		}
	}

	client, err := storage.NewClient(ctx, clientOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create gcs client")
	}

	return &gcsBackend{client: client, chunkSize: chunkSize}, nil
}

func (b *gcsBackend) Put(ctx context.Context, bucket, key string, r io.Reader, _ int64) error {
	w := b.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ChunkSize = b.chunkSize

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()

		return errors.Wrap(err, "unable to write object")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "unable to finalize object")
	}

	return nil
}

func (b *gcsBackend) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	rd, err := b.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read object")
	}

	return rd, nil
}

func (b *gcsBackend) Close() error {
	return errors.Wrap(b.client.Close(), "unable to close gcs client")
}
