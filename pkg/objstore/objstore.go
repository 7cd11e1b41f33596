// Package objstore uploads and reads back objects addressed by <scheme>://<bucket>/<key> URIs.
package objstore

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrInvalidURI    = errors.New("invalid object uri")
	ErrUnknownScheme = errors.New("unknown storage scheme")
	ErrUnknownOption = errors.New("unknown storage option")
	ErrMissingOption = errors.New("missing storage option")
)

// Schemes lists the supported URI schemes.
var Schemes = []string{"az", "gs", "memory", "minio", "s3"}

// Location is a parsed object URI.
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

func (l Location) String() string {
	return l.Scheme + "://" + l.Bucket + "/" + l.Key
}

// ParseURI splits uri into scheme, bucket and key. All three must be present.
func ParseURI(uri string) (Location, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok || scheme == "" {
		return Location{}, errors.Wrapf(ErrInvalidURI, "%q has no scheme", uri)
	}
	if !slices.Contains(Schemes, scheme) {
		return Location{}, errors.Wrap(ErrUnknownScheme, scheme)
	}

	bucket, key, _ := strings.Cut(rest, "/")
	key = strings.TrimLeft(key, "/")
	if bucket == "" || key == "" {
		return Location{}, errors.Wrapf(ErrInvalidURI, "%q needs a bucket and a key", uri)
	}

	return Location{Scheme: scheme, Bucket: bucket, Key: key}, nil
}

// Join appends key to a bucket address such as s3://bucket or s3://bucket/prefix.
func Join(bucketAddress, key string) (Location, error) {
	return ParseURI(strings.TrimRight(bucketAddress, "/") + "/" + strings.TrimLeft(key, "/"))
}

// Backend stores objects for one scheme.
type Backend interface {
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Close() error
}

// Opener returns the backend serving scheme, configured from options.
type Opener func(ctx context.Context, scheme string, options map[string]string) (Backend, error)

// NewOpener returns an Opener whose backends stream uploads in chunks of chunkSize bytes where
// the service supports it. The memory scheme always resolves to the process-wide Memory store.
func NewOpener(chunkSize int) Opener {
	return func(ctx context.Context, scheme string, options map[string]string) (Backend, error) {
		return Open(ctx, scheme, options, chunkSize)
	}
}

// Open builds the backend for scheme.
func Open(ctx context.Context, scheme string, options map[string]string, chunkSize int) (Backend, error) {
	switch scheme {
	case "s3":
		return newS3(ctx, options, chunkSize)
	case "minio":
		return newMinio(options)
	case "gs":
		return newGCS(ctx, options, chunkSize)
	case "az":
		return newAzure(options, chunkSize)
	case "memory":
		if err := checkOptions(scheme, options); err != nil {
			return nil, err
		}

		return Memory, nil
	default:
		return nil, errors.Wrap(ErrUnknownScheme, scheme)
	}
}

func checkOptions(scheme string, options map[string]string, allowed ...string) error {
	var unknown []string
	for k := range options {
		if !slices.Contains(allowed, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)

		return errors.Wrapf(ErrUnknownOption, "%s: %s", scheme, strings.Join(unknown, ", "))
	}

	return nil
}
