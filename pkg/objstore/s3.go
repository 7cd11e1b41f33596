package objstore

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
)

// minPartSize is the smallest part S3 accepts for every part but the last.
const minPartSize = 5 << 20

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, in *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

type s3Backend struct {
	client   s3API
	partSize int64
}

func newS3(ctx context.Context, options map[string]string, chunkSize int) (*s3Backend, error) {
	err := checkOptions("s3", options, "region", "endpoint_url", "aws_access_key_id", "aws_secret_access_key", "aws_session_token")
	if err != nil {
		return nil, err
	}

	var loadOptions []func(*awsconfig.LoadOptions) error
	if region := options["region"]; region != "" {
		loadOptions = append(loadOptions, awsconfig.WithRegion(region))
	}
	if keyID := options["aws_access_key_id"]; keyID != "" {
		creds := credentials.NewStaticCredentialsProvider(keyID, options["aws_secret_access_key"], options["aws_session_token"])
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(creds))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load aws config")
	}

	endpoint := options["endpoint_url"]
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Backend{client: client, partSize: max(int64(chunkSize), minPartSize)}, nil
}

// Put sends objects up to one part in a single request and larger ones as a multipart upload.
func (b *s3Backend) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	if size > b.partSize {
		return b.putMultipart(ctx, bucket, key, r)
	}

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return errors.Wrap(err, "unable to put object")
	}

	return nil
}

func (b *s3Backend) putMultipart(ctx context.Context, bucket, key string, r io.Reader) error {
	created, err := b.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.Wrap(err, "unable to create multipart upload")
	}

	parts, err := b.uploadParts(ctx, bucket, key, created.UploadId, r)
	if err == nil {
		_, err = b.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
			Bucket:          aws.String(bucket),
			Key:             aws.String(key),
			UploadId:        created.UploadId,
			MultipartUpload: &types.CompletedMultipartUpload{Parts: parts},
		})
		err = errors.Wrap(err, "unable to complete multipart upload")
	}
	if err != nil {
		_, abortErr := b.client.AbortMultipartUpload(context.WithoutCancel(ctx), &s3.AbortMultipartUploadInput{
			Bucket:   aws.String(bucket),
			Key:      aws.String(key),
			UploadId: created.UploadId,
		})
		if abortErr != nil {
			return errors.Wrapf(err, "abort failed: %v", abortErr)
		}

		return err
	}

	return nil
}

func (b *s3Backend) uploadParts(ctx context.Context, bucket, key string, uploadID *string, r io.Reader) ([]types.CompletedPart, error) {
	var parts []types.CompletedPart

	buf := make([]byte, b.partSize)
	for number := int32(1); ; number++ {
		n, err := io.ReadFull(r, buf)
		if errors.Is(err, io.EOF) {
			return parts, nil
		}
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errors.Wrapf(err, "unable to read part %d", number)
		}

		out, upErr := b.client.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(key),
			UploadId:      uploadID,
			PartNumber:    aws.Int32(number),
			Body:          bytes.NewReader(buf[:n]),
			ContentLength: aws.Int64(int64(n)),
		})
		if upErr != nil {
			return nil, errors.Wrapf(upErr, "unable to upload part %d", number)
		}
		parts = append(parts, types.CompletedPart{ETag: out.ETag, PartNumber: aws.Int32(number)})

		if errors.Is(err, io.ErrUnexpectedEOF) {
			return parts, nil
		}
	}
}

func (b *s3Backend) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to get object")
	}

	return out.Body, nil
}

func (b *s3Backend) Close() error { return nil }
