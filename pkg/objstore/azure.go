package objstore

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/pkg/errors"
)

type azureBackend struct {
	client    *azblob.Client
	chunkSize int
}

func newAzure(options map[string]string, chunkSize int) (*azureBackend, error) {
	err := checkOptions("az", options, "connection_string", "account_name", "account_key", "account_url")
	if err != nil {
		return nil, err
	}

	var client *azblob.Client
	switch {
	case options["connection_string"] != "":
		client, err = azblob.NewClientFromConnectionString(options["connection_string"], nil)
	case options["account_name"] != "" && options["account_key"] != "":
		var cred *azblob.SharedKeyCredential
		cred, err = azblob.NewSharedKeyCredential(options["account_name"], options["account_key"])
		if err != nil {
			return nil, errors.Wrap(err, "unable to create azure credential")
		}
		serviceURL := options["account_url"]
		if serviceURL == "" {
			serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", options["account_name"])
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	case options["account_url"] != "":
		client, err = azblob.NewClientWithNoCredential(options["account_url"], nil)
	default:
		return nil, errors.Wrap(ErrMissingOption, "az: connection_string, account_name with account_key, or account_url")
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to create azure client")
	}

	return &azureBackend{client: client, chunkSize: chunkSize}, nil
}

func (b *azureBackend) Put(ctx context.Context, container, blob string, r io.Reader, _ int64) error {
	_, err := b.client.UploadStream(ctx, container, blob, r, &azblob.UploadStreamOptions{
		BlockSize: int64(b.chunkSize),
	})
	if err != nil {
		return errors.Wrap(err, "unable to upload blob")
	}

	return nil
}

func (b *azureBackend) Get(ctx context.Context, container, blob string) (io.ReadCloser, error) {
	resp, err := b.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to download blob")
	}

	return resp.Body, nil
}

func (b *azureBackend) Close() error { return nil }
