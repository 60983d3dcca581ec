package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	apperrors "go-skin-inspector/internal/errors"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureBlobSource reads azblob://<container>/<blob> references from one
// storage account.
type AzureBlobSource struct {
	client *azblob.Client
}

// NewAzureBlobSource creates a blob source with shared key credentials. An
// empty serviceURL selects the public endpoint of the account.
func NewAzureBlobSource(accountName, accountKey, serviceURL string) (*AzureBlobSource, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure storage credentials: %w", err)
	}

	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure blob client: %w", err)
	}

	return &AzureBlobSource{client: client}, nil
}

// Open streams the referenced blob.
func (s *AzureBlobSource) Open(ctx context.Context, ref *url.URL) (io.ReadCloser, error) {
	containerName, blobName, err := parseBlobRef(ref)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, apperrors.NewNotFoundError("blob not found", err)
		}
		return nil, apperrors.NewExternalServiceError("blob download failed", err)
	}
	return resp.Body, nil
}

func parseBlobRef(ref *url.URL) (string, string, error) {
	if ref == nil || !strings.EqualFold(ref.Scheme, "azblob") {
		return "", "", apperrors.NewValidationError("not a blob reference", nil)
	}
	blobName := strings.TrimPrefix(ref.Path, "/")
	if ref.Host == "" || blobName == "" {
		return "", "", apperrors.NewValidationError("blob reference must be azblob://<container>/<blob>", nil)
	}
	return ref.Host, blobName, nil
}
