package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"go.uber.org/zap"
)

// BlobClient wraps Azure Blob Storage for uploaded report files
type BlobClient struct {
	client        *azblob.Client
	accountName   string
	containerName string
	logger        *zap.Logger
}

// NewBlobClient creates a new Azure Blob Storage client for report files
func NewBlobClient(accountName, accountKey, containerName string, logger *zap.Logger) (*BlobClient, error) {
	if accountName == "" || accountKey == "" || containerName == "" {
		return nil, fmt.Errorf("accountName, accountKey, and containerName are required")
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)

	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared key credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &BlobClient{
		client:        client,
		accountName:   accountName,
		containerName: containerName,
		logger:        logger,
	}, nil
}

// UploadFile uploads a report file and returns its blob path and a
// durable retrievable URL
func (c *BlobClient) UploadFile(ctx context.Context, filename string, data []byte, contentType string) (string, string, error) {
	c.logger.Info("uploading report file to blob storage",
		zap.String("filename", filename),
		zap.Int("size_bytes", len(data)),
	)

	blobName := fmt.Sprintf("reports/%s", filename)

	blobClient := c.client.ServiceClient().NewContainerClient(c.containerName).NewBlockBlobClient(blobName)

	_, err := blobClient.UploadBuffer(ctx, data, &azblob.UploadBufferOptions{
		Metadata: map[string]*string{
			"contenttype": toPtr(contentType),
		},
	})
	if err != nil {
		c.logger.Error("failed to upload report file",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return "", "", fmt.Errorf("failed to upload report file: %w", err)
	}

	fileURL := fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", c.accountName, c.containerName, blobName)

	c.logger.Info("report file uploaded successfully",
		zap.String("blob_name", blobName),
	)

	return blobName, fileURL, nil
}

// DownloadFile downloads a report file by blob path
func (c *BlobClient) DownloadFile(ctx context.Context, blobName string) ([]byte, error) {
	c.logger.Info("downloading report file from blob storage",
		zap.String("blob_name", blobName),
	)

	blobClient := c.client.ServiceClient().NewContainerClient(c.containerName).NewBlockBlobClient(blobName)

	downloadResponse, err := blobClient.DownloadStream(ctx, nil)
	if err != nil {
		c.logger.Error("failed to download report file",
			zap.String("blob_name", blobName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to download report file: %w", err)
	}
	defer downloadResponse.Body.Close()

	data, err := io.ReadAll(downloadResponse.Body)
	if err != nil {
		c.logger.Error("failed to read report file data",
			zap.String("blob_name", blobName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to read report file data: %w", err)
	}

	return data, nil
}

// DeleteFile removes a report file by blob path
func (c *BlobClient) DeleteFile(ctx context.Context, blobName string) error {
	blobClient := c.client.ServiceClient().NewContainerClient(c.containerName).NewBlockBlobClient(blobName)

	if _, err := blobClient.Delete(ctx, nil); err != nil {
		c.logger.Error("failed to delete report file",
			zap.String("blob_name", blobName),
			zap.Error(err),
		)
		return fmt.Errorf("failed to delete report file: %w", err)
	}

	c.logger.Info("report file deleted",
		zap.String("blob_name", blobName),
	)

	return nil
}

// toPtr is a helper function to convert a value to a pointer
func toPtr(s string) *string {
	return &s
}
