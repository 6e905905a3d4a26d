package storage

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// MockBlobClient is an in-memory implementation of BlobStorage for testing
type MockBlobClient struct {
	Storage map[string][]byte
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMockBlobClient creates a new mock blob storage client
func NewMockBlobClient(logger *zap.Logger) *MockBlobClient {
	return &MockBlobClient{
		Storage: make(map[string][]byte),
		logger:  logger,
	}
}

// UploadFile stores a report file in memory
func (c *MockBlobClient) UploadFile(ctx context.Context, filename string, data []byte, contentType string) (string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	blobName := fmt.Sprintf("reports/%s", filename)
	c.Storage[blobName] = bytes.Clone(data)

	if c.logger != nil {
		c.logger.Info("mock: report file uploaded",
			zap.String("blob_name", blobName),
			zap.String("content_type", contentType),
			zap.Int("size_bytes", len(data)),
		)
	}

	fileURL := fmt.Sprintf("https://mock.blob.local/%s", blobName)

	return blobName, fileURL, nil
}

// DownloadFile retrieves a report file from memory
func (c *MockBlobClient) DownloadFile(ctx context.Context, blobName string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, exists := c.Storage[blobName]
	if !exists {
		return nil, fmt.Errorf("blob not found: %s", blobName)
	}

	return bytes.Clone(data), nil
}

// DeleteFile removes a report file from memory
func (c *MockBlobClient) DeleteFile(ctx context.Context, blobName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.Storage[blobName]; !exists {
		return fmt.Errorf("blob not found: %s", blobName)
	}

	delete(c.Storage, blobName)

	return nil
}

// Clear removes all data from in-memory storage
func (c *MockBlobClient) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Storage = make(map[string][]byte)
}

// Ensure MockBlobClient implements BlobStorage interface
var _ BlobStorage = (*MockBlobClient)(nil)
