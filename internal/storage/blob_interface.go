package storage

import "context"

// BlobStorage defines the interface for report file storage operations.
// This interface allows for easier testing with mock implementations.
type BlobStorage interface {
	UploadFile(ctx context.Context, filename string, data []byte, contentType string) (blobName string, fileURL string, err error)
	DownloadFile(ctx context.Context, blobName string) ([]byte, error)
	DeleteFile(ctx context.Context, blobName string) error
}

// Ensure BlobClient implements BlobStorage interface
var _ BlobStorage = (*BlobClient)(nil)
