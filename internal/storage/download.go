package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
)

const downloadTimeout = 30 * time.Second

// mimeTypes maps file extensions of uploaded reports to MIME types.
// Unknown extensions default to application/pdf.
var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// MIMETypeFromURL infers the MIME type of a file URL from its extension
func MIMETypeFromURL(fileURL string) string {
	ext := strings.ToLower(path.Ext(fileURL))
	if mime, ok := mimeTypes[ext]; ok {
		return mime
	}
	return "application/pdf"
}

// HTTPDownloader fetches report file bytes by URL
type HTTPDownloader struct {
	client *http.Client
	logger *zap.Logger
}

// NewHTTPDownloader creates a downloader with a bounded timeout
func NewHTTPDownloader(logger *zap.Logger) *HTTPDownloader {
	return &HTTPDownloader{
		client: &http.Client{Timeout: downloadTimeout},
		logger: logger,
	}
}

// Download fetches the file at fileURL and returns its bytes along with
// the MIME type inferred from the URL extension
func (d *HTTPDownloader) Download(ctx context.Context, fileURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d downloading file", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file body: %w", err)
	}

	d.logger.Info("report file downloaded",
		zap.String("url", fileURL),
		zap.Int("size_bytes", len(data)),
	)

	return data, MIMETypeFromURL(fileURL), nil
}
