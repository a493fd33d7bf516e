package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/localrivet/textsummarizer/internal/errortypes"
)

// DefaultDownloadTimeout bounds a single archive download.
const DefaultDownloadTimeout = 30 * time.Minute

// Downloader fetches url into dest and returns the number of bytes written.
type Downloader interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

// HTTPDownloader performs a single unauthenticated GET. There are no retries
// and no resume support.
type HTTPDownloader struct {
	httpClient *http.Client
}

// NewHTTPDownloader creates a downloader with the given timeout
// (DefaultDownloadTimeout when zero).
func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	return &HTTPDownloader{httpClient: &http.Client{Timeout: timeout}}
}

// Download implements Downloader. The body is written to a temporary file
// next to dest and renamed into place once complete.
func (d *HTTPDownloader) Download(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errortypes.NetworkError(err, "error creating request").WithField("url", url)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, errortypes.NetworkError(err, "error downloading archive").WithField("url", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, errortypes.NetworkError(fmt.Errorf("HTTP %d", resp.StatusCode), "error downloading archive").
			WithField("url", url)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, errortypes.IOError(err, "failed to create download directory").WithField("path", dest)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".part-*")
	if err != nil {
		return 0, errortypes.IOError(err, "failed to create download file").WithField("path", dest)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return 0, errortypes.NetworkError(err, "error reading archive body").WithField("url", url)
	}
	if err := tmp.Close(); err != nil {
		return 0, errortypes.IOError(err, "failed to write archive").WithField("path", dest)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, errortypes.IOError(err, "failed to move archive into place").WithField("path", dest)
	}
	return n, nil
}
