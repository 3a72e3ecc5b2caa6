package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 3 * time.Second
	userAgent          = "riveter-installer"
)

// ErrArtifactTooSmall flags a download below the tool's declared minimum
// size, the cheap proxy for a truncated or error-page response.
var ErrArtifactTooSmall = errors.New("downloaded artifact smaller than expected")

// DownloadError wraps a download that failed after all retry attempts.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Downloader fetches release assets with a bounded constant-interval
// retry policy shared by every network fetch.
type Downloader struct {
	Client      *http.Client
	MaxAttempts uint64
	RetryDelay  time.Duration
}

func NewDownloader() *Downloader {
	return &Downloader{
		Client:      &http.Client{Timeout: 10 * time.Minute},
		MaxAttempts: defaultMaxAttempts,
		RetryDelay:  defaultRetryDelay,
	}
}

// Download fetches url into dstFile. The partial file is removed on
// failure, including a failed minimum-size check.
func (d *Downloader) Download(ctx context.Context, url, dstFile string, minSize int64) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(d.RetryDelay), d.MaxAttempts-1),
		ctx,
	)

	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			log.WithFields(log.Fields{"url": url, "attempt": attempt}).Warn("Retrying download")
		}
		return d.downloadOnce(ctx, url, dstFile)
	}

	if err := backoff.Retry(operation, policy); err != nil {
		d.removePartial(dstFile)
		return &DownloadError{URL: url, Err: err}
	}

	info, err := os.Stat(dstFile)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	if minSize > 0 && info.Size() < minSize {
		d.removePartial(dstFile)
		return fmt.Errorf("%w: got %d bytes, expected at least %d from %s",
			ErrArtifactTooSmall, info.Size(), minSize, url)
	}

	log.WithFields(log.Fields{"url": url, "bytes": info.Size()}).Info("Downloaded artifact")
	return nil
}

func (d *Downloader) downloadOnce(ctx context.Context, url, dstFile string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Retrying a 404 only delays the inevitable.
		return backoff.Permanent(fmt.Errorf("unexpected HTTP status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}

	out, err := os.Create(dstFile)
	if err != nil {
		return backoff.Permanent(err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	return nil
}

func (d *Downloader) removePartial(dstFile string) {
	if err := os.Remove(dstFile); err != nil && !os.IsNotExist(err) {
		log.WithFields(log.Fields{"file": dstFile, "error": err}).Warn("Failed to remove partial download")
	}
}
