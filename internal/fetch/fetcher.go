// Package fetch downloads the survey export into a local cache file.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNetworkFailure is returned once every download attempt has failed.
var ErrNetworkFailure = errors.New("network failure")

// DownloadHook is called at the start of every download attempt.
type DownloadHook func(url, path string, attempt int)

// Fetcher keeps a local copy of a remote file.
type Fetcher struct {
	client     *http.Client
	retry      RetryConfig
	onRetry    RetryHook
	onDownload DownloadHook
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithRetryConfig replaces the default retry policy.
func WithRetryConfig(config RetryConfig) Option {
	return func(f *Fetcher) {
		f.retry = config
	}
}

// WithRetryHook registers a callback invoked before each wait between attempts.
func WithRetryHook(hook RetryHook) Option {
	return func(f *Fetcher) {
		f.onRetry = hook
	}
}

// WithDownloadHook registers a callback invoked when an attempt starts.
func WithDownloadHook(hook DownloadHook) Option {
	return func(f *Fetcher) {
		f.onDownload = hook
	}
}

// New creates a Fetcher with DefaultRetryConfig and a 30 second HTTP timeout.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		retry:  DefaultRetryConfig(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// EnsureLocal downloads url to localPath unless localPath already exists. Any
// existing file is trusted as is, whatever its age or content. It reports
// whether a download happened.
//
// The body is written to a temporary file next to localPath and moved into
// place only once complete, so failed attempts never leave a partial file.
func (f *Fetcher) EnsureLocal(ctx context.Context, url, localPath string) (bool, error) {
	_, err := os.Stat(localPath)
	if err == nil {
		log.Debug().Str("path", localPath).Msg("Using cached data file")
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking %s: %w", localPath, err)
	}

	retrier := NewRetrier(f.retry, f.onRetry)
	err = retrier.Execute(ctx, func(attempt int) error {
		if f.onDownload != nil {
			f.onDownload(url, localPath, attempt)
		}
		return f.download(ctx, url, localPath)
	})
	if err != nil {
		if ctx.Err() != nil {
			return false, fmt.Errorf("fetching %s: %w", url, ctx.Err())
		}
		return false, fmt.Errorf("%w: fetching %s: %w", ErrNetworkFailure, url, err)
	}

	log.Info().Str("url", url).Str("path", localPath).Msg("Downloaded data file")
	return true, nil
}

func (f *Fetcher) download(ctx context.Context, url, localPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return NewRetryableError(fmt.Errorf("building request: %w", err), false)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return NewRetryableError(err, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return NewRetryableError(fmt.Errorf("unexpected status %s", resp.Status), true)
	}

	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NewRetryableError(fmt.Errorf("creating %s: %w", dir, err), true)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(localPath)+".*.part")
	if err != nil {
		return NewRetryableError(fmt.Errorf("creating temporary file: %w", err), true)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return NewRetryableError(fmt.Errorf("reading body: %w", err), true)
	}
	if err := tmp.Close(); err != nil {
		return NewRetryableError(fmt.Errorf("writing %s: %w", tmpName, err), true)
	}
	if err := os.Rename(tmpName, localPath); err != nil {
		return NewRetryableError(fmt.Errorf("moving download to %s: %w", localPath, err), true)
	}
	tmpName = ""

	return nil
}
