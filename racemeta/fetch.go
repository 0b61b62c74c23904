package racemeta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// retryable lists the statuses a sheet download may retry. Anything else fails.
var retryable = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
}

// StatusError is a non-2xx response from the sheet host.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: status %d", e.URL, e.Code)
}

// Fetcher downloads reference sheets.
type Fetcher struct {
	Client   *http.Client
	Attempts int
	Wait     time.Duration
	Logger   *zap.Logger
}

// NewFetcher returns a Fetcher with the default client.
func NewFetcher(attempts int, logger *zap.Logger) *Fetcher {
	if attempts < 1 {
		attempts = 1
	}
	return &Fetcher{
		Client:   http.DefaultClient,
		Attempts: attempts,
		Wait:     500 * time.Millisecond,
		Logger:   logger,
	}
}

// FetchTo downloads url into dir/name, replacing the file only after a complete
// download.
func (f *Fetcher) FetchTo(ctx context.Context, url, dir, name string) error {
	var body []byte
	var lastErr error
	for attempt := range f.Attempts {
		body, lastErr = f.get(ctx, url)
		if lastErr == nil {
			break
		}
		var se *StatusError
		if !errors.As(lastErr, &se) || !retryable[se.Code] {
			return lastErr
		}
		if attempt == f.Attempts-1 {
			break
		}
		f.Logger.Warn("sheet fetch retry",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Int("status", se.Code),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.Wait):
		}
	}
	if lastErr != nil {
		return lastErr
	}

	tmp, err := os.CreateTemp(dir, name+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}
