package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"synoptic/internal/constants"
	"synoptic/internal/logger"
	apperrors "synoptic/pkg/errors"
	"synoptic/pkg/models"
	"synoptic/pkg/retry"
)

// Fetcher downloads notification artifacts into a deterministic directory
// layout under the download root. It never retries; retry policy belongs
// to the caller.
type Fetcher struct {
	root   string
	client *http.Client
	logger logger.Logger
}

func New(root string, log logger.Logger) *Fetcher {
	return &Fetcher{
		root:   root,
		client: &http.Client{Timeout: constants.DefaultHTTPTimeout},
		logger: log,
	}
}

// LocalPath maps a notification to its artifact's storage path:
// {root}/{topic}/{YYYYMMDD}/{basename(url)}. The date segment is the UTC
// calendar date of the publication timestamp. Pure: the same topic, date
// and URL always produce the same path.
func LocalPath(root string, n models.Notification) (string, error) {
	pubTime, err := n.PublicationTime()
	if err != nil {
		return "", fmt.Errorf("invalid publication timestamp %q: %w", n.PublicationTimestamp, err)
	}

	name := basename(n.CanonicalURL)
	if name == "" {
		return "", fmt.Errorf("cannot derive file name from url %q", n.CanonicalURL)
	}

	dateDir := pubTime.UTC().Format("20060102")
	return filepath.Join(root, filepath.FromSlash(n.Topic), dateDir, name), nil
}

func basename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return path.Base(rawURL)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// Fetch GETs the canonical URL and writes the body verbatim to the local
// path, creating parent directories as needed. Duplicate notifications map
// to the same path and overwrite harmlessly. Errors retrying cannot heal,
// a malformed notification or a 4xx response, are marked fatal so the
// caller's retry policy skips them.
func (f *Fetcher) Fetch(ctx context.Context, n models.Notification) (string, error) {
	localPath, err := LocalPath(f.root, n)
	if err != nil {
		return "", apperrors.Wrap(retry.NewFatalError(err), apperrors.ErrFetch)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrFetch)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.CanonicalURL, nil)
	if err != nil {
		return "", apperrors.Wrap(retry.NewFatalError(err), apperrors.ErrFetch)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrFetch)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, n.CanonicalURL)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", apperrors.Wrap(retry.NewFatalError(statusErr), apperrors.ErrFetch)
		}
		return "", apperrors.Wrap(statusErr, apperrors.ErrFetch)
	}

	file, err := os.Create(localPath)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrFetch)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(localPath)
		return "", apperrors.Wrap(err, apperrors.ErrFetch)
	}

	if err := file.Close(); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrFetch)
	}

	f.logger.DebugwCtx(ctx, "artifact downloaded", "path", localPath)
	return localPath, nil
}
