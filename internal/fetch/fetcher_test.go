package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synoptic/internal/logger"
	apperrors "synoptic/pkg/errors"
	"synoptic/pkg/models"
	"synoptic/pkg/retry"
)

func isFatal(err error) bool {
	var fatal retry.FatalError
	return errors.As(err, &fatal)
}

func testNotification(url string) models.Notification {
	return models.Notification{
		Topic:                "wis2/ma-marocmeteo/data/core/weather/surface-based-observations/synop",
		PublicationTimestamp: "2024-03-01T06:00:00Z",
		DataID:               "wis2/ma-marocmeteo/data/core/60155.bufr4",
		CanonicalURL:         url,
	}
}

func TestLocalPath(t *testing.T) {
	n := testNotification("https://example.com/data/60155.bufr4")

	got, err := LocalPath("/downloads", n)
	require.NoError(t, err)

	want := filepath.Join(
		"/downloads",
		"wis2", "ma-marocmeteo", "data", "core", "weather", "surface-based-observations", "synop",
		"20240301",
		"60155.bufr4",
	)
	assert.Equal(t, want, got)
}

func TestLocalPath_Deterministic(t *testing.T) {
	n := testNotification("https://example.com/data/60155.bufr4")

	first, err := LocalPath("/downloads", n)
	require.NoError(t, err)
	second, err := LocalPath("/downloads", n)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLocalPath_DateSegmentIsUTC(t *testing.T) {
	n := testNotification("https://example.com/data/60155.bufr4")
	n.PublicationTimestamp = "2024-03-01T23:30:00-03:00"

	got, err := LocalPath("/downloads", n)
	require.NoError(t, err)

	assert.Contains(t, got, "20240302")
}

func TestLocalPath_InvalidTimestamp(t *testing.T) {
	n := testNotification("https://example.com/data/60155.bufr4")
	n.PublicationTimestamp = "N/A"

	_, err := LocalPath("/downloads", n)
	assert.Error(t, err)
}

func TestLocalPath_StripsQueryParameters(t *testing.T) {
	n := testNotification("https://example.com/data/60155.bufr4?token=abc")

	got, err := LocalPath("/downloads", n)
	require.NoError(t, err)

	assert.Equal(t, "60155.bufr4", filepath.Base(got))
}

func TestFetcher_Fetch(t *testing.T) {
	payload := []byte{0x42, 0x55, 0x46, 0x52, 0x00, 0x01}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	root := t.TempDir()
	f := New(root, logger.NopLogger())

	n := testNotification(server.URL + "/60155.bufr4")
	path, err := f.Fetch(context.Background(), n)
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, written)
}

func TestFetcher_Fetch_OverwritesExisting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("second"))
	}))
	defer server.Close()

	root := t.TempDir()
	f := New(root, logger.NopLogger())
	n := testNotification(server.URL + "/60155.bufr4")

	path, err := LocalPath(root, n)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("first"), 0o644))

	got, err := f.Fetch(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), written)
}

func TestFetcher_Fetch_ClientErrorStatusIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := New(t.TempDir(), logger.NopLogger())

	_, err := f.Fetch(context.Background(), testNotification(server.URL+"/missing.bufr4"))
	require.Error(t, err)
	assert.True(t, apperrors.IsFetch(err))
	assert.True(t, isFatal(err))
}

func TestFetcher_Fetch_ServerErrorStatusIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := New(t.TempDir(), logger.NopLogger())

	_, err := f.Fetch(context.Background(), testNotification(server.URL+"/60155.bufr4"))
	require.Error(t, err)
	assert.True(t, apperrors.IsFetch(err))
	assert.False(t, isFatal(err))
}

func TestFetcher_Fetch_InvalidTimestampIsFatal(t *testing.T) {
	f := New(t.TempDir(), logger.NopLogger())

	n := testNotification("https://example.com/60155.bufr4")
	n.PublicationTimestamp = "N/A"

	_, err := f.Fetch(context.Background(), n)
	require.Error(t, err)
	assert.True(t, apperrors.IsFetch(err))
	assert.True(t, isFatal(err))
}

func TestFetcher_Fetch_UnreachableHost(t *testing.T) {
	f := New(t.TempDir(), logger.NopLogger())

	_, err := f.Fetch(context.Background(), testNotification("http://127.0.0.1:1/60155.bufr4"))
	require.Error(t, err)
	assert.True(t, apperrors.IsFetch(err))
	assert.False(t, isFatal(err))
}
