package transfer

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"catalog-migrator/internal/components/telemetry/telemetrytest"

	"github.com/stretchr/testify/require"
)

var imageBody = bytes.Repeat([]byte("0123456789abcdef"), 4096)

func newSourceSite(t testing.TB) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-content/uploads/flag.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "image/jpeg")
		w.Write(imageBody)
	})
	mux.HandleFunc("/missing.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/truncated.jpg", func(w http.ResponseWriter, r *http.Request) {
		// promise more than is sent so the client sees an unexpected EOF
		w.Header().Set("content-length", strconv.Itoa(len(imageBody)*2))
		w.Write(imageBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestDownloader(t testing.TB, sourceUrl string, mode Mode) (*Downloader, *telemetrytest.Recorder) {
	tel := &telemetrytest.Recorder{}
	d, err := NewDownloader(DownloaderOptions{
		SourceUrl: sourceUrl,
		Timeout:   5 * time.Second,
		Mode:      mode,
	}, tel)
	require.NoError(t, err)
	return d, tel
}

func listDir(t testing.TB, dir string) []string {
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestDownloadModes(t *testing.T) {
	srv := newSourceSite(t)

	for _, mode := range []Mode{Streamed, Buffered} {
		dir := t.TempDir()
		dest := filepath.Join(dir, "flag.jpg")

		d, _ := newTestDownloader(t, srv.URL, mode)
		err := d.Download(context.Background(), srv.URL+"/wp-content/uploads/flag.jpg", dest)
		require.NoError(t, err, mode.String())

		contents, err := os.ReadFile(dest)
		require.NoError(t, err)
		require.Equal(t, imageBody, contents, mode.String())
		require.Equal(t, []string{"flag.jpg"}, listDir(t, dir), mode.String())
	}
}

func TestDownloadResolvesRelativeUrls(t *testing.T) {
	srv := newSourceSite(t)
	d, _ := newTestDownloader(t, srv.URL, Buffered)

	resolved, err := d.ResolveUrl("/wp-content/uploads/flag.jpg")
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/wp-content/uploads/flag.jpg", resolved)

	resolved, err = d.ResolveUrl("https://cdn.example.com/a.jpg")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/a.jpg", resolved)

	dest := filepath.Join(t.TempDir(), "flag.jpg")
	require.NoError(t, d.Download(context.Background(), "/wp-content/uploads/flag.jpg", dest))
}

func TestDownloadFailuresLeaveNothingBehind(t *testing.T) {
	srv := newSourceSite(t)

	for _, mode := range []Mode{Streamed, Buffered} {
		d, tel := newTestDownloader(t, srv.URL, mode)

		dir := t.TempDir()
		err := d.Download(context.Background(), "/missing.jpg", filepath.Join(dir, "missing.jpg"))
		require.ErrorIs(t, err, ErrDownloadFailed)
		var downloadErr *DownloadError
		require.True(t, errors.As(err, &downloadErr))
		require.Equal(t, http.StatusNotFound, downloadErr.Status)

		err = d.Download(context.Background(), "/truncated.jpg", filepath.Join(dir, "truncated.jpg"))
		require.Error(t, err, mode.String())

		require.Empty(t, listDir(t, dir), mode.String())
		require.Len(t, tel.Find("warning", report_downloader_download), 2)
	}
}

func TestDownloadNetworkError(t *testing.T) {
	srv := newSourceSite(t)
	url := srv.URL
	srv.Close()

	d, _ := newTestDownloader(t, url, Streamed)
	dir := t.TempDir()
	err := d.Download(context.Background(), "/wp-content/uploads/flag.jpg", filepath.Join(dir, "flag.jpg"))
	require.ErrorIs(t, err, ErrDownloadFailed)
	require.Empty(t, listDir(t, dir))
}

func TestDownloadKeepsExistingFileOnFailure(t *testing.T) {
	srv := newSourceSite(t)
	d, _ := newTestDownloader(t, srv.URL, Streamed)

	dest := filepath.Join(t.TempDir(), "flag.jpg")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0600))

	err := d.Download(context.Background(), "/truncated.jpg", dest)
	require.Error(t, err)

	contents, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, []byte("old"), contents)
}
