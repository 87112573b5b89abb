// Package transfer moves images from the source site to local scratch storage.
//
// Downloads are written to a temp file next to the destination and renamed into
// place once complete, so a failed download never leaves a partial file behind.
//
// Memory use depends on Mode: Streamed copies the body through a fixed 8 KiB
// buffer, Buffered holds the whole body in memory before writing it.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"catalog-migrator/internal/components/assert"
	"catalog-migrator/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const (
	report_downloader_download = "downloader.download"
)

const chunkSize = 8192

type Mode int

const (
	Streamed Mode = iota
	Buffered
)

func (m Mode) String() string {
	switch m {
	case Streamed:
		return "streamed"
	case Buffered:
		return "buffered"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

var ErrDownloadFailed = errors.New("download failed")

// DownloadError is returned when the source answers with anything but 200.
type DownloadError struct {
	Url    string
	Status int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("%s: %s: status %d", ErrDownloadFailed, e.Url, e.Status)
}

func (e *DownloadError) Unwrap() error {
	return ErrDownloadFailed
}

type DownloaderOptions struct {
	// SourceUrl is the origin relative image urls are resolved against.
	SourceUrl string
	Timeout   time.Duration
	Mode      Mode
}

type Downloader struct {
	base *url.URL
	mode Mode
	http *resty.Client
	tel  telemetry.API
}

func NewDownloader(opts DownloaderOptions, tel telemetry.API) (*Downloader, error) {
	assert.NotNil(tel, "telemetry")
	assert.Positive(opts.Timeout, "download timeout")
	tel = telemetry.NewScopedAPI("transfer", tel)

	base, err := url.Parse(opts.SourceUrl)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("user-agent", "catalog-migrator/1.0")
	telemetry.InstrumentResty(client, tel)

	return &Downloader{
		base: base,
		mode: opts.Mode,
		http: client,
		tel:  tel,
	}, nil
}

// ResolveUrl turns a possibly relative image reference into an absolute url on
// the source site.
func (d *Downloader) ResolveUrl(raw string) (string, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	return d.base.ResolveReference(ref).String(), nil
}

// Download fetches rawUrl into dest. Every failure is returned as an error,
// callers decide whether it is worth more than a log line.
func (d *Downloader) Download(ctx context.Context, rawUrl, dest string) error {
	link, err := d.ResolveUrl(rawUrl)
	if err != nil {
		d.tel.ReportWarning(report_downloader_download, rawUrl, err)
		return fmt.Errorf("%w: %s: %w", ErrDownloadFailed, rawUrl, err)
	}

	switch d.mode {
	case Buffered:
		err = d.downloadBuffered(ctx, link, dest)
	default:
		err = d.downloadStreamed(ctx, link, dest)
	}
	if err != nil {
		d.tel.ReportWarning(report_downloader_download, link, err)
		return err
	}

	d.tel.ReportDebug(report_downloader_download, link, dest, d.mode.String())
	return nil
}

func (d *Downloader) downloadStreamed(ctx context.Context, link, dest string) error {
	res, err := d.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(link)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDownloadFailed, link, err)
	}
	body := res.RawBody()
	defer body.Close()

	if res.StatusCode() != http.StatusOK {
		return &DownloadError{Url: link, Status: res.StatusCode()}
	}

	return writeAtomic(dest, func(w io.Writer) error {
		_, err := io.CopyBuffer(w, body, make([]byte, chunkSize))
		return err
	})
}

func (d *Downloader) downloadBuffered(ctx context.Context, link, dest string) error {
	res, err := d.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDownloadFailed, link, err)
	}
	if res.StatusCode() != http.StatusOK {
		return &DownloadError{Url: link, Status: res.StatusCode()}
	}

	return writeAtomic(dest, func(w io.Writer) error {
		_, err := w.Write(res.Body())
		return err
	})
}

// writeAtomic writes to a temp file in dest's directory and renames it over dest
// only when fill succeeded.
func writeAtomic(dest string, fill func(w io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	err = fill(tmp)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", ErrDownloadFailed, dest, err)
	}
	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	err = os.Rename(tmp.Name(), dest)
	if err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
