package migrate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"catalog-migrator/internal/components/telemetry/telemetrytest"
	"catalog-migrator/internal/storefront"
	"catalog-migrator/internal/transfer"

	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type upload struct {
	Path     string
	Form     map[string]string
	Filename string
	File     []byte
}

// harness runs a migrator against a fake storefront and a fake source site. It
// keeps a single ordered log of storefront requests, source downloads and
// sleeps so tests can assert on the interleaving.
type harness struct {
	t testing.TB

	mu       sync.Mutex
	events   []string
	uploads  []upload
	created  []storefront.ProductPayload
	handlers map[string]http.HandlerFunc

	store  *httptest.Server
	source *httptest.Server
	tel    *telemetrytest.Recorder
	out    bytes.Buffer
}

func newHarness(t testing.TB) *harness {
	h := &harness{
		t:        t,
		handlers: map[string]http.HandlerFunc{},
		tel:      &telemetrytest.Recorder{},
	}
	h.store = httptest.NewServer(http.HandlerFunc(h.serveStorefront))
	t.Cleanup(h.store.Close)
	h.source = httptest.NewServer(http.HandlerFunc(h.serveSource))
	t.Cleanup(h.source.Close)

	h.handle("GET /sanctum/csrf-cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "tok", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})
	h.handle("POST /api/login", jsonHandler(http.StatusOK, `{"user":{"id":1}}`))
	h.handle("GET /api/public/products", jsonHandler(http.StatusOK, `{"data":[]}`))
	h.handle("GET /api/public/categories", jsonHandler(http.StatusOK, `[]`))
	return h
}

func (h *harness) handle(route string, fn http.HandlerFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[route] = fn
}

func (h *harness) record(event string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *harness) Events() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

func (h *harness) Uploads() []upload {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]upload(nil), h.uploads...)
}

func (h *harness) serveStorefront(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path
	h.record(route)

	if strings.HasPrefix(r.Header.Get("content-type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			h.t.Errorf("parse multipart form: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		up := upload{Path: r.URL.Path, Form: map[string]string{}}
		for k, v := range r.MultipartForm.Value {
			up.Form[k] = v[0]
		}
		file, header, err := r.FormFile("image")
		if err == nil {
			up.Filename = header.Filename
			up.File, _ = io.ReadAll(file)
			file.Close()
		}
		h.mu.Lock()
		h.uploads = append(h.uploads, up)
		h.mu.Unlock()
	}
	if route == "POST /api/admin/products" {
		var payload storefront.ProductPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			h.t.Errorf("decode product payload: %v", err)
		}
		h.mu.Lock()
		h.created = append(h.created, payload)
		h.mu.Unlock()
	}

	h.mu.Lock()
	fn, ok := h.handlers[route]
	h.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	fn(w, r)
}

// serveSource answers every path with a png except for paths containing
// "missing".
func (h *harness) serveSource(w http.ResponseWriter, r *http.Request) {
	h.record("download " + r.URL.Path)
	if strings.Contains(r.URL.Path, "missing") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("content-type", "image/png")
	w.Write(pngBytes)
}

func (h *harness) image(path string) string {
	return h.source.URL + path
}

func (h *harness) Now() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (h *harness) Sleep(ctx context.Context, d time.Duration) error {
	h.record("sleep " + d.String())
	return ctx.Err()
}

func (h *harness) migrator(opts Options) *Migrator {
	session, err := storefront.NewSession(storefront.Options{BaseUrl: h.store.URL}, h.tel)
	require.NoError(h.t, err)
	downloader, err := transfer.NewDownloader(transfer.DownloaderOptions{
		SourceUrl: h.source.URL,
		Timeout:   5 * time.Second,
		Mode:      transfer.Streamed,
	}, h.tel)
	require.NoError(h.t, err)

	return New(Params{
		Storefront:  session,
		Downloader:  downloader,
		Credentials: storefront.Credentials{Email: "admin@example.com", Password: "hunter2"},
		Chrono:      h,
		Tel:         h.tel,
		Out:         &h.out,
		Options:     opts,
	})
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func productsHandler(products ...storefront.Product) http.HandlerFunc {
	body, _ := json.Marshal(map[string]any{"data": products})
	return jsonHandler(http.StatusOK, string(body))
}

// createdHandler answers product creation with increasing ids starting at first.
func createdHandler(first int) http.HandlerFunc {
	var mu sync.Mutex
	next := first
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		id := next
		next++
		mu.Unlock()
		jsonHandler(http.StatusCreated, fmt.Sprintf(`{"id":%d}`, id))(w, r)
	}
}

var loginEvents = []string{"GET /sanctum/csrf-cookie", "POST /api/login"}

func (h *harness) Created() []storefront.ProductPayload {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]storefront.ProductPayload(nil), h.created...)
}
