package storefront

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"catalog-migrator/internal/components/telemetry/telemetrytest"

	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
	Form   map[string]string
	File   []byte
}

type fakeStorefront struct {
	t        testing.TB
	mu       sync.Mutex
	requests []recordedRequest
	handlers map[string]http.HandlerFunc
}

func newFakeStorefront(t testing.TB) (*fakeStorefront, *httptest.Server) {
	f := &fakeStorefront{t: t, handlers: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeStorefront) handle(method, path string, h http.HandlerFunc) {
	f.handlers[method+" "+path] = h
}

func (f *fakeStorefront) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
	}
	if strings.HasPrefix(r.Header.Get("content-type"), "multipart/form-data") {
		require.NoError(f.t, r.ParseMultipartForm(1<<20))
		rec.Form = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			rec.Form[k] = v[0]
		}
		file, _, err := r.FormFile("image")
		if err == nil {
			rec.File, _ = io.ReadAll(file)
			file.Close()
		}
	} else {
		body, _ := io.ReadAll(r.Body)
		rec.Body = string(body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	h, ok := f.handlers[r.Method+" "+r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func (f *fakeStorefront) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r.Method+" "+r.Path)
	}
	return out
}

func (f *fakeStorefront) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(f.t, f.requests)
	return f.requests[len(f.requests)-1]
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func csrfHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "tok%3D%3D", Path: "/"})
	w.WriteHeader(http.StatusNoContent)
}

func newTestSession(t testing.TB, baseUrl string) (*Session, *telemetrytest.Recorder) {
	tel := &telemetrytest.Recorder{}
	s, err := NewSession(Options{BaseUrl: baseUrl}, tel)
	require.NoError(t, err)
	return s, tel
}
