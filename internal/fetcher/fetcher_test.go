package fetcher_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamcutter/simple-extract/internal/domain"
	"github.com/teamcutter/simple-extract/internal/fetcher"
)

func fetchErr(t *testing.T, err error, kind domain.FetchErrorKind) *domain.FetchError {
	t.Helper()
	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, kind, fe.Kind, "error: %v", fe)
	return fe
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestShouldFetch(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "pkg.zip")
	require.NoError(t, os.WriteFile(existing, []byte("zip"), 0644))

	cases := []struct {
		name  string
		path  string
		force bool
		want  domain.FetchDecision
	}{
		{name: "existing file is reused", path: existing, want: domain.Skip},
		{name: "force always fetches", path: existing, force: true, want: domain.Fetch},
		{name: "missing file is fetched", path: filepath.Join(dir, "other.zip"), want: domain.Fetch},
		{name: "missing file forced", path: filepath.Join(dir, "other.zip"), force: true, want: domain.Fetch},
		{name: "directory is not a cached copy", path: dir, want: domain.Fetch},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, fetcher.ShouldFetch("https://example.com/pkg.zip", tc.path, tc.force))
		})
	}
}

func TestLocalName(t *testing.T) {
	cases := map[string]string{
		"https://example.com/pkg.zip":                  "pkg.zip",
		"https://example.com/a/b/pkg-1.0.tar.gz":       "pkg-1.0.tar.gz",
		"http://example.com/files/my%20archive.tar.xz": "my archive.tar.xz",
		"https://example.com/pkg.zip?token=abc#frag":   "pkg.zip",
	}
	for in, want := range cases {
		got, err := fetcher.LocalName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
}

func TestLocalNameInvalid(t *testing.T) {
	for _, in := range []string{
		"example.com/pkg.zip",
		"https:///pkg.zip",
		"ftp://example.com/pkg.zip",
		"https://example.com/",
		"https://example.com",
		"https://example.com/a%2Fb.zip",
		"https://example.com/%zz.zip",
		"://broken",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := fetcher.LocalName(in)
			fetchErr(t, err, domain.InvalidURL)
		})
	}
}

func TestFetchSuccess(t *testing.T) {
	body := strings.Repeat("archive-bytes-", 1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dl/pkg.zip", r.URL.Path)
		io.WriteString(w, body)
	}))
	defer srv.Close()

	dir := t.TempDir()
	var progress bytes.Buffer
	f := fetcher.New(dir, 5*time.Second, fetcher.WithProgress(&progress))

	res := f.Fetch(context.Background(), srv.URL+"/dl/pkg.zip")
	require.NoError(t, res.Error)
	assert.Equal(t, int64(len(body)), res.Size)
	assert.Equal(t, dir, filepath.Dir(res.Path))

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
	assert.Contains(t, progress.String(), "Downloading pkg.zip")
}

func TestFetchHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	dir := t.TempDir()
	res := fetcher.New(dir, 5*time.Second).Fetch(context.Background(), srv.URL+"/pkg.zip")
	fe := fetchErr(t, res.Error, domain.HTTPStatusError)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.Contains(t, fe.Error(), "404")
	assertEmptyDir(t, dir)
}

func TestFetchTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		io.WriteString(w, "only a few bytes")
	}))
	defer srv.Close()

	dir := t.TempDir()
	res := fetcher.New(dir, 5*time.Second).Fetch(context.Background(), srv.URL+"/pkg.zip")
	fe := fetchErr(t, res.Error, domain.LengthMismatch)
	assert.Equal(t, int64(1000), fe.Expected)
	assert.Empty(t, res.Path)
	assertEmptyDir(t, dir)
}

type stubTransport struct {
	header string
	body   string
	length int64
}

func (s stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	h := http.Header{}
	if s.header != "" {
		h.Set("Content-Length", s.header)
	}
	return &http.Response{
		StatusCode:    http.StatusOK,
		Header:        h,
		Body:          io.NopCloser(strings.NewReader(s.body)),
		ContentLength: s.length,
		Request:       req,
	}, nil
}

func TestFetchContentLengthHeader(t *testing.T) {
	cases := []struct {
		name   string
		header string
		body   string
		length int64
		want   *domain.FetchErrorKind
	}{
		{name: "non numeric", header: "abc", body: "data", length: -1, want: ptr(domain.LengthMismatch)},
		{name: "negative", header: "-5", body: "data", length: -1, want: ptr(domain.LengthMismatch)},
		{name: "too large", header: "10", body: "data", length: 10, want: ptr(domain.LengthMismatch)},
		{name: "too small", header: "2", body: "data", length: 2, want: ptr(domain.LengthMismatch)},
		{name: "matching", header: "4", body: "data", length: 4},
		{name: "absent", body: "data", length: -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			client := &http.Client{Transport: stubTransport{header: tc.header, body: tc.body, length: tc.length}}
			res := fetcher.New(dir, time.Second, fetcher.WithClient(client)).Fetch(context.Background(), "https://example.com/pkg.zip")

			if tc.want != nil {
				fetchErr(t, res.Error, *tc.want)
				assertEmptyDir(t, dir)
				return
			}
			require.NoError(t, res.Error)
			data, err := os.ReadFile(res.Path)
			require.NoError(t, err)
			assert.Equal(t, tc.body, string(data))
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	dir := t.TempDir()
	res := fetcher.New(dir, 2*time.Second).Fetch(context.Background(), addr+"/pkg.zip")
	fetchErr(t, res.Error, domain.NetworkError)
	assertEmptyDir(t, dir)
}

func TestFetchInvalidURL(t *testing.T) {
	res := fetcher.New(t.TempDir(), time.Second).Fetch(context.Background(), "https:///pkg.zip")
	fetchErr(t, res.Error, domain.InvalidURL)
}
