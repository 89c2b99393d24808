package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/teamcutter/simple-extract/internal/domain"
)

type HTTPFetcher struct {
	client    *http.Client
	outputDir string
	timeout   time.Duration
	logger    *slog.Logger
	progress  io.Writer
}

type Option func(*HTTPFetcher)

// WithClient replaces the default client; its timeout is left untouched.
func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *HTTPFetcher) { f.logger = l }
}

// WithProgress renders a download progress bar to w.
func WithProgress(w io.Writer) Option {
	return func(f *HTTPFetcher) { f.progress = w }
}

// New returns a fetcher writing partial downloads into outputDir.
func New(outputDir string, timeout time.Duration, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		outputDir: outputDir,
		timeout:   timeout,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *HTTPFetcher) ShouldFetch(rawURL, localPath string, force bool) domain.FetchDecision {
	d := ShouldFetch(rawURL, localPath, force)
	f.logger.Debug("fetch decision", "url", rawURL, "path", localPath, "force", force, "decision", d)
	return d
}

// ShouldFetch skips the download when a regular file already exists at
// localPath, unless force is set. There is no checksum to re-validate.
func ShouldFetch(rawURL, localPath string, force bool) domain.FetchDecision {
	if force {
		return domain.Fetch
	}
	if info, err := os.Stat(localPath); err == nil && info.Mode().IsRegular() {
		return domain.Skip
	}
	return domain.Fetch
}

// LocalName derives the file name a URL is stored under: its last path
// segment, URL-decoded.
func LocalName(rawURL string) (string, error) {
	invalid := func(err error) error {
		return &domain.FetchError{Kind: domain.InvalidURL, URL: rawURL, Err: err}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", invalid(err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", invalid(errors.New("missing scheme or host"))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", invalid(fmt.Errorf("unsupported scheme %q", u.Scheme))
	}

	name, err := url.PathUnescape(path.Base(u.EscapedPath()))
	if err != nil {
		return "", invalid(err)
	}
	if name == "" || name == "." || name == ".." || name == "/" || strings.ContainsAny(name, `/\`) {
		return "", invalid(errors.New("no file name in url path"))
	}
	return name, nil
}

// Fetch downloads rawURL into a temporary file in the output directory and
// returns its path. The body must match the advertised Content-Length; on any
// failure the temporary file is removed.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) domain.FetchResult {
	fail := func(kind domain.FetchErrorKind, err error) domain.FetchResult {
		return domain.FetchResult{URL: rawURL, Error: &domain.FetchError{Kind: kind, URL: rawURL, Err: err}}
	}

	name, err := LocalName(rawURL)
	if err != nil {
		return domain.FetchResult{URL: rawURL, Error: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fail(domain.InvalidURL, err)
	}

	f.logger.Info("fetching archive", "url", rawURL)
	resp, err := f.client.Do(req)
	if err != nil {
		if strings.Contains(err.Error(), "bad Content-Length") {
			return fail(domain.LengthMismatch, err)
		}
		return fail(domain.NetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.FetchResult{URL: rawURL, Error: &domain.FetchError{
			Kind:       domain.HTTPStatusError,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
		}}
	}

	expected, err := contentLength(resp)
	if err != nil {
		return fail(domain.LengthMismatch, err)
	}

	if err := os.MkdirAll(f.outputDir, 0755); err != nil {
		return domain.FetchResult{URL: rawURL, Error: err}
	}

	file, err := os.CreateTemp(f.outputDir, "."+name+".part-*")
	if err != nil {
		return domain.FetchResult{URL: rawURL, Error: err}
	}
	tmp := file.Name()

	var w io.Writer = file
	if f.progress != nil {
		w = io.MultiWriter(file, f.bar(expected, name))
	}

	body := &trackingReader{r: resp.Body}
	written, copyErr := io.Copy(w, body)
	closeErr := file.Close()

	switch {
	case body.err != nil && expected >= 0 && errors.Is(body.err, io.ErrUnexpectedEOF):
		os.Remove(tmp)
		return domain.FetchResult{URL: rawURL, Error: &domain.FetchError{
			Kind: domain.LengthMismatch, URL: rawURL, Expected: expected, Written: written,
		}}
	case body.err != nil:
		os.Remove(tmp)
		return fail(domain.NetworkError, body.err)
	case copyErr != nil:
		os.Remove(tmp)
		return domain.FetchResult{URL: rawURL, Error: fmt.Errorf("write %s: %w", name, copyErr)}
	case closeErr != nil:
		os.Remove(tmp)
		return domain.FetchResult{URL: rawURL, Error: fmt.Errorf("write %s: %w", name, closeErr)}
	case expected >= 0 && written != expected:
		os.Remove(tmp)
		return domain.FetchResult{URL: rawURL, Error: &domain.FetchError{
			Kind: domain.LengthMismatch, URL: rawURL, Expected: expected, Written: written,
		}}
	}

	f.logger.Info("fetched archive", "url", rawURL, "size", humanize.Bytes(uint64(written)))
	return domain.FetchResult{URL: rawURL, Path: tmp, Size: written}
}

func (f *HTTPFetcher) bar(size int64, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(f.progress),
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", name)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(f.progress, "\n")
		}),
	)
}

// contentLength returns the advertised body length, or -1 when none was sent.
func contentLength(resp *http.Response) (int64, error) {
	raw := strings.TrimSpace(resp.Header.Get("Content-Length"))
	if raw == "" {
		return resp.ContentLength, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return -1, fmt.Errorf("invalid Content-Length %q", raw)
	}
	if n < 0 {
		return -1, fmt.Errorf("negative Content-Length %d", n)
	}
	return n, nil
}

// trackingReader remembers the read error so network failures can be told
// apart from local write failures after io.Copy.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}
