package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MOYARU/verid/internal/config"
	appver "github.com/MOYARU/verid/internal/version"
	"github.com/MOYARU/verid/internal/versionid"
)

// DelayedTransport waits before every request; the wait ends early when the
// request context is cancelled.
type DelayedTransport struct {
	Transport http.RoundTripper
	Delay     time.Duration
}

func (t *DelayedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Delay > 0 {
		timer := time.NewTimer(t.Delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
	return baseOf(t.Transport).RoundTrip(req)
}

// Page is the body of one version-exposing page.
type Page struct {
	Path string
	URL  string
	Body []byte
}

// Fetcher downloads reference files and exposing pages from one site.
// Only 200 responses count; anything else is treated as not present.
type Fetcher struct {
	base        *url.URL
	client      *http.Client
	budget      *RequestBudgetTransport
	metrics     *MetricsTransport
	concurrency int
	maxFiles    int
	log         *logrus.Entry
}

// NewFetcher builds the shared client for target: budget, then domain
// boundary, then metrics, then delay, in front of the base transport.
func NewFetcher(target string, policy config.ScanPolicy, log *logrus.Entry) (*Fetcher, error) {
	base, err := NormalizeTarget(target)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	client := NewHTTPClient(ClientOptions{
		Timeout:         policy.Timeout,
		FollowRedirects: policy.FollowRedirects,
		InsecureTLS:     policy.InsecureTLS,
	})

	var rt http.RoundTripper = client.Transport
	if policy.Delay > 0 {
		rt = &DelayedTransport{Transport: rt, Delay: policy.Delay}
	}
	metrics := &MetricsTransport{Base: rt}
	rt = metrics
	if !policy.ActiveCrossDomain {
		rt = &DomainBoundaryTransport{Base: rt, AllowedRootDomain: RootDomain(base.Hostname())}
	}
	budget := &RequestBudgetTransport{Base: rt, Max: policy.RequestBudget}
	client.Transport = budget

	return &Fetcher{
		base:        base,
		client:      client,
		budget:      budget,
		metrics:     metrics,
		concurrency: max(policy.MaxConcurrency, 1),
		maxFiles:    policy.MaxFiles,
		log:         log.WithField("target", base.String()),
	}, nil
}

func (f *Fetcher) Base() *url.URL {
	u := *f.base
	return &u
}

func (f *Fetcher) Metrics() Metrics {
	return f.metrics.Snapshot()
}

// RequestsRemaining is the unspent request budget, or -1 when uncapped.
func (f *Fetcher) RequestsRemaining() int64 {
	return f.budget.Remaining()
}

// Resolve maps a collection path onto the target. Paths are always taken
// relative to the target's base, even with a leading slash, so installs in
// a subdirectory resolve correctly.
func (f *Fetcher) Resolve(path string) (*url.URL, error) {
	rel, err := url.Parse(strings.TrimLeft(strings.TrimSpace(path), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	return f.base.ResolveReference(rel), nil
}

// FetchFiles downloads paths and hashes every 200 body with algo. Bodies
// are hashed in full as they stream in. The result keeps the order of
// paths, which the consensus depends on. Only context cancellation is
// reported as an error; unreachable files are skipped.
func (f *Fetcher) FetchFiles(ctx context.Context, paths []string, algo string) ([]versionid.FetchedFile, error) {
	if _, err := newHash(algo); err != nil {
		return nil, err
	}
	if f.maxFiles > 0 && len(paths) > f.maxFiles {
		paths = paths[:f.maxFiles]
	}

	sums, ok, err := fetchAll(ctx, f, paths, func(resp *http.Response) (string, error) {
		return HashResponseBody(resp, algo)
	})
	if err != nil {
		return nil, err
	}

	files := make([]versionid.FetchedFile, 0, len(paths))
	for i, sum := range sums {
		if ok[i] {
			files = append(files, versionid.FetchedFile{Path: paths[i], Hash: sum})
		}
	}
	f.log.WithFields(logrus.Fields{"requested": len(paths), "fetched": len(files)}).Debug("reference files fetched")
	return files, nil
}

// FetchPages downloads the version-exposing pages, in order.
func (f *Fetcher) FetchPages(ctx context.Context, paths []string) ([]Page, error) {
	bodies, ok, err := fetchAll(ctx, f, paths, DecodeResponseBody)
	if err != nil {
		return nil, err
	}
	pages := make([]Page, 0, len(paths))
	for i, body := range bodies {
		if !ok[i] {
			continue
		}
		if body == nil {
			body = []byte{}
		}
		u, _ := f.Resolve(paths[i])
		pages = append(pages, Page{Path: paths[i], URL: u.String(), Body: body})
	}
	return pages, nil
}

// fetchAll runs a bounded worker pool over paths, handing every 200
// response to read. ok[i] is false when paths[i] was not fetched with a 200
// or read failed.
func fetchAll[T any](ctx context.Context, f *Fetcher, paths []string, read func(*http.Response) (T, error)) ([]T, []bool, error) {
	results := make([]T, len(paths))
	ok := make([]bool, len(paths))
	if len(paths) == 0 {
		return results, ok, nil
	}

	var (
		wg         sync.WaitGroup
		budgetOnce sync.Once
	)
	jobs := make(chan int)
	workers := min(f.concurrency, len(paths))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				v, found, err := get(ctx, f, paths[i], read)
				switch {
				case errors.Is(err, ErrRequestBudgetExceeded):
					budgetOnce.Do(func() {
						f.log.Warn("request budget exhausted, remaining paths skipped")
					})
				case err != nil:
					f.log.WithError(err).WithField("path", paths[i]).Debug("fetch failed")
				case found:
					results[i], ok[i] = v, true
				}
			}
		}()
	}

feed:
	for i := range paths {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return results, ok, nil
}

func get[T any](ctx context.Context, f *Fetcher, path string, read func(*http.Response) (T, error)) (T, bool, error) {
	var zero T
	u, err := f.Resolve(path)
	if err != nil {
		return zero, false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return zero, false, err
	}
	req.Header.Set("User-Agent", appver.UserAgent())
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := f.client.Do(req)
	if err != nil {
		return zero, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return zero, false, nil
	}
	v, err := read(resp)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// NormalizeTarget turns user input into a base URL ending in "/".
// Scheme-less input defaults to https.
func NormalizeTarget(raw string) (*url.URL, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return nil, fmt.Errorf("target is empty")
	}
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http/https allowed)", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("invalid target URL: missing host")
	}

	u.RawQuery = ""
	u.Fragment = ""
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawPath = ""
	return u, nil
}
