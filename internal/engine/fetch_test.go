package engine

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MOYARU/verid/internal/config"
)

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(bytes.NewBuffer(nil))
	return logrus.NewEntry(l)
}

func policy() config.ScanPolicy {
	p := config.DefaultScanPolicy()
	p.Timeout = 5 * time.Second
	return p
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/blog/readme.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("readme 1.0"))
	})
	mux.HandleFunc("/blog/wp-includes/js/a.js", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("console.log(1)"))
	})
	mux.HandleFunc("/blog/style.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		zw := gzip.NewWriter(w)
		_, _ = zw.Write([]byte("body{}"))
		_ = zw.Close()
	})
	mux.HandleFunc("/blog/forbidden.js", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchFilesKeepsOrderAndSkipsMissing(t *testing.T) {
	srv := newSite(t)
	f, err := NewFetcher(srv.URL+"/blog", policy(), quietLog())
	require.NoError(t, err)

	paths := []string{"style.css", "missing.js", "/readme.html", "forbidden.js", "wp-includes/js/a.js"}
	files, err := f.FetchFiles(context.Background(), paths, "SHA256")
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, "style.css", files[0].Path)
	assert.Equal(t, sha("body{}"), files[0].Hash)
	assert.Equal(t, "/readme.html", files[1].Path)
	assert.Equal(t, sha("readme 1.0"), files[1].Hash)
	assert.Equal(t, "wp-includes/js/a.js", files[2].Path)

	m := f.Metrics()
	assert.Equal(t, int64(5), m.Requests)
	assert.Equal(t, int64(3), m.Statuses[http.StatusOK])
	assert.Equal(t, int64(1), m.Statuses[http.StatusNotFound])
	assert.Equal(t, int64(-1), f.RequestsRemaining())
}

func TestFetchFilesHashesBodiesLargerThanPageCap(t *testing.T) {
	big := bytes.Repeat([]byte("x"), maxDecodedBodyBytes+1)
	mux := http.NewServeMux()
	mux.HandleFunc("/big.js", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(big)
	})
	mux.HandleFunc("/big.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		zw := gzip.NewWriter(w)
		_, _ = zw.Write(big)
		_ = zw.Close()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f, err := NewFetcher(srv.URL, policy(), quietLog())
	require.NoError(t, err)

	files, err := f.FetchFiles(context.Background(), []string{"big.js", "big.css"}, "SHA256")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, sha(string(big)), files[0].Hash)
	assert.Equal(t, sha(string(big)), files[1].Hash)

	pages, err := f.FetchPages(context.Background(), []string{"big.js"})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Len(t, pages[0].Body, maxDecodedBodyBytes)
}

func TestFetchFilesHonoursMaxFilesAndAlgo(t *testing.T) {
	srv := newSite(t)
	p := policy()
	p.MaxFiles = 1
	f, err := NewFetcher(srv.URL+"/blog/", p, quietLog())
	require.NoError(t, err)

	files, err := f.FetchFiles(context.Background(), []string{"readme.html", "style.css"}, "md5")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Len(t, files[0].Hash, 32)

	_, err = f.FetchFiles(context.Background(), []string{"readme.html"}, "crc32")
	assert.ErrorIs(t, err, ErrUnsupportedHashAlgo)
}

func TestFetchFilesStopsAtRequestBudget(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	p := policy()
	p.RequestBudget = 2
	p.MaxConcurrency = 1
	f, err := NewFetcher(srv.URL, p, quietLog())
	require.NoError(t, err)

	files, err := f.FetchFiles(context.Background(), []string{"a", "b", "c", "d"}, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Equal(t, int64(2), hits.Load())
	assert.Equal(t, int64(0), f.RequestsRemaining())
}

func TestFetchPages(t *testing.T) {
	srv := newSite(t)
	f, err := NewFetcher(srv.URL+"/blog", policy(), quietLog())
	require.NoError(t, err)

	pages, err := f.FetchPages(context.Background(), []string{"readme.html", "feed/"})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "readme 1.0", string(pages[0].Body))
	assert.Equal(t, srv.URL+"/blog/readme.html", pages[0].URL)
}

func TestFetchCancelled(t *testing.T) {
	srv := newSite(t)
	p := policy()
	p.Delay = time.Second
	f, err := NewFetcher(srv.URL+"/blog", p, quietLog())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.FetchFiles(ctx, []string{"readme.html"}, "")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNormalizeTarget(t *testing.T) {
	tests := map[string]string{
		"example.com":                      "https://example.com/",
		"http://example.com/blog":          "http://example.com/blog/",
		" https://example.com/wp/?p=1#top": "https://example.com/wp/",
		"example.com:8443/site":            "https://example.com:8443/site/",
	}
	for in, want := range tests {
		u, err := NormalizeTarget(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, u.String())
	}

	for _, bad := range []string{"", "ftp://example.com", "https://"} {
		_, err := NormalizeTarget(bad)
		assert.Error(t, err, bad)
	}
}

func TestResolveStaysUnderBase(t *testing.T) {
	f, err := NewFetcher("https://example.com/blog", policy(), quietLog())
	require.NoError(t, err)

	for in, want := range map[string]string{
		"/":                     "https://example.com/blog/",
		"wp-login.php":          "https://example.com/blog/wp-login.php",
		"/wp-includes/js/wp.js": "https://example.com/blog/wp-includes/js/wp.js",
		"feed/":                 "https://example.com/blog/feed/",
	} {
		u, err := f.Resolve(in)
		require.NoError(t, err)
		assert.Equal(t, want, u.String())
	}
	assert.Equal(t, "https://example.com/blog/", f.Base().String())
}
