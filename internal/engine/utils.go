package engine

import (
	"compress/gzip"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"strings"
)

const maxDecodedBodyBytes = 4 << 20 // 4 MiB

var ErrUnsupportedHashAlgo = errors.New("unsupported hash algorithm")

type gzipBody struct {
	*gzip.Reader
	raw io.ReadCloser
}

func (b gzipBody) Close() error {
	_ = b.Reader.Close()
	return b.raw.Close()
}

// openBody returns the decoded body stream of resp. Closing it closes
// resp.Body.
func openBody(resp *http.Response) (io.ReadCloser, error) {
	if !strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		return resp.Body, nil
	}
	r, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	return gzipBody{Reader: r, raw: resp.Body}, nil
}

// DecodeResponseBody reads a possibly gzip-encoded body, truncated at 4 MiB.
// Only page content is read this way; reference files go through
// HashResponseBody.
func DecodeResponseBody(resp *http.Response) ([]byte, error) {
	body, err := openBody(resp)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	b, err := io.ReadAll(io.LimitReader(body, maxDecodedBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(b) > maxDecodedBodyBytes {
		b = b[:maxDecodedBodyBytes]
	}
	return b, nil
}

// HashResponseBody digests the complete decoded body of resp under algo.
// The body is streamed, so size is not limited.
func HashResponseBody(resp *http.Response, algo string) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}
	body, err := openBody(resp)
	if err != nil {
		return "", err
	}
	defer body.Close()

	if _, err := io.Copy(h, body); err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func newHash(algo string) (hash.Hash, error) {
	switch strings.ToUpper(strings.ReplaceAll(algo, "-", "")) {
	case "", "SHA256":
		return sha256.New(), nil
	case "SHA1":
		return sha1.New(), nil
	case "MD5":
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedHashAlgo, algo)
	}
}

// HashContent returns the lowercase hex digest of body under algo
// (SHA256, SHA1 or MD5; empty means SHA256).
func HashContent(algo string, body []byte) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil)), nil
}
