package fingerprint

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"gopkg.in/yaml.v3"

	"github.com/MOYARU/verid/internal/config"
	"github.com/MOYARU/verid/internal/versionid"
)

const maxDatabaseBytes = 256 << 20

var (
	ErrUnsupportedFormat = errors.New("unsupported fingerprint format")
	ErrInvalidS3URL      = errors.New("invalid s3 url")
)

// Loader reads collections from local files or S3-compatible storage.
type Loader struct {
	s3 config.S3Config
}

func NewLoader(s3 config.S3Config) *Loader {
	return &Loader{s3: s3}
}

// Load reads and validates the collection at location, which is either a
// filesystem path or s3://bucket/key. The format follows the extension:
// .json, .yaml or .yml, optionally followed by .gz.
func (l *Loader) Load(ctx context.Context, location string) (*versionid.Collection, error) {
	var (
		r   io.ReadCloser
		err error
	)
	if strings.HasPrefix(location, "s3://") {
		r, err = l.openS3(ctx, location)
	} else {
		r, err = os.Open(location)
	}
	if err != nil {
		return nil, fmt.Errorf("open fingerprints %s: %w", location, err)
	}
	defer r.Close()

	c, err := Decode(location, r)
	if err != nil {
		return nil, fmt.Errorf("load fingerprints %s: %w", location, err)
	}
	return c, nil
}

func (l *Loader) openS3(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3URL(location)
	if err != nil {
		return nil, err
	}
	if l.s3.Endpoint == "" {
		return nil, fmt.Errorf("%w: fingerprint.s3.endpoint is not set", ErrInvalidS3URL)
	}

	mc, err := minio.New(l.s3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(l.s3.AccessKey, l.s3.SecretKey, ""),
		Secure: l.s3.UseSSL,
		Region: l.s3.Region,
	})
	if err != nil {
		return nil, err
	}
	obj, err := mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// ParseS3URL splits s3://bucket/key/with/slashes.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidS3URL, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidS3URL, raw)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%w: missing object key in %s", ErrInvalidS3URL, raw)
	}
	return u.Host, key, nil
}

// Decode parses a collection, picking the codec from name's extension.
func Decode(name string, r io.Reader) (*versionid.Collection, error) {
	ext := strings.ToLower(path.Ext(name))
	if ext == ".gz" {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		r = zr
		ext = strings.ToLower(path.Ext(strings.TrimSuffix(name, path.Ext(name))))
	}

	raw, err := io.ReadAll(io.LimitReader(r, maxDatabaseBytes))
	if err != nil {
		return nil, err
	}

	var c versionid.Collection
	switch ext {
	case ".json":
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", versionid.ErrMalformedCollection, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", versionid.ErrMalformedCollection, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
