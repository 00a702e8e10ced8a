// Package assets reads the inputs of a section run: the template PDF, fonts, decorative
// images and user photos. A Source resolves a reference to bytes; Router picks a Source
// by the reference's scheme.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// ErrNotFound is returned when a reference does not resolve to an object.
var ErrNotFound = errors.New("assets: not found")

// ErrTooLarge is returned when a fetched body exceeds the source's size limit.
var ErrTooLarge = errors.New("assets: response too large")

// DefaultMaxBytes caps a single HTTP download.
const DefaultMaxBytes = 32 << 20

// Source reads the asset named by ref.
type Source interface {
	Open(ctx context.Context, ref string) ([]byte, error)
}

// FileSource reads from the local filesystem. Relative references resolve against Root.
type FileSource struct {
	Root string
}

func (s FileSource) Open(ctx context.Context, ref string) ([]byte, error) {
	p := strings.TrimPrefix(ref, "file://")
	if !filepath.IsAbs(p) && s.Root != "" {
		p = filepath.Join(s.Root, p)
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ref, err)
	}
	return data, nil
}

// HTTPSource fetches http and https URLs. Bodies larger than MaxBytes are rejected;
// zero means DefaultMaxBytes.
type HTTPSource struct {
	Client   *http.Client
	MaxBytes int64
}

// NewHTTPSource returns an HTTPSource with a bounded per-request timeout and size.
func NewHTTPSource() HTTPSource {
	return HTTPSource{Client: &http.Client{Timeout: 30 * time.Second}, MaxBytes: DefaultMaxBytes}
}

func (s HTTPSource) Open(ctx context.Context, ref string) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", ref, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %s", ref, resp.Status)
	}
	limit := s.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if resp.ContentLength > limit {
		return nil, fmt.Errorf("%s: %d bytes: %w", ref, resp.ContentLength, ErrTooLarge)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", ref, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: more than %d bytes: %w", ref, limit, ErrTooLarge)
	}
	return data, nil
}

// GCSSource reads gs://bucket/object references.
type GCSSource struct {
	Client *storage.Client
}

func (s GCSSource) Open(ctx context.Context, ref string) ([]byte, error) {
	bucket, object, err := ParseGCSURI(ref)
	if err != nil {
		return nil, err
	}
	r, err := s.Client.Bucket(bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for %s: %w", ref, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ref, err)
	}
	return data, nil
}

// ParseGCSURI splits gs://bucket/object.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// uri: %q", uri)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("gs uri %q must name a bucket and an object", uri)
	}
	return bucket, object, nil
}

// Router dispatches on the reference scheme. References without a scheme go to Local.
type Router struct {
	Local Source
	HTTP  Source
	GCS   Source
}

func (r Router) Open(ctx context.Context, ref string) ([]byte, error) {
	var src Source
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		src = r.HTTP
	case strings.HasPrefix(ref, "gs://"):
		src = r.GCS
	default:
		src = r.Local
	}
	if src == nil {
		return nil, fmt.Errorf("no source configured for %q", ref)
	}
	return src.Open(ctx, ref)
}
