package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/de-tools/tlf-atlas/pkg/dataset"
	"github.com/rs/zerolog"
)

// GetObjectAPI is the part of the S3 client the fetcher needs.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher downloads s3:// objects into a local cache directory. Objects already in the
// cache are not downloaded again.
type Fetcher struct {
	client   GetObjectAPI
	cacheDir string
}

func NewFetcher(client GetObjectAPI, cacheDir string) *Fetcher {
	return &Fetcher{client: client, cacheDir: cacheDir}
}

// IsRemote reports whether path is an s3:// URI.
func IsRemote(path string) bool {
	return strings.HasPrefix(strings.ToLower(path), "s3://")
}

// Fetch returns the local path holding the object at uri.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (string, error) {
	bucket, key, err := parseURI(uri)
	if err != nil {
		return "", err
	}

	local := filepath.Join(f.cacheDir, bucket, filepath.FromSlash(key))
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return local, nil
	}

	logger := zerolog.Ctx(ctx)
	logger.Info().Str("uri", uri).Str("path", local).Msg("downloading dataset")

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: awssdk.String(bucket),
		Key:    awssdk.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return "", fmt.Errorf("%w: %s", dataset.ErrFileNotFound, uri)
		}
		return "", fmt.Errorf("failed to get %s: %w", uri, err)
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(local), ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, out.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to download %s: %w", uri, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), local); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", uri, err)
	}
	return local, nil
}

func parseURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 uri %q: %w", uri, err)
	}
	if !strings.EqualFold(u.Scheme, "s3") || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q: expected s3://bucket/key", uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q: missing object key", uri)
	}
	return u.Host, key, nil
}

// TableLoader reads a local dataset file.
type TableLoader interface {
	Load(ctx context.Context, path string) (*dataset.Table, error)
}

// Loader downloads s3:// datasets before handing them to the wrapped loader. Local
// paths pass straight through.
type Loader struct {
	fetcher *Fetcher
	next    TableLoader
}

func NewLoader(fetcher *Fetcher, next TableLoader) *Loader {
	return &Loader{fetcher: fetcher, next: next}
}

func (l *Loader) Load(ctx context.Context, path string) (*dataset.Table, error) {
	if !IsRemote(path) {
		return l.next.Load(ctx, path)
	}
	local, err := l.fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	return l.next.Load(ctx, local)
}
