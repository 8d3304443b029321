package store

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCS keeps one object per key in a bucket, under an optional prefix.
type GCS struct {
	bucket *storage.BucketHandle
	prefix string
}

func NewGCS(client *storage.Client, bucket, prefix string) *GCS {
	return &GCS{bucket: client.Bucket(bucket), prefix: prefix}
}

func (g *GCS) Get(ctx context.Context, key string) ([]byte, bool, error) {
	r, err := g.bucket.Object(g.prefix + key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (g *GCS) Set(ctx context.Context, key string, value []byte) error {
	w := g.bucket.Object(g.prefix + key).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(value); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	err := g.bucket.Object(g.prefix + key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCS) Keys(ctx context.Context, prefix string) ([]string, error) {
	it := g.bucket.Objects(ctx, &storage.Query{Prefix: g.prefix + prefix})
	var keys []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, strings.TrimPrefix(attrs.Name, g.prefix))
	}
	sort.Strings(keys)
	return keys, nil
}

func (g *GCS) Clear(ctx context.Context) error {
	keys, err := g.Keys(ctx, "")
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := g.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
