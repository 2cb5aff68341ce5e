package storage

import (
	"context"
	"fmt"
	"strings"
)

const gcsScheme = "gs://"

// Sink stores downloaded image bytes under a file name and returns where
// they ended up.
type Sink interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// Target is a parsed download destination: a local directory or a GCS
// bucket with an optional object prefix.
type Target struct {
	Dir    string
	Bucket string
	Prefix string
}

func (t Target) IsGCS() bool { return t.Bucket != "" }

func (t Target) String() string {
	if t.IsGCS() {
		return gcsScheme + t.Bucket + "/" + t.Prefix
	}
	return t.Dir
}

// ParseTarget reads "gs://bucket/prefix" as a GCS target and anything else as
// a local directory.
func ParseTarget(out string) (Target, error) {
	if !strings.HasPrefix(out, gcsScheme) {
		if out == "" {
			return Target{}, fmt.Errorf("download target cannot be empty")
		}
		return Target{Dir: out}, nil
	}

	rest := strings.TrimPrefix(out, gcsScheme)
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Target{}, fmt.Errorf("missing bucket in %q", out)
	}
	return Target{Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
}

// Open builds the sink for target. The returned close func releases any
// client the sink holds.
func Open(ctx context.Context, target Target, credentialsFile string) (Sink, func() error, error) {
	if !target.IsGCS() {
		return NewLocalStorage(target.Dir), func() error { return nil }, nil
	}

	gcs, err := NewGCSStorage(ctx, target.Bucket, target.Prefix, credentialsFile)
	if err != nil {
		return nil, nil, err
	}
	return gcs, gcs.Close, nil
}
