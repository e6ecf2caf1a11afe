// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/peng-hpc/runanalysis/analyzer"
)

// An FS stores exported documents by name.
type FS interface {
	// NewWriter returns a Writer for the object name. The metadata
	// is attached to the object if the FS supports it.
	NewWriter(ctx context.Context, name string, metadata map[string]string) (Writer, error)
}

// A Writer writes one object. The object is complete only after Close
// returns nil. CloseWithError abandons it.
type Writer interface {
	io.Writer
	Close() error
	CloseWithError(error) error
}

// Store writes doc to fs as the JSON object "results/<name>.json" and,
// with text, the text summary "results/<name>.txt". It returns the
// names of the stored objects.
func Store(ctx context.Context, fs FS, name string, doc *analyzer.Document, text bool) ([]string, error) {
	meta := map[string]string{
		"name": name,
		"jobs": fmt.Sprint(len(doc.Jobs)),
	}
	var stored []string
	put := func(obj string, write func(w io.Writer) error) error {
		fw, err := fs.NewWriter(ctx, obj, meta)
		if err != nil {
			return err
		}
		if err := write(fw); err != nil {
			fw.CloseWithError(err)
			return fmt.Errorf("%s: %w", obj, err)
		}
		if err := fw.Close(); err != nil {
			return fmt.Errorf("%s: %w", obj, err)
		}
		stored = append(stored, obj)
		return nil
	}
	if err := put("results/"+name+".json", func(w io.Writer) error { return WriteJSON(w, doc) }); err != nil {
		return stored, err
	}
	if text {
		if err := put("results/"+name+".txt", func(w io.Writer) error { return WriteText(w, doc) }); err != nil {
			return stored, err
		}
	}
	return stored, nil
}

// GCS is an FS backed by a Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// NewGCS returns a GCS for bucket. If credentialsFile is empty, the
// application default credentials are used.
func NewGCS(ctx context.Context, bucket, credentialsFile string) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCS{client: client, bucket: client.Bucket(bucket)}, nil
}

// Close closes the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}

func (g *GCS) NewWriter(ctx context.Context, name string, metadata map[string]string) (Writer, error) {
	ctx, cancel := context.WithCancel(ctx)
	w := g.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType(name)
	w.Metadata = metadata
	return &gcsWriter{w, cancel}, nil
}

type gcsWriter struct {
	*storage.Writer
	cancel context.CancelFunc
}

func (w *gcsWriter) Close() error {
	defer w.cancel()
	return w.Writer.Close()
}

// CloseWithError cancels the upload, so the object is never created.
func (w *gcsWriter) CloseWithError(err error) error {
	w.cancel()
	w.Writer.Close()
	return nil
}

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".json":
		return "application/json"
	case ".html":
		return "text/html; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// DirFS is an FS that stores objects as files below a directory.
// Metadata is written to a ".meta" file next to each object.
type DirFS string

func (d DirFS) NewWriter(ctx context.Context, name string, metadata map[string]string) (Writer, error) {
	path := filepath.Join(string(d), filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return nil, err
	}
	return &dirWriter{path: path, meta: metadata}, nil
}

type dirWriter struct {
	path string
	meta map[string]string
	buf  bytes.Buffer
}

func (w *dirWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *dirWriter) Close() error {
	if err := os.WriteFile(w.path, w.buf.Bytes(), 0666); err != nil {
		return err
	}
	keys := make([]string, 0, len(w.meta))
	for k := range w.meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var meta bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&meta, "%s: %s\n", k, w.meta[k])
	}
	return os.WriteFile(w.path+".meta", meta.Bytes(), 0666)
}

func (w *dirWriter) CloseWithError(error) error {
	w.buf.Reset()
	return nil
}
