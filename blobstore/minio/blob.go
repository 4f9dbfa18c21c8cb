package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/minio/minio-go/v7"
)

var (
	errWriterClosed  = errors.New("minio: writer closed")
	errUploadAborted = errors.New("minio: upload aborted")
)

type blob struct {
	client *minio.Client
	bucket string
	key    string
	size   int64
}

func (b *blob) Size() int64 { return b.size }

func (b *blob) Close() error { return nil }

// get opens the inclusive byte range [off, end].
func (b *blob) get(ctx context.Context, off, end int64) (*minio.Object, error) {
	var opts minio.GetObjectOptions
	if err := opts.SetRange(off, end); err != nil {
		return nil, err
	}
	obj, err := b.client.GetObject(ctx, b.bucket, b.key, opts)
	if err != nil {
		return nil, fmt.Errorf("minio: get %s [%d,%d]: %w", b.key, off, end, err)
	}
	return obj, nil
}

func (b *blob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= b.size {
		return 0, io.EOF
	}

	end := min(off+int64(len(p)), b.size) - 1
	obj, err := b.get(ctx, off, end)
	if err != nil {
		return 0, err
	}
	defer func() { _ = obj.Close() }()

	want := int(end - off + 1)
	n, err := io.ReadFull(obj, p[:want])
	if err != nil {
		return n, err
	}
	if want < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *blob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || off >= b.size {
		return nil, io.EOF
	}
	return b.get(ctx, off, min(off+length, b.size)-1)
}

// writer feeds a background PutObject through a pipe.
type writer struct {
	pw     *io.PipeWriter
	cancel context.CancelFunc
	done   chan error
	closed atomic.Bool
}

func newWriter(ctx context.Context, client *minio.Client, bucket, key string, opts minio.PutObjectOptions) *writer {
	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()
	w := &writer{pw: pw, cancel: cancel, done: make(chan error, 1)}

	go func() {
		_, err := client.PutObject(ctx, bucket, key, pr, -1, opts)
		if err != nil {
			err = fmt.Errorf("minio: upload %s: %w", key, err)
		}
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w
}

func (w *writer) Write(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, errWriterClosed
	}
	return w.pw.Write(p)
}

func (w *writer) Sync() error { return nil }

// Close finishes the upload and waits for it.
func (w *writer) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return errWriterClosed
	}
	defer w.cancel()

	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}

// Abort discards the upload; nothing becomes visible.
func (w *writer) Abort() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = w.pw.CloseWithError(errUploadAborted)
	w.cancel()
	<-w.done
	return nil
}
