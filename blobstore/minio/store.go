package minio

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/hupe1980/fatfs/blobstore"
	"github.com/hupe1980/fatfs/internal/hash"
	"github.com/minio/minio-go/v7"
)

// imageContentType marks raw device images and snapshots.
const imageContentType = "application/octet-stream"

// Store implements blobstore.BlobStore on a MinIO (or S3-compatible) bucket.
type Store struct {
	client *minio.Client
	bucket string
	opts   options
}

var _ blobstore.BlobStore = (*Store)(nil)

type options struct {
	prefix   string
	partSize uint64
	checksum bool
}

// Option configures NewStore.
type Option func(*options)

// WithPrefix prepends prefix to every object key.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithPartSize sets the multipart part size for streamed uploads. Zero lets
// the client pick.
func WithPartSize(n uint64) Option {
	return func(o *options) {
		o.partSize = n
	}
}

// WithChecksum stores a CRC32C of every Put payload in the object metadata.
func WithChecksum() Option {
	return func(o *options) {
		o.checksum = true
	}
}

// NewStore wraps an existing client.
func NewStore(client *minio.Client, bucket string, optFns ...Option) *Store {
	var opts options
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{client: client, bucket: bucket, opts: opts}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("minio: bucket %s: %w", s.bucket, err)
	}
	if ok {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("minio: make bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *Store) key(name string) string {
	return path.Join(s.opts.prefix, name)
}

// name is the inverse of key for listed objects.
func (s *Store) name(key string) string {
	return strings.TrimPrefix(strings.TrimPrefix(key, s.opts.prefix), "/")
}

func (s *Store) putOptions() minio.PutObjectOptions {
	return minio.PutObjectOptions{ContentType: imageContentType, PartSize: s.opts.partSize}
}

func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, fmt.Errorf("minio: stat %s: %w", key, err)
	}
	return &blob{client: s.client, bucket: s.bucket, key: key, size: info.Size}, nil
}

func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	key := s.key(name)

	opts := s.putOptions()
	if s.opts.checksum {
		opts.UserMetadata = map[string]string{checksumMetaKey: crc32cHex(data)}
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return fmt.Errorf("minio: put %s: %w", key, err)
	}
	return nil
}

// Create streams an upload through a pipe. The object appears on Close.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return newWriter(ctx, s.client, s.bucket, s.key(name), s.putOptions()), nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	key := s.key(name)
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil && !isNotFound(err) {
		return fmt.Errorf("minio: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("minio: list %s: %w", prefix, obj.Err)
		}
		if name := s.name(obj.Key); name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

const checksumMetaKey = "Crc32c"

func crc32cHex(data []byte) string {
	return fmt.Sprintf("%08x", hash.CRC32C(data))
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}
