package evidence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vidall28/trocasequebras/internal/model"
)

// S3Scheme prefixes references to payloads kept in object storage.
const S3Scheme = "s3"

// S3Config holds object storage connection settings.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// S3Store keeps payloads in a MinIO or S3 bucket.
type S3Store struct {
	client *minio.Client
	bucket string
	region string
	now    func() time.Time
}

// NewS3Store creates a client for cfg.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &S3Store{client: client, bucket: cfg.Bucket, region: cfg.Region, now: time.Now}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// ObjectKey lays photos out by upload month.
func ObjectKey(at time.Time, id, mime string) string {
	ext := ".jpg"
	switch mime {
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	}
	return path.Join("evidence", at.UTC().Format("2006/01"), id+ext)
}

func (s *S3Store) Put(ctx context.Context, data []byte, mime string) (*model.Evidence, error) {
	key := ObjectKey(s.now(), uuid.NewString(), mime)
	opts := minio.PutObjectOptions{ContentType: mime}
	if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return nil, fmt.Errorf("upload evidence object: %w", err)
	}
	return &model.Evidence{Ref: fmt.Sprintf("%s://%s/%s", S3Scheme, s.bucket, key), MIME: mime, Size: int64(len(data))}, nil
}

// Owns reports whether ref is an object in this store's bucket.
func (s *S3Store) Owns(ref string) bool {
	bucket, _, err := ParseS3Ref(ref)
	return err == nil && bucket == s.bucket
}

// ParseS3Ref splits s3://bucket/key.
func ParseS3Ref(ref string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(ref, S3Scheme+"://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 evidence ref: %q", ref)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed s3 evidence ref: %q", ref)
	}
	return bucket, key, nil
}

func (s *S3Store) Get(ctx context.Context, ref string) ([]byte, string, error) {
	bucket, key, err := ParseS3Ref(ref)
	if err != nil {
		return nil, "", err
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("get evidence object: %w", err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("stat evidence object: %w", err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("read evidence object: %w", err)
	}
	return data, info.ContentType, nil
}
