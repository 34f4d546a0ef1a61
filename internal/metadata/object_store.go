package metadata

import (
	"bytes"
	"context"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"io"
	"imagevault/internal/types"
)

type (
	// ObjectStore is the thin surface the synchronizer needs from the bucket.
	// The minio implementation is the real one; tests use an in-memory fake.
	ObjectStore interface {
		Put(ctx context.Context, key string, data []byte) error
		Get(ctx context.Context, key string) ([]byte, error)
		List(ctx context.Context, prefix string) ([]string, error)
	}

	objectStore struct {
		client *minio.Client
		bucket string
		region string
	}
)

func NewObjectStore(cred types.StorageCredentials) (ObjectStore, error) {
	mn, err := minio.New(cred.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cred.AccessKeyID, cred.SecretKey, ""),
		Secure: cred.UseTLS,
		Region: cred.Region,
	})
	if err != nil {
		return nil, err
	}
	return &objectStore{
		client: mn,
		bucket: cred.Bucket,
		region: cred.Region,
	}, nil
}

func (s *objectStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.makeBucket(ctx); err != nil {
		return classify(err)
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return classify(err)
}

func (s *objectStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classify(err)
	}
	return data, nil
}

func (s *objectStore) List(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, classify(obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (s *objectStore) makeBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{
		Region: s.region,
	})
}

// classify sorts bucket errors into the retry taxonomy: missing keys map to
// ErrNotFound, server-side trouble and connection failures are transient,
// everything else (auth, bad request) is permanent and surfaced as-is.
func classify(err error) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey":
		return types.ErrNotFound
	case resp.StatusCode >= 500, resp.StatusCode == 429:
		return &types.TransientError{Err: err}
	case resp.StatusCode >= 400:
		return err
	default:
		// no structured response at all means we never reached the service
		return &types.TransientError{Err: err}
	}
}
