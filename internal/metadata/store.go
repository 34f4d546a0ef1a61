package metadata

import (
	"context"
	"github.com/pkg/errors"
	"imagevault/internal/types"
	"strings"
	"time"
)

const metadataPrefix = "metadata/"

type (
	// Store mirrors backup metadata records as JSON objects under the
	// metadata/ prefix, independent of the restic data in the same bucket.
	Store interface {
		Publish(ctx context.Context, rec types.MetadataRecord) error
		Fetch(ctx context.Context, id string) (types.MetadataRecord, error)
		List(ctx context.Context) ([]types.MetadataRecord, error)
	}

	store struct {
		objects  ObjectStore
		attempts int
		baseWait time.Duration
		timeout  time.Duration
	}
)

func NewStore(objects ObjectStore, opTimeout time.Duration) Store {
	return &store{
		objects:  objects,
		attempts: defaultAttempts,
		baseWait: defaultBaseWait,
		timeout:  opTimeout,
	}
}

func (s *store) Publish(ctx context.Context, rec types.MetadataRecord) error {
	data, err := rec.Encode()
	if err != nil {
		return errors.Wrap(err, "failed to encode metadata record")
	}

	return withRetry(ctx, s.attempts, s.baseWait, func() error {
		opCtx, cancel := s.opContext(ctx)
		defer cancel()
		return s.objects.Put(opCtx, rec.ObjectKey(), data)
	})
}

func (s *store) Fetch(ctx context.Context, id string) (types.MetadataRecord, error) {
	var rec types.MetadataRecord
	err := withRetry(ctx, s.attempts, s.baseWait, func() error {
		opCtx, cancel := s.opContext(ctx)
		defer cancel()

		data, err := s.objects.Get(opCtx, metadataPrefix+id+".json")
		if err != nil {
			return err
		}
		rec, err = types.DecodeMetadataRecord(data)
		return err
	})
	return rec, err
}

func (s *store) List(ctx context.Context) ([]types.MetadataRecord, error) {
	var keys []string
	err := withRetry(ctx, s.attempts, s.baseWait, func() error {
		opCtx, cancel := s.opContext(ctx)
		defer cancel()

		var lerr error
		keys, lerr = s.objects.List(opCtx, metadataPrefix)
		return lerr
	})
	if err != nil {
		return nil, err
	}

	records := make([]types.MetadataRecord, 0, len(keys))
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(key, metadataPrefix), ".json")
		rec, err := s.Fetch(ctx, id)
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch "+key)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
