package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/foxxcyber/fresh-feed/internal/expiry"
	"github.com/foxxcyber/fresh-feed/internal/logging"
	"github.com/foxxcyber/fresh-feed/internal/metrics"
	"github.com/foxxcyber/fresh-feed/internal/models"
)

const (
	learningObjectPrefix = "learning/stores/"
	learningObjectSuffix = ".json"
	breakerName          = "learning-s3"
)

// LearningObjectStore keeps one JSON object per learning store key in an S3
// bucket. Calls go through a circuit breaker so an unreachable bucket fails
// fast instead of stalling every estimate.
type LearningObjectStore struct {
	storage ObjectStorage
	cb      *gobreaker.CircuitBreaker[[]byte]
}

var (
	_ expiry.Store     = (*LearningObjectStore)(nil)
	_ expiry.KeyLister = (*LearningObjectStore)(nil)
)

// NewLearningObjectStore wraps storage with a breaker that opens after five
// consecutive failures and probes again after timeout
func NewLearningObjectStore(storage ObjectStorage, timeout time.Duration) *LearningObjectStore {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// a missing store is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrObjectNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &LearningObjectStore{storage: storage, cb: cb}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (s *LearningObjectStore) execute(fn func() ([]byte, error)) ([]byte, error) {
	data, err := s.cb.Execute(fn)
	switch {
	case err == nil, errors.Is(err, ErrObjectNotFound):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
	}
	return data, err
}

func objectKey(key string) string {
	return learningObjectPrefix + key + learningObjectSuffix
}

func (s *LearningObjectStore) Load(ctx context.Context, key string) (*models.LearningStore, error) {
	data, err := s.execute(func() ([]byte, error) {
		return s.storage.Download(ctx, objectKey(key))
	})
	if errors.Is(err, ErrObjectNotFound) {
		return nil, expiry.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}

	var store models.LearningStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("decode learning store: %w", err)
	}
	store.Normalize()
	return &store, nil
}

func (s *LearningObjectStore) Save(ctx context.Context, key string, store *models.LearningStore) error {
	data, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("marshal learning store: %w", err)
	}

	_, err = s.execute(func() ([]byte, error) {
		_, err := s.storage.Upload(ctx, objectKey(key), bytes.NewReader(data), int64(len(data)), "application/json")
		return nil, err
	})
	return err
}

func (s *LearningObjectStore) Delete(ctx context.Context, key string) error {
	_, err := s.execute(func() ([]byte, error) {
		return nil, s.storage.Delete(ctx, objectKey(key))
	})
	return err
}

func (s *LearningObjectStore) Keys(ctx context.Context) ([]string, error) {
	var objects []ObjectInfo
	_, err := s.execute(func() ([]byte, error) {
		var err error
		objects, err = s.storage.List(ctx, learningObjectPrefix)
		return nil, err
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, learningObjectPrefix)
		if !strings.HasSuffix(name, learningObjectSuffix) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, learningObjectSuffix))
	}
	sort.Strings(keys)
	return keys, nil
}
