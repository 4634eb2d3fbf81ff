package expiry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/foxxcyber/fresh-feed/internal/logging"
	"github.com/foxxcyber/fresh-feed/internal/metrics"
	"github.com/foxxcyber/fresh-feed/internal/models"
)

const (
	// MaxShelfLifeDays caps any estimate at three years
	MaxShelfLifeDays = 1095

	// MaxUserPatterns bounds the global correction history
	MaxUserPatterns = 1000

	// DefaultMaxAgeDays is the cleanup horizon when none is given
	DefaultMaxAgeDays = 90

	exactConfidence     = 80
	defaultConfidence   = 50
	learnedBonus        = 20
	learnedConfidentCap = 95
	emergencyConfidence = 30
	dateLayout          = "2006-01-02"
	day                 = 24 * time.Hour
)

// Service owns one learning store and answers estimates against it.
// Every public operation loads the store, applies its change and saves it
// again while holding the service lock.
type Service struct {
	mu    sync.Mutex
	store Store
	key   string
	now   func() time.Time
	log   zerolog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a service bound to one key of a Store
func New(store Store, key string, opts ...Option) *Service {
	s := &Service{
		store: store,
		key:   key,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.With().Str("component", "expiry").Str("store", key).Logger()
	return s
}

// Key returns the store key this service reads and writes
func (s *Service) Key() string {
	return s.key
}

// load returns the persisted store or an empty one when none exists. The
// returned store is always usable, even alongside a non-nil error.
func (s *Service) load(ctx context.Context) (*models.LearningStore, error) {
	store, err := s.store.Load(ctx, s.key)
	if errors.Is(err, ErrStoreNotFound) {
		return models.NewLearningStore(), nil
	}
	if err != nil {
		return models.NewLearningStore(), fmt.Errorf("%w: %v", ErrLoad, err)
	}
	store.Normalize()
	return store, nil
}

func (s *Service) persist(ctx context.Context, store *models.LearningStore) error {
	store.Version = models.LearningStoreVersion
	if err := s.store.Save(ctx, s.key, store); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// loadOrLog swallows a load failure after logging it
func (s *Service) loadOrLog(ctx context.Context) *models.LearningStore {
	store, err := s.load(ctx)
	if err != nil {
		metrics.PersistErrors.WithLabelValues("load").Inc()
		s.log.Error().Err(err).Msg("using empty learning store")
	}
	return store
}

// loadForWrite refuses to hand out a blank store after a failed read so a
// transient backend error cannot overwrite what is already persisted
func (s *Service) loadForWrite(ctx context.Context, op string) (*models.LearningStore, bool) {
	store, err := s.load(ctx)
	if err != nil {
		metrics.PersistErrors.WithLabelValues("load").Inc()
		s.log.Error().Err(err).Str("operation", op).Msg("learning store change dropped")
		return nil, false
	}
	return store, true
}

func (s *Service) persistOrLog(ctx context.Context, store *models.LearningStore, op string) {
	if err := s.persist(ctx, store); err != nil {
		metrics.PersistErrors.WithLabelValues(op).Inc()
		s.log.Error().Err(err).Str("operation", op).Msg("learning store change lost")
	}
}

// CalculateSmartExpiryDate estimates an expiry date for a product bought on
// purchaseDate (today when nil), folding in everything learned so far. It
// never fails: any problem yields the emergency estimate.
func (s *Service) CalculateSmartExpiryDate(ctx context.Context, productName string, info *models.ProductInfo, purchaseDate *time.Time) (estimate models.ExpiryEstimate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("product", productName).Msg("expiry estimation failed")
			estimate = s.emergencyEstimate()
		}
		metrics.EstimatesTotal.WithLabelValues(string(estimate.Method)).Inc()
	}()

	est, err := s.calculate(ctx, productName, info, purchaseDate)
	if err != nil {
		s.log.Warn().Err(err).Str("product", productName).Msg("falling back to emergency estimate")
		return s.emergencyEstimate()
	}
	return est
}

var errEmptyProductName = errors.New("empty product name")

func (s *Service) calculate(ctx context.Context, productName string, info *models.ProductInfo, purchaseDate *time.Time) (models.ExpiryEstimate, error) {
	if strings.TrimSpace(productName) == "" {
		return models.ExpiryEstimate{}, errEmptyProductName
	}

	baseDate := s.now()
	if purchaseDate != nil {
		baseDate = *purchaseDate
	}

	store := s.loadOrLog(ctx)
	base := EstimateBaseDays(productName, info)

	days := base.Days
	confidence := exactConfidence
	if base.Method != models.BaseMethodExact {
		confidence = defaultConfidence
		if conf, ok := store.Confidence[base.Category]; ok {
			confidence = conf.Score
		}
	}

	if base.Method == models.BaseMethodCategory {
		days += averageCategoryAdjustment(store.CategoryAdjustments[base.Category])
	}

	method := models.MethodEstimated
	productAdjustments := store.ProductAdjustments[productKey(productName)]
	if len(productAdjustments) > 0 {
		days += averageProductAdjustment(productAdjustments)
		method = models.MethodLearned
		confidence = min(confidence+learnedBonus, learnedConfidentCap)
	}

	days = clamp(days, 0, MaxShelfLifeDays)

	return models.ExpiryEstimate{
		Date:        baseDate.AddDate(0, 0, days).Format(dateLayout),
		BaseDays:    days,
		Confidence:  confidence,
		Method:      method,
		Adjustments: len(productAdjustments),
	}, nil
}

func (s *Service) emergencyEstimate() models.ExpiryEstimate {
	return models.ExpiryEstimate{
		Date:        s.now().AddDate(0, 0, FallbackDays).Format(dateLayout),
		BaseDays:    FallbackDays,
		Confidence:  emergencyConfidence,
		Method:      models.MethodEmergency,
		Adjustments: 0,
	}
}

// productKey is the lookup key for per-product learning
func productKey(productName string) string {
	return strings.ToLower(strings.TrimSpace(productName))
}

func averageProductAdjustment(adjustments []models.ProductAdjustment) int {
	if len(adjustments) == 0 {
		return 0
	}
	sum := 0
	for _, a := range adjustments {
		sum += a.DaysDifference
	}
	return roundHalfUp(float64(sum) / float64(len(adjustments)))
}

func averageCategoryAdjustment(adjustments []models.CategoryAdjustment) int {
	if len(adjustments) == 0 {
		return 0
	}
	sum := 0
	for _, a := range adjustments {
		sum += a.DaysDifference
	}
	return roundHalfUp(float64(sum) / float64(len(adjustments)))
}

// roundHalfUp rounds to the nearest integer with halves going toward
// positive infinity, so -2.5 becomes -2
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
