package expiry

import (
	"context"
	"time"

	"github.com/foxxcyber/fresh-feed/internal/metrics"
	"github.com/foxxcyber/fresh-feed/internal/models"
)

const (
	largeAdjustmentDays = 3
	smallAdjustmentDays = 1
	confidencePenalty   = 5
	confidenceReward    = 2

	// NoCategoryLabel is reported as the most adjusted category before any
	// category has been adjusted
	NoCategoryLabel = "Ingen"

	recentPatternCount = 5
)

// DaysBetween returns the signed number of whole days from original to
// adjusted, rounded to the nearest day
func DaysBetween(original, adjusted time.Time) int {
	return roundHalfUp(float64(adjusted.Sub(original)) / float64(day))
}

// RecordAdjustment remembers that the user moved a suggested expiry date from
// originalDate to newDate. Persistence failures are logged, not returned.
func (s *Service) RecordAdjustment(ctx context.Context, productName string, originalDate, newDate time.Time, category, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, ok := s.loadForWrite(ctx, "record")
	if !ok {
		return
	}
	s.applyAdjustment(store, productName, DaysBetween(originalDate, newDate), models.ParseCategory(category), reason)
	s.persistOrLog(ctx, store, "record")
}

func (s *Service) applyAdjustment(store *models.LearningStore, productName string, diff int, category models.Category, reason string) {
	now := s.now().UTC()
	key := productKey(productName)

	store.ProductAdjustments[key] = append(store.ProductAdjustments[key], models.ProductAdjustment{
		DaysDifference:   diff,
		Date:             now,
		Reason:           reason,
		OriginalCategory: category,
	})

	if category.IsKnown() {
		store.CategoryAdjustments[category] = append(store.CategoryAdjustments[category], models.CategoryAdjustment{
			DaysDifference: diff,
			Date:           now,
			Reason:         reason,
			ProductName:    productName,
		})
	}

	store.UserPatterns = append(store.UserPatterns, models.UserPattern{
		ProductName:    productName,
		Category:       category,
		DaysDifference: diff,
		Reason:         reason,
		Timestamp:      now,
	})
	if len(store.UserPatterns) > MaxUserPatterns {
		store.UserPatterns = store.UserPatterns[len(store.UserPatterns)-MaxUserPatterns:]
	}

	if category.IsKnown() {
		conf, ok := store.Confidence[category]
		if !ok {
			conf = models.CategoryConfidence{Score: defaultConfidence}
		}
		store.Confidence[category] = nextConfidence(conf, diff)
	}

	metrics.AdjustmentsRecorded.WithLabelValues(string(category)).Inc()
	s.log.Debug().
		Str("product", key).
		Str("category", string(category)).
		Int("days_difference", diff).
		Msg("recorded expiry adjustment")
}

// nextConfidence applies one adjustment to a category's confidence
func nextConfidence(conf models.CategoryConfidence, diff int) models.CategoryConfidence {
	magnitude := diff
	if magnitude < 0 {
		magnitude = -magnitude
	}

	switch {
	case magnitude > largeAdjustmentDays:
		conf.Score -= confidencePenalty
	case magnitude <= smallAdjustmentDays:
		conf.Score += confidenceReward
	}
	conf.Score = clamp(conf.Score, 0, 100)
	conf.Adjustments++
	return conf
}

// Cleanup drops learning entries older than maxAgeDays (DefaultMaxAgeDays
// when not positive) and removes lists that end up empty.
func (s *Service) Cleanup(ctx context.Context, maxAgeDays int) {
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultMaxAgeDays
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	store, ok := s.loadForWrite(ctx, "cleanup")
	if !ok {
		return
	}
	cutoff := s.now().UTC().Add(-time.Duration(maxAgeDays) * day)
	removed := prune(store, cutoff)

	if removed > 0 {
		metrics.CleanupRemoved.Add(float64(removed))
		s.log.Info().Int("removed", removed).Int("max_age_days", maxAgeDays).Msg("pruned learning store")
	}
	s.persistOrLog(ctx, store, "cleanup")
}

// prune removes every entry dated before cutoff and returns how many went
func prune(store *models.LearningStore, cutoff time.Time) int {
	removed := 0

	patterns := store.UserPatterns[:0]
	for _, p := range store.UserPatterns {
		if p.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		patterns = append(patterns, p)
	}
	store.UserPatterns = patterns

	for key, list := range store.ProductAdjustments {
		kept := list[:0]
		for _, a := range list {
			if a.Date.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, a)
		}
		if len(kept) == 0 {
			delete(store.ProductAdjustments, key)
		} else {
			store.ProductAdjustments[key] = kept
		}
	}

	for category, list := range store.CategoryAdjustments {
		kept := list[:0]
		for _, a := range list {
			if a.Date.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, a)
		}
		if len(kept) == 0 {
			delete(store.CategoryAdjustments, category)
		} else {
			store.CategoryAdjustments[category] = kept
		}
	}

	return removed
}

// Statistics summarises what has been learned so far
func (s *Service) Statistics(ctx context.Context) models.LearningStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	return statistics(s.loadOrLog(ctx))
}

func statistics(store *models.LearningStore) models.LearningStatistics {
	stats := models.LearningStatistics{
		TotalAdjustments:     len(store.UserPatterns),
		LearnedProducts:      len(store.ProductAdjustments),
		LearnedCategories:    len(store.CategoryAdjustments),
		MostAdjustedCategory: NoCategoryLabel,
	}

	if len(store.Confidence) > 0 {
		sum := 0
		for _, conf := range store.Confidence {
			sum += conf.Score
		}
		stats.AverageConfidence = roundHalfUp(float64(sum) / float64(len(store.Confidence)))
	}

	// enumeration order breaks ties
	most := 0
	for _, category := range models.Categories {
		if n := len(store.CategoryAdjustments[category]); n > most {
			most = n
			stats.MostAdjustedCategory = string(category)
		}
	}

	start := len(store.UserPatterns) - recentPatternCount
	if start < 0 {
		start = 0
	}
	stats.RecentPatterns = append([]models.UserPattern{}, store.UserPatterns[start:]...)

	return stats
}

// Reset deletes the learning store; the next read starts empty
func (s *Service) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, s.key); err != nil {
		metrics.PersistErrors.WithLabelValues("reset").Inc()
		s.log.Error().Err(err).Msg("failed to reset learning store")
		return
	}
	s.log.Info().Msg("learning store reset")
}

// ExportData serializes the full learning store
func (s *Service) ExportData(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Encode(s.loadOrLog(ctx))
}

// ImportData replaces the learning store with an export. Malformed input
// leaves the current store untouched and returns false.
func (s *Service) ImportData(ctx context.Context, serialized string) bool {
	store, err := Decode(serialized)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("rejected").Inc()
		s.log.Warn().Err(err).Msg("rejected learning import")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, store); err != nil {
		metrics.ImportsTotal.WithLabelValues("failed").Inc()
		metrics.PersistErrors.WithLabelValues("import").Inc()
		s.log.Error().Err(err).Msg("failed to persist learning import")
		return false
	}

	metrics.ImportsTotal.WithLabelValues("ok").Inc()
	return true
}
