package expiry

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"github.com/foxxcyber/fresh-feed/internal/models"
)

var (
	ErrMalformedExport    = errors.New("malformed learning export")
	ErrUnsupportedVersion = errors.New("unsupported learning export version")
)

// Encode serializes a learning store for export
func Encode(store *models.LearningStore) (string, error) {
	out := *store
	out.Version = models.LearningStoreVersion
	out.Normalize()

	data, err := json.Marshal(&out)
	if err != nil {
		return "", fmt.Errorf("marshal learning store: %w", err)
	}
	return string(data), nil
}

// Decode parses an exported learning store. Untagged exports are treated as
// version 0 and upgraded; newer or unknown versions are rejected.
func Decode(serialized string) (*models.LearningStore, error) {
	data := bytes.TrimSpace([]byte(serialized))
	if len(data) == 0 || data[0] != '{' {
		return nil, ErrMalformedExport
	}

	var probe struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
	}

	version := 0
	if probe.Version != nil {
		version = *probe.Version
	}
	if version < 0 || version > models.LearningStoreVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	var store models.LearningStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
	}

	upgrade(&store)
	return &store, nil
}

// upgrade brings a decoded store to the current version and re-establishes
// the bounds every writer keeps
func upgrade(store *models.LearningStore) {
	store.Version = models.LearningStoreVersion
	store.Normalize()
	canonicalizeCategories(store)

	if len(store.UserPatterns) > MaxUserPatterns {
		store.UserPatterns = store.UserPatterns[len(store.UserPatterns)-MaxUserPatterns:]
	}
	for category, conf := range store.Confidence {
		conf.Score = clamp(conf.Score, 0, 100)
		store.Confidence[category] = conf
	}
}

// canonicalizeCategories re-keys category data written with UI labels
// ("mejeri") onto the enumerated categories. Lists that land on the same
// category are merged in date order; labels that map to no category are
// dropped since nothing can ever look them up.
func canonicalizeCategories(store *models.LearningStore) {
	labels := make([]string, 0, len(store.CategoryAdjustments))
	for label := range store.CategoryAdjustments {
		labels = append(labels, string(label))
	}
	sort.Strings(labels)

	adjustments := make(map[models.Category][]models.CategoryAdjustment, len(labels))
	for _, label := range labels {
		category := models.ParseCategory(label)
		if !category.IsKnown() {
			continue
		}
		adjustments[category] = append(adjustments[category], store.CategoryAdjustments[models.Category(label)]...)
	}
	for _, list := range adjustments {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Date.Before(list[j].Date)
		})
	}
	store.CategoryAdjustments = adjustments

	labels = labels[:0]
	for label := range store.Confidence {
		labels = append(labels, string(label))
	}
	sort.Strings(labels)

	confidence := make(map[models.Category]models.CategoryConfidence, len(labels))
	for _, label := range labels {
		category := models.ParseCategory(label)
		if !category.IsKnown() {
			continue
		}
		conf := store.Confidence[models.Category(label)]
		// the entry backed by more adjustments wins
		if existing, ok := confidence[category]; ok && existing.Adjustments >= conf.Adjustments {
			continue
		}
		confidence[category] = conf
	}
	store.Confidence = confidence

	for key, list := range store.ProductAdjustments {
		for i := range list {
			list[i].OriginalCategory = models.ParseCategory(string(list[i].OriginalCategory))
		}
		store.ProductAdjustments[key] = list
	}
	for i := range store.UserPatterns {
		store.UserPatterns[i].Category = models.ParseCategory(string(store.UserPatterns[i].Category))
	}
}
