package expiry

import (
	"strings"

	"github.com/foxxcyber/fresh-feed/internal/metrics"
	"github.com/foxxcyber/fresh-feed/internal/models"
)

// FallbackDays is used when neither keyword, category nor metadata give an answer
const FallbackDays = 7

// EstimateBaseDays estimates the shelf life of a product before any learned
// adjustment is applied. It never fails.
func EstimateBaseDays(productName string, info *models.ProductInfo) models.BaseEstimate {
	name := strings.ToLower(productName)
	category := Classify(productName, info)

	estimate := models.BaseEstimate{
		Days:     FallbackDays,
		Method:   models.BaseMethodFallback,
		Category: category,
	}

	switch {
	case matchKeyword(name, &estimate.Days):
		estimate.Method = models.BaseMethodExact
	case categoryDays(category, &estimate.Days):
		estimate.Method = models.BaseMethodCategory
	case infoDays(info, &estimate.Days):
		estimate.Method = models.BaseMethodCategory
	}

	metrics.BaseEstimatesTotal.WithLabelValues(string(estimate.Method)).Inc()
	return estimate
}

func matchKeyword(name string, days *int) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	for _, entry := range productShelfLife {
		if strings.Contains(name, entry.Keyword) {
			*days = entry.Days
			return true
		}
	}
	return false
}

func categoryDays(category models.Category, days *int) bool {
	d, ok := categoryShelfLife[category]
	if ok {
		*days = d
	}
	return ok
}

func infoDays(info *models.ProductInfo, days *int) bool {
	if info == nil {
		return false
	}
	d, ok := info.ShelfLife.Days()
	if ok {
		*days = d
	}
	return ok
}
