package models

import (
	"strconv"
	"strings"
	"time"
)

// LearningStoreVersion is the current schema version of a persisted or exported LearningStore
const LearningStoreVersion = 1

// BaseMethod describes how the estimator arrived at its base days
type BaseMethod string

const (
	BaseMethodExact    BaseMethod = "exact"
	BaseMethodCategory BaseMethod = "category"
	BaseMethodFallback BaseMethod = "fallback"
)

// EstimateMethod is the user-facing label attached to a smart expiry estimate
type EstimateMethod string

const (
	MethodLearned   EstimateMethod = "Inlärd"
	MethodEstimated EstimateMethod = "AI-uppskattning"
	MethodEmergency EstimateMethod = "Nödlösning"
)

// ShelfLifeHint is a shelf life supplied with product metadata. It accepts
// JSON numbers as well as strings such as "14" or "14 dagar".
type ShelfLifeHint string

// UnmarshalJSON accepts a JSON string, number or null
func (h *ShelfLifeHint) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*h = ""
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		*h = ShelfLifeHint(unquoted)
		return nil
	}
	*h = ShelfLifeHint(raw)
	return nil
}

// Days parses the leading integer of the hint. ok is false unless the
// result is a positive number of days.
func (h ShelfLifeHint) Days() (int, bool) {
	s := strings.TrimSpace(string(h))
	if s == "" {
		return 0, false
	}

	end := 0
	if s[0] == '+' || s[0] == '-' {
		end = 1
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	days, err := strconv.Atoi(s[:end])
	if err != nil || days <= 0 {
		return 0, false
	}
	return days, true
}

// ProductInfo is optional structured metadata about a product
type ProductInfo struct {
	Category  string        `json:"category,omitempty"`
	ShelfLife ShelfLifeHint `json:"shelf_life,omitempty"`
}

// BaseEstimate is the estimator's answer before learning is applied
type BaseEstimate struct {
	Days     int        `json:"days"`
	Method   BaseMethod `json:"method"`
	Category Category   `json:"category"`
}

// ExpiryEstimate is the result of a smart expiry calculation
type ExpiryEstimate struct {
	Date        string         `json:"date"`
	BaseDays    int            `json:"base_days"`
	Confidence  int            `json:"confidence"`
	Method      EstimateMethod `json:"method"`
	Adjustments int            `json:"adjustments"`
}

// ProductAdjustment is one user correction recorded against a product
type ProductAdjustment struct {
	DaysDifference   int       `json:"daysDifference"`
	Date             time.Time `json:"date"`
	Reason           string    `json:"reason"`
	OriginalCategory Category  `json:"originalCategory"`
}

// CategoryAdjustment is one user correction recorded against a category
type CategoryAdjustment struct {
	DaysDifference int       `json:"daysDifference"`
	Date           time.Time `json:"date"`
	Reason         string    `json:"reason"`
	ProductName    string    `json:"productName"`
}

// UserPattern is an entry in the global, time-ordered correction history
type UserPattern struct {
	ProductName    string    `json:"productName"`
	Category       Category  `json:"category"`
	DaysDifference int       `json:"daysDifference"`
	Reason         string    `json:"reason"`
	Timestamp      time.Time `json:"timestamp"`
}

// CategoryConfidence tracks how reliable estimates for a category have been
type CategoryConfidence struct {
	Score       int `json:"score"`
	Adjustments int `json:"adjustments"`
}

// LearningStore holds all adjustment history and confidence state for one user
type LearningStore struct {
	Version             int                               `json:"version"`
	ProductAdjustments  map[string][]ProductAdjustment    `json:"productAdjustments"`
	CategoryAdjustments map[Category][]CategoryAdjustment `json:"categoryAdjustments"`
	UserPatterns        []UserPattern                     `json:"userPatterns"`
	Confidence          map[Category]CategoryConfidence   `json:"confidence"`
}

// NewLearningStore returns an empty store at the current schema version
func NewLearningStore() *LearningStore {
	return &LearningStore{
		Version:             LearningStoreVersion,
		ProductAdjustments:  map[string][]ProductAdjustment{},
		CategoryAdjustments: map[Category][]CategoryAdjustment{},
		UserPatterns:        []UserPattern{},
		Confidence:          map[Category]CategoryConfidence{},
	}
}

// Normalize replaces nil collections with empty ones
func (s *LearningStore) Normalize() {
	if s.ProductAdjustments == nil {
		s.ProductAdjustments = map[string][]ProductAdjustment{}
	}
	if s.CategoryAdjustments == nil {
		s.CategoryAdjustments = map[Category][]CategoryAdjustment{}
	}
	if s.UserPatterns == nil {
		s.UserPatterns = []UserPattern{}
	}
	if s.Confidence == nil {
		s.Confidence = map[Category]CategoryConfidence{}
	}
}

// LearningStatistics summarises a LearningStore
type LearningStatistics struct {
	TotalAdjustments     int           `json:"total_adjustments"`
	LearnedProducts      int           `json:"learned_products"`
	LearnedCategories    int           `json:"learned_categories"`
	AverageConfidence    int           `json:"average_confidence"`
	MostAdjustedCategory string        `json:"most_adjusted_category"`
	RecentPatterns       []UserPattern `json:"recent_patterns"`
}

// EstimateRequest is the request body for a smart expiry estimate
type EstimateRequest struct {
	ProductName  string       `json:"product_name" validate:"max=200"`
	ProductInfo  *ProductInfo `json:"product_info,omitempty"`
	PurchaseDate string       `json:"purchase_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// RecordAdjustmentRequest is the request body for recording a user correction
type RecordAdjustmentRequest struct {
	ProductName  string `json:"product_name" validate:"required,max=200"`
	OriginalDate string `json:"original_date" validate:"required,datetime=2006-01-02"`
	NewDate      string `json:"new_date" validate:"required,datetime=2006-01-02"`
	Category     string `json:"category,omitempty" validate:"max=50"`
	Reason       string `json:"reason,omitempty" validate:"max=500"`
}

// CleanupRequest is the request body for pruning old learning data
type CleanupRequest struct {
	MaxAgeDays int `json:"max_age_days" validate:"gte=0,lte=3650"`
}

// RestoreBackupRequest names an export backup to restore
type RestoreBackupRequest struct {
	Key string `json:"key" validate:"required,max=512"`
}

// LearningBackup describes an export uploaded to object storage
type LearningBackup struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	DownloadURL string    `json:"download_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
