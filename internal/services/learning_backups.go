package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/foxxcyber/fresh-feed/internal/metrics"
	"github.com/foxxcyber/fresh-feed/internal/models"
)

const backupPrefix = "learning/backups/"

var (
	ErrBackupNotFound = errors.New("backup not found")
	ErrBackupNotOwned = errors.New("backup belongs to another user")
)

// BackupService uploads learning store exports to object storage so a user
// can restore them later or on another device
type BackupService struct {
	storage   ObjectStorage
	urlExpiry time.Duration
	now       func() time.Time
}

// NewBackupService creates a backup service. Download links stay valid for
// urlExpiry.
func NewBackupService(storage ObjectStorage, urlExpiry time.Duration) *BackupService {
	return &BackupService{storage: storage, urlExpiry: urlExpiry, now: time.Now}
}

func userBackupPrefix(userID int) string {
	return fmt.Sprintf("%s%d/", backupPrefix, userID)
}

// Create uploads an export and returns where it went
func (s *BackupService) Create(ctx context.Context, userID int, export string) (*models.LearningBackup, error) {
	createdAt := s.now().UTC()
	key := fmt.Sprintf("%s%s-%s.json", userBackupPrefix(userID), createdAt.Format("20060102T150405Z"), uuid.NewString())

	result, err := s.storage.Upload(ctx, key, strings.NewReader(export), int64(len(export)), "application/json")
	if err != nil {
		metrics.BackupsTotal.WithLabelValues("create", "error").Inc()
		return nil, fmt.Errorf("upload backup: %w", err)
	}
	metrics.BackupsTotal.WithLabelValues("create", "ok").Inc()

	backup := &models.LearningBackup{
		Key:       result.Key,
		Size:      result.Size,
		CreatedAt: createdAt,
	}
	// a backup without a link is still usable through restore
	if url, err := s.storage.GetPresignedURL(ctx, key, s.urlExpiry); err == nil {
		backup.DownloadURL = url
	}
	return backup, nil
}

// List returns a user's backups, newest first
func (s *BackupService) List(ctx context.Context, userID int) ([]models.LearningBackup, error) {
	objects, err := s.storage.List(ctx, userBackupPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}

	backups := make([]models.LearningBackup, 0, len(objects))
	for _, obj := range objects {
		backups = append(backups, models.LearningBackup{
			Key:       obj.Key,
			Size:      obj.Size,
			CreatedAt: obj.LastModified,
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Key > backups[j].Key
	})
	return backups, nil
}

// Read fetches a backup's export text. Keys outside the user's prefix are
// refused.
func (s *BackupService) Read(ctx context.Context, userID int, key string) (string, error) {
	if !strings.HasPrefix(key, userBackupPrefix(userID)) || strings.Contains(key, "..") {
		return "", ErrBackupNotOwned
	}

	data, err := s.storage.Download(ctx, key)
	if errors.Is(err, ErrObjectNotFound) {
		return "", ErrBackupNotFound
	}
	if err != nil {
		metrics.BackupsTotal.WithLabelValues("read", "error").Inc()
		return "", fmt.Errorf("download backup: %w", err)
	}
	metrics.BackupsTotal.WithLabelValues("read", "ok").Inc()
	return string(data), nil
}
