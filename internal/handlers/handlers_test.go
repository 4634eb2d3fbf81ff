package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/fresh-feed/internal/config"
	"github.com/foxxcyber/fresh-feed/internal/database"
	"github.com/foxxcyber/fresh-feed/internal/expiry"
	"github.com/foxxcyber/fresh-feed/internal/models"
	"github.com/foxxcyber/fresh-feed/internal/services"
)

type fakeUsers struct {
	mu     sync.Mutex
	users  map[int]*models.User
	nextID int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[int]*models.User{}, nextID: 1}
}

func (f *fakeUsers) CreateUser(ctx context.Context, email, passwordHash string, username *string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return nil, database.ErrEmailExists
		}
	}
	u := &models.User{
		ID:           f.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		Username:     username,
		Role:         models.RoleUser,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.users[u.ID] = u
	f.nextID++
	return u, nil
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, database.ErrUserNotFound
}

func (f *fakeUsers) UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	if req.Username != nil {
		u.Username = req.Username
	}
	return u, nil
}

func (f *fakeUsers) UpdateUserLastLogin(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

func (f *fakeUsers) UpdateUserPassword(ctx context.Context, id int, newPasswordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return database.ErrUserNotFound
	}
	u.PasswordHash = newPasswordHash
	return nil
}

func (f *fakeUsers) DeleteUser(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return database.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := []*models.User{}
	for i, id := range ids {
		if i >= offset && len(out) < limit {
			out = append(out, f.users[id])
		}
	}
	return out, len(ids), nil
}

func (f *fakeUsers) SetUserRole(ctx context.Context, id int, role models.Role) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	u.Role = role
	return u, nil
}

type fakeInventory struct {
	mu         sync.Mutex
	items      map[int]*models.InventoryItem
	nextID     int
	lastParams *models.InventoryListParams
	lastDays   int
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{items: map[int]*models.InventoryItem{}, nextID: 1}
}

func withStatus(item *models.InventoryItem) *models.InventoryItemWithStatus {
	cp := *item
	return &models.InventoryItemWithStatus{InventoryItem: cp}
}

func (f *fakeInventory) owned(id, userID int) (*models.InventoryItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, database.ErrInventoryItemNotFound
	}
	if item.UserID != userID {
		return nil, database.ErrNotInventoryOwner
	}
	return item, nil
}

func (f *fakeInventory) ListInventoryItems(ctx context.Context, params *models.InventoryListParams) ([]*models.InventoryItemWithStatus, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastParams = params

	ids := make([]int, 0, len(f.items))
	for id, item := range f.items {
		if item.UserID != params.UserID {
			continue
		}
		if params.Category != "" && item.Category != params.Category {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]*models.InventoryItemWithStatus, 0, len(ids))
	for _, id := range ids {
		out = append(out, withStatus(f.items[id]))
	}
	return out, len(out), nil
}

func (f *fakeInventory) GetInventoryItemByID(ctx context.Context, id int, userID int) (*models.InventoryItemWithStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, err := f.owned(id, userID)
	if err != nil {
		return nil, err
	}
	return withStatus(item), nil
}

func (f *fakeInventory) CreateInventoryItem(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *item
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.items[cp.ID] = &cp
	f.nextID++
	out := cp
	return &out, nil
}

func (f *fakeInventory) UpdateInventoryItem(ctx context.Context, id int, userID int, req *models.UpdateInventoryItemRequest) (*models.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, err := f.owned(id, userID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.ExpirationDate != nil {
		d := *req.ExpirationDate
		item.ExpirationDate = &d
	}
	if req.Location != nil {
		item.Location = req.Location
	}
	out := *item
	return &out, nil
}

func (f *fakeInventory) DeleteInventoryItem(ctx context.Context, id int, userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.owned(id, userID); err != nil {
		return err
	}
	delete(f.items, id)
	return nil
}

func (f *fakeInventory) AdjustInventoryQuantity(ctx context.Context, id int, userID int, adjustment float64) (*models.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, err := f.owned(id, userID)
	if err != nil {
		return nil, err
	}
	item.Quantity += adjustment
	if item.Quantity < 0 {
		item.Quantity = 0
	}
	out := *item
	return &out, nil
}

func (f *fakeInventory) GetInventorySummary(ctx context.Context, userID int) (*models.InventorySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summary := &models.InventorySummary{UniqueLocations: []string{}}
	for _, item := range f.items {
		if item.UserID == userID {
			summary.TotalItems++
		}
	}
	return summary, nil
}

func (f *fakeInventory) GetExpiringItems(ctx context.Context, userID int, daysAhead int) ([]*models.InventoryItemWithStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastDays = daysAhead
	return []*models.InventoryItemWithStatus{}, nil
}

func (f *fakeInventory) GetInventoryLocations(ctx context.Context, userID int) ([]string, error) {
	return []string{"kyl", "skafferi"}, nil
}

type fakeBackups struct {
	mu      sync.Mutex
	objects map[string]string
	seq     int
}

func newFakeBackups() *fakeBackups {
	return &fakeBackups{objects: map[string]string{}}
}

func backupPrefix(userID int) string {
	return fmt.Sprintf("learning/backups/%d/", userID)
}

func (f *fakeBackups) Create(ctx context.Context, userID int, export string) (*models.LearningBackup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	key := fmt.Sprintf("%s%03d.json", backupPrefix(userID), f.seq)
	f.objects[key] = export
	return &models.LearningBackup{Key: key, Size: int64(len(export)), CreatedAt: time.Now()}, nil
}

func (f *fakeBackups) List(ctx context.Context, userID int) ([]models.LearningBackup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.LearningBackup{}
	for key, export := range f.objects {
		if strings.HasPrefix(key, backupPrefix(userID)) {
			out = append(out, models.LearningBackup{Key: key, Size: int64(len(export))})
		}
	}
	return out, nil
}

func (f *fakeBackups) Read(ctx context.Context, userID int, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !strings.HasPrefix(key, backupPrefix(userID)) {
		return "", services.ErrBackupNotOwned
	}
	export, ok := f.objects[key]
	if !ok {
		return "", services.ErrBackupNotFound
	}
	return export, nil
}

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	app       *fiber.App
	h         *Handler
	users     *fakeUsers
	inventory *fakeInventory
	learning  *expiry.Registry
	backups   *fakeBackups
}

func newTestEnv(t *testing.T, withBackups bool) *testEnv {
	t.Helper()
	cfg := &config.Config{
		AllowedOrigins:      "*",
		JWTSecret:           "test-secret",
		JWTExpiry:           time.Hour,
		LearningMaxAgeDays:  90,
		InventoryExpiryDays: 5,
	}

	env := &testEnv{
		users:     newFakeUsers(),
		inventory: newFakeInventory(),
		learning:  expiry.NewRegistry(expiry.NewMemoryStore(), expiry.WithClock(func() time.Time { return testNow })),
	}

	var backups BackupStore
	if withBackups {
		env.backups = newFakeBackups()
		backups = env.backups
	}

	env.h = New(cfg, env.users, env.inventory, env.learning, backups)
	env.app = NewApp(cfg)
	env.h.Routes(env.app)
	return env
}

// tokenFor registers a user directly in the fake store and signs a token
func (e *testEnv) tokenFor(t *testing.T, email string, role models.Role) (int, string) {
	t.Helper()
	u, err := e.users.CreateUser(context.Background(), email, "", nil)
	require.NoError(t, err)
	u.Role = role
	token, err := e.h.generateToken(u)
	require.NoError(t, err)
	return u.ID, token
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
	Meta    *Meta           `json:"meta"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeEnvelope(t *testing.T, raw []byte, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), string(raw))
	}
	return env
}
