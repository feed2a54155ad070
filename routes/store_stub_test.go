package routes

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront-labs/catalog-api/models"
	"github.com/storefront-labs/catalog-api/store"
	"go.uber.org/zap"
)

// fakeStore is an in-memory Store used by the handler tests. It reproduces
// the datastore's referential behavior: user deletes cascade to items,
// referenced categories refuse deletion, uniqueness is enforced.
type fakeStore struct {
	users      map[uint]models.User
	categories map[uint]models.Category
	items      map[uint]models.Item
	nextID     uint
	clock      time.Time
	pingErr    error
	failWith   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[uint]models.User{},
		categories: map[uint]models.Category{},
		items:      map[uint]models.Item{},
		clock:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) ListItems(ctx context.Context) ([]models.Item, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	items := make([]models.Item, 0, len(f.items))
	for _, it := range f.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (f *fakeStore) GetItem(ctx context.Context, id uint) (*models.Item, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	item, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %d", store.ErrNotFound, id)
	}
	return &item, nil
}

func (f *fakeStore) CreateItem(ctx context.Context, item *models.Item) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.users[item.UserID]; !ok {
		return fmt.Errorf("%w: user %d does not exist", store.ErrNotFound, item.UserID)
	}
	if item.CategoryID != nil {
		if _, ok := f.categories[*item.CategoryID]; !ok {
			return fmt.Errorf("%w: category %d does not exist", store.ErrNotFound, *item.CategoryID)
		}
	}
	item.ID = f.id()
	now := f.tick()
	item.CreatedAt = now
	item.UpdatedAt = now
	f.items[item.ID] = *item
	return nil
}

func (f *fakeStore) UpdateItem(ctx context.Context, id uint, upd store.ItemUpdate) (*models.Item, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	item, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %d", store.ErrNotFound, id)
	}
	if upd.Name != nil {
		item.Name = *upd.Name
	}
	if upd.Description != nil {
		item.Description = *upd.Description
	}
	if upd.Price != nil {
		item.Price = *upd.Price
	}
	if upd.SetCategory {
		if upd.CategoryID != nil {
			if _, ok := f.categories[*upd.CategoryID]; !ok {
				return nil, fmt.Errorf("%w: category %d does not exist", store.ErrNotFound, *upd.CategoryID)
			}
		}
		item.CategoryID = upd.CategoryID
	}
	item.UpdatedAt = f.tick()
	f.items[id] = item
	return &item, nil
}

func (f *fakeStore) DeleteItem(ctx context.Context, id uint) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.items[id]; !ok {
		return fmt.Errorf("%w: item %d", store.ErrNotFound, id)
	}
	delete(f.items, id)
	return nil
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]models.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	users := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (f *fakeStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", store.ErrNotFound, id)
	}
	return &user, nil
}

func (f *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return fmt.Errorf("%w: username already taken", store.ErrConflict)
		}
		if u.Email == user.Email {
			return fmt.Errorf("%w: email already in use", store.ErrConflict)
		}
	}
	user.ID = f.id()
	user.CreatedAt = f.tick()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, id uint) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.users[id]; !ok {
		return fmt.Errorf("%w: user %d", store.ErrNotFound, id)
	}
	delete(f.users, id)
	for itemID, item := range f.items {
		if item.UserID == id {
			delete(f.items, itemID)
		}
	}
	return nil
}

func (f *fakeStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	categories := make([]models.Category, 0, len(f.categories))
	for _, c := range f.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (f *fakeStore) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	category, ok := f.categories[id]
	if !ok {
		return nil, fmt.Errorf("%w: category %d", store.ErrNotFound, id)
	}
	return &category, nil
}

func (f *fakeStore) CreateCategory(ctx context.Context, category *models.Category) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, c := range f.categories {
		if c.Name == category.Name {
			return fmt.Errorf("%w: category name already exists", store.ErrConflict)
		}
	}
	category.ID = f.id()
	category.CreatedAt = f.tick()
	f.categories[category.ID] = *category
	return nil
}

func (f *fakeStore) DeleteCategory(ctx context.Context, id uint) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.categories[id]; !ok {
		return fmt.Errorf("%w: category %d", store.ErrNotFound, id)
	}
	for _, item := range f.items {
		if item.CategoryID != nil && *item.CategoryID == id {
			return fmt.Errorf("%w: category is referenced by existing items", store.ErrConflict)
		}
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.pingErr
}

var _ store.Store = (*fakeStore)(nil)

func newTestRouter(s store.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
	router := gin.New()
	NewItemHandler(s, zap.NewNop()).Register(router)
	NewUserHandler(s, zap.NewNop()).Register(router)
	NewCategoryHandler(s, zap.NewNop()).Register(router)
	NewHealthHandler(s, zap.NewNop()).Register(router)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
