// Package store is the data-access layer between the HTTP handlers and
// PostgreSQL. All reads and writes go through parameterized statements,
// store-level constraint violations are translated into the handler error
// vocabulary, and reads are retried a bounded number of times when the
// database is unreachable.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/storefront-labs/catalog-api/models"
	"gorm.io/gorm"
)

const (
	readRetries    = 2
	retryBaseDelay = 50 * time.Millisecond
)

// ItemUpdate carries a partial field set for an item. Nil pointers mean
// "leave untouched". SetCategory distinguishes an absent category_id from
// an explicit null, which clears the reference.
type ItemUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	CategoryID  *uint
	SetCategory bool
}

type Store interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	GetItem(ctx context.Context, id uint) (*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, id uint, upd ItemUpdate) (*models.Item, error)
	DeleteItem(ctx context.Context, id uint) error

	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uint) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uint) error

	Ping(ctx context.Context) error
}

type GormStore struct {
	db      *gorm.DB
	timeout time.Duration
}

func New(db *gorm.DB, queryTimeout time.Duration) *GormStore {
	return &GormStore{db: db, timeout: queryTimeout}
}

// read runs op under the query timeout, retrying on unavailability with a
// short fibonacci backoff before giving up. Writes are never retried; each
// one is a single atomic statement.
func (s *GormStore) read(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	backoff := retry.WithMaxRetries(readRetries, retry.NewFibonacci(retryBaseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := op(ctx); err != nil {
			if isUnavailable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}

func (s *GormStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GormStore) ListItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := s.read(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Order("id ASC").Find(&items).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return items, nil
}

func (s *GormStore) GetItem(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	err := s.read(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).First(&item, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
		}
		return nil, translate(err)
	}
	return &item, nil
}

func (s *GormStore) CreateItem(ctx context.Context, item *models.Item) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	// Pre-validate references for precise client errors; the FK constraints
	// remain the backstop against concurrent deletes.
	if err := s.userExists(ctx, item.UserID); err != nil {
		return err
	}
	if item.CategoryID != nil {
		if err := s.categoryExists(ctx, *item.CategoryID); err != nil {
			return err
		}
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return translateItemWrite(err)
	}
	return nil
}

func (s *GormStore) UpdateItem(ctx context.Context, id uint, upd ItemUpdate) (*models.Item, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var item models.Item
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
		}
		return nil, translate(err)
	}

	cols := map[string]interface{}{}
	if upd.Name != nil {
		cols["name"] = *upd.Name
	}
	if upd.Description != nil {
		cols["description"] = *upd.Description
	}
	if upd.Price != nil {
		cols["price"] = *upd.Price
	}
	if upd.SetCategory {
		if upd.CategoryID != nil {
			if err := s.categoryExists(ctx, *upd.CategoryID); err != nil {
				return nil, err
			}
		}
		cols["category_id"] = upd.CategoryID
	}
	// An empty update still refreshes updated_at.
	cols["updated_at"] = time.Now().UTC()

	if err := s.db.WithContext(ctx).Model(&item).Updates(cols).Error; err != nil {
		return nil, translateItemWrite(err)
	}

	var updated models.Item
	if err := s.db.WithContext(ctx).First(&updated, id).Error; err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

func (s *GormStore) DeleteItem(ctx context.Context, id uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res := s.db.WithContext(ctx).Delete(&models.Item{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.read(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.read(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).First(&user, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
		}
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateUserWrite(err)
	}
	return nil
}

// DeleteUser removes the user; the ON DELETE CASCADE constraint removes all
// items the user owns in the same statement.
func (s *GormStore) DeleteUser(ctx context.Context, id uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return nil
}

func (s *GormStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.read(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Order("id ASC").Find(&categories).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return categories, nil
}

func (s *GormStore) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := s.read(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).First(&category, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: category %d", ErrNotFound, id)
		}
		return nil, translate(err)
	}
	return &category, nil
}

func (s *GormStore) CreateCategory(ctx context.Context, category *models.Category) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return translateCategoryWrite(err)
	}
	return nil
}

// DeleteCategory does not cascade; the RESTRICT constraint rejects the
// delete while any item still references the category.
func (s *GormStore) DeleteCategory(ctx context.Context, id uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res := s.db.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return translateCategoryWrite(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: category %d", ErrNotFound, id)
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err != nil {
		return translate(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return translate(err)
	}
	return nil
}

func (s *GormStore) userExists(ctx context.Context, id uint) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return translate(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: user %d does not exist", ErrNotFound, id)
	}
	return nil
}

func (s *GormStore) categoryExists(ctx context.Context, id uint) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return translate(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: category %d does not exist", ErrNotFound, id)
	}
	return nil
}
