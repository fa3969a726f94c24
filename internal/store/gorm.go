package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Object is the backing row for one stored blob. The primary key constraint
// is what makes PutIfAbsent atomic.
type Object struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GormObjectStore implements ObjectStore on a gorm-managed SQLite database.
// Keys contain only hex, colons, slashes, and dots, so prefix listing can
// use LIKE without escaping.
type GormObjectStore struct {
	db *gorm.DB
}

// OpenDatabase opens (or creates) the SQLite database and runs migrations.
func OpenDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Object{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func NewGormObjectStore(db *gorm.DB) *GormObjectStore {
	return &GormObjectStore{db: db}
}

func (g *GormObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	var obj Object
	err := g.db.WithContext(ctx).Where("key = ?", key).First(&obj).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return obj.Value, nil
}

func (g *GormObjectStore) Put(ctx context.Context, key string, value []byte) error {
	obj := Object{Key: key, Value: value}
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&obj).Error
}

func (g *GormObjectStore) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	obj := Object{Key: key, Value: value}
	err := g.db.WithContext(ctx).Create(&obj).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

func (g *GormObjectStore) Delete(ctx context.Context, key string) error {
	return g.db.WithContext(ctx).Where("key = ?", key).Delete(&Object{}).Error
}

func (g *GormObjectStore) List(ctx context.Context, prefix, token string, limit int) (ListPage, error) {
	q := g.db.WithContext(ctx).Model(&Object{}).Order("key")
	if prefix != "" {
		q = q.Where("key LIKE ?", prefix+"%")
	}
	if token != "" {
		q = q.Where("key > ?", token)
	}

	// Fetch one extra row to learn whether another page exists.
	var keys []string
	if err := q.Limit(limit + 1).Pluck("key", &keys).Error; err != nil {
		return ListPage{}, err
	}

	page := ListPage{Keys: keys}
	if len(keys) > limit {
		page.Keys = keys[:limit]
		page.HasMore = true
		page.NextToken = page.Keys[limit-1]
	}
	return page, nil
}
