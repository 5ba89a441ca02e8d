package repository

import (
	"context"
	"errors"

	"millorders/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrKeyNotFound is returned by FilterRepository.Get when nothing is stored under the key
var ErrKeyNotFound = errors.New("key not found")

// FilterRepository is a per-user key-value store backed by the saved_filters table
type FilterRepository interface {
	Get(ctx context.Context, userID uuid.UUID, key string) (string, error)
	Put(ctx context.Context, userID uuid.UUID, key, value string) error
	Delete(ctx context.Context, userID uuid.UUID, key string) error
}

type filterRepository struct {
	db *gorm.DB
}

func NewFilterRepository(db *gorm.DB) FilterRepository {
	return &filterRepository{db: db}
}

func (r *filterRepository) Get(ctx context.Context, userID uuid.UUID, key string) (string, error) {
	var f model.SavedFilter
	err := GetDB(ctx, r.db).Where("user_id = ? AND key = ?", userID, key).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return f.Value, nil
}

func (r *filterRepository) Put(ctx context.Context, userID uuid.UUID, key, value string) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model.SavedFilter{UserID: userID, Key: key, Value: value}).Error
}

func (r *filterRepository) Delete(ctx context.Context, userID uuid.UUID, key string) error {
	return GetDB(ctx, r.db).Where("user_id = ? AND key = ?", userID, key).Delete(&model.SavedFilter{}).Error
}
