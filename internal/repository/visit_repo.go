package repository

import (
	"context"

	"millorders/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VisitListFilter struct {
	Status     string
	CustomerID *uuid.UUID
	AssignedTo *uuid.UUID
	Page       int
	Limit      int
}

type VisitRepository interface {
	Create(ctx context.Context, visit *model.Visit) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Visit, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Visit, error)
	Update(ctx context.Context, visit *model.Visit) error
	List(ctx context.Context, filter VisitListFilter) ([]model.Visit, int64, error)
}

type visitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) Create(ctx context.Context, visit *model.Visit) error {
	return GetDB(ctx, r.db).Create(visit).Error
}

func (r *visitRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	var visit model.Visit
	if err := GetDB(ctx, r.db).Preload("Customer").First(&visit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &visit, nil
}

func (r *visitRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	var visit model.Visit
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&visit).Error; err != nil {
		return nil, err
	}
	return &visit, nil
}

func (r *visitRepository) Update(ctx context.Context, visit *model.Visit) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(visit).Error
}

func (r *visitRepository) List(ctx context.Context, filter VisitListFilter) ([]model.Visit, int64, error) {
	var visits []model.Visit
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.CustomerID != nil {
			db = db.Where("customer_id = ?", *filter.CustomerID)
		}
		if filter.AssignedTo != nil {
			db = db.Where("assigned_to = ?", *filter.AssignedTo)
		}
		return db
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Visit{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Model(&model.Visit{}).Scopes(scope).
		Preload("Customer").
		Order("scheduled_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&visits).Error; err != nil {
		return nil, 0, err
	}

	return visits, total, nil
}
