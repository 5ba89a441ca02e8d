package repository

import (
	"context"
	"time"

	"millorders/internal/model"

	"gorm.io/gorm"
)

// TaxRuleRepository reads the dated tax percentages used when an order is
// marked taxable without an explicit rate
type TaxRuleRepository interface {
	Create(ctx context.Context, rule *model.TaxRule) error
	FindActiveByType(ctx context.Context, taxType string, at time.Time) (*model.TaxRule, error)
	CountByType(ctx context.Context, taxType string) (int64, error)
}

type taxRuleRepository struct {
	db *gorm.DB
}

func NewTaxRuleRepository(db *gorm.DB) TaxRuleRepository {
	return &taxRuleRepository{db: db}
}

func (r *taxRuleRepository) Create(ctx context.Context, rule *model.TaxRule) error {
	return GetDB(ctx, r.db).Create(rule).Error
}

// FindActiveByType picks the most recent rule whose validity window covers
// the calendar day of at
func (r *taxRuleRepository) FindActiveByType(ctx context.Context, taxType string, at time.Time) (*model.TaxRule, error) {
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)

	var rule model.TaxRule
	err := GetDB(ctx, r.db).
		Where("tax_type = ?", taxType).
		Where("effective_from <= ?", day).
		Where("effective_to IS NULL OR effective_to >= ?", day).
		Order("effective_from desc").
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *taxRuleRepository) CountByType(ctx context.Context, taxType string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.TaxRule{}).Where("tax_type = ?", taxType).Count(&count).Error
	return count, err
}
