package repository

import (
	"context"
	"fmt"
	"time"

	"millorders/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderTotals are the money sums over orders in a date range
type OrderTotals struct {
	Billed decimal.Decimal
	Paid   decimal.Decimal
}

type DashboardRepository interface {
	CountByStatus(ctx context.Context, start, end time.Time) (map[model.OrderStatus]int64, error)
	SumTotals(ctx context.Context, start, end time.Time) (OrderTotals, error)
	CountOverdue(ctx context.Context, start, end time.Time) (int64, error)
	GetTopProducts(ctx context.Context, start, end time.Time, limit int) ([]model.ProductRanking, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

// billable excludes orders that never turn into revenue
var billable = []model.OrderStatus{model.OrderStatusRejected, model.OrderStatusCancelled}

func (r *dashboardRepository) CountByStatus(ctx context.Context, start, end time.Time) (map[model.OrderStatus]int64, error) {
	var rows []struct {
		Status model.OrderStatus
		Count  int64
	}
	if err := GetDB(ctx, r.db).Model(&model.Order{}).
		Select("status, COUNT(*) as count").
		Where("created_at >= ? AND created_at <= ?", start, end).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}

	counts := make(map[model.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *dashboardRepository) SumTotals(ctx context.Context, start, end time.Time) (OrderTotals, error) {
	var result struct {
		Billed string
		Paid   string
	}
	if err := GetDB(ctx, r.db).Model(&model.Order{}).
		Select("COALESCE(CAST(SUM(total_amount) AS TEXT), '0') as billed, COALESCE(CAST(SUM(paid_amount) AS TEXT), '0') as paid").
		Where("created_at >= ? AND created_at <= ?", start, end).
		Where("status NOT IN ?", billable).
		Scan(&result).Error; err != nil {
		return OrderTotals{}, fmt.Errorf("failed to sum order totals: %w", err)
	}

	billed, err := decimal.NewFromString(result.Billed)
	if err != nil {
		return OrderTotals{}, fmt.Errorf("invalid billed sum %q: %w", result.Billed, err)
	}
	paid, err := decimal.NewFromString(result.Paid)
	if err != nil {
		return OrderTotals{}, fmt.Errorf("invalid paid sum %q: %w", result.Paid, err)
	}
	return OrderTotals{Billed: billed, Paid: paid}, nil
}

func (r *dashboardRepository) CountOverdue(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Order{}).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Where("payment_status = ?", model.PaymentStatusOverdue).
		Count(&count).Error
	return count, err
}

func (r *dashboardRepository) GetTopProducts(ctx context.Context, start, end time.Time, limit int) ([]model.ProductRanking, error) {
	var rankings []model.ProductRanking
	if err := GetDB(ctx, r.db).Table("order_items").
		Select("order_items.product_name as product_name, SUM(order_items.quantity) as total_quantity, SUM(order_items.total_amount) as total_value").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.created_at >= ? AND orders.created_at <= ?", start, end).
		Where("orders.status NOT IN ?", billable).
		Group("order_items.product_name").
		Order("total_quantity DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	return rankings, nil
}
