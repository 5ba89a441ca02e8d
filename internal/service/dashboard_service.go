package service

import (
	"context"
	"fmt"
	"time"

	"millorders/internal/model"
	"millorders/internal/repository"

	"github.com/shopspring/decimal"
)

const topProductsLimit = 5

type DashboardService interface {
	GetSummary(ctx context.Context, startDate, endDate time.Time) (model.DashboardSummary, error)
}

type dashboardService struct {
	repo repository.DashboardRepository
}

func NewDashboardService(repo repository.DashboardRepository) DashboardService {
	return &dashboardService{repo: repo}
}

// GetSummary aggregates orders created within [startDate, endDate]
func (s *dashboardService) GetSummary(ctx context.Context, startDate, endDate time.Time) (model.DashboardSummary, error) {
	if endDate.Before(startDate) {
		return model.DashboardSummary{}, fmt.Errorf("%w: end_date is before start_date", ErrInvalidInput)
	}

	summary := model.DashboardSummary{
		TimeRangeStartDate: startDate,
		TimeRangeEndDate:   endDate,
	}

	byStatus, err := s.repo.CountByStatus(ctx, startDate, endDate)
	if err != nil {
		return model.DashboardSummary{}, err
	}
	summary.OrdersByStatus = byStatus
	for _, n := range byStatus {
		summary.TotalOrders += n
	}

	totals, err := s.repo.SumTotals(ctx, startDate, endDate)
	if err != nil {
		return model.DashboardSummary{}, err
	}
	summary.TotalBilled = totals.Billed
	summary.TotalPaid = totals.Paid
	summary.Outstanding = decimal.Max(totals.Billed.Sub(totals.Paid), decimal.Zero)

	if summary.OverdueOrders, err = s.repo.CountOverdue(ctx, startDate, endDate); err != nil {
		return model.DashboardSummary{}, fmt.Errorf("failed to count overdue orders: %w", err)
	}

	if summary.TopProducts, err = s.repo.GetTopProducts(ctx, startDate, endDate, topProductsLimit); err != nil {
		return model.DashboardSummary{}, err
	}
	if summary.TopProducts == nil {
		summary.TopProducts = []model.ProductRanking{}
	}

	return summary, nil
}
