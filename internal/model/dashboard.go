package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary aggregates order counts and money figures over a date range
type DashboardSummary struct {
	OrdersByStatus     map[OrderStatus]int64 `json:"orders_by_status"`
	TotalOrders        int64                 `json:"total_orders"`
	TotalBilled        decimal.Decimal       `json:"total_billed"`
	TotalPaid          decimal.Decimal       `json:"total_paid"`
	Outstanding        decimal.Decimal       `json:"outstanding"`
	OverdueOrders      int64                 `json:"overdue_orders"`
	TopProducts        []ProductRanking      `json:"top_products"`
	TimeRangeStartDate time.Time             `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time             `json:"time_range_end_date"`
}

// ProductRanking represents a product ranked by ordered quantity
type ProductRanking struct {
	ProductName   string          `json:"product_name"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}
