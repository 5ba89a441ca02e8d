package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is a position in the order fulfilment lifecycle
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusApproved   OrderStatus = "approved"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusDispatched OrderStatus = "dispatched"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusRejected   OrderStatus = "rejected"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus tracks how much of an order's total has been collected
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

// OrderSource records which entry flow produced the order
const (
	OrderSourceQuick    = "QUICK"
	OrderSourceItemized = "ITEMIZED"
)

// UnitKG is the only unit of sale currently in use
const UnitKG = "KG"

// Order is a customer purchase moving through the fulfilment lifecycle.
// Subtotal, Discount, TaxAmount and TotalAmount are derived from Items and the
// discount/tax inputs and are always recomputed together.
type Order struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber        string          `gorm:"type:varchar(40);uniqueIndex;not null" json:"order_number"`
	Source             string          `gorm:"type:varchar(20);not null;default:'ITEMIZED'" json:"source"` // QUICK, ITEMIZED
	CustomerID         uuid.UUID       `gorm:"type:uuid;index" json:"customer_id"`
	Customer           *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Status             OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentStatus      PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	PaymentTerms       string          `gorm:"type:varchar(50)" json:"payment_terms"`
	PaymentTermsDays   int             `gorm:"type:int;default:0" json:"payment_terms_days"`
	Items              []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"subtotal"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"discount_percentage"`
	DiscountFixed      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_fixed"`
	Discount           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount"`
	IsTaxable          bool            `gorm:"default:false" json:"is_taxable"`
	TaxPercentage      decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"tax_percentage"`
	TaxAmount          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_amount"`
	PaidAmount         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"paid_amount"`
	Notes              string          `gorm:"type:text" json:"notes"`
	DueDate            *time.Time      `gorm:"index" json:"due_date"`
	CreatedBy          *uuid.UUID      `gorm:"type:uuid;index" json:"created_by"`
	ApprovedBy         *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt         *time.Time      `json:"approved_at"`
	DeliveredAt        *time.Time      `json:"delivered_at"`
	CreatedAt          time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// OrderItem is one line of an order. TotalAmount is always Quantity * RatePerUnit.
type OrderItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Position       int             `gorm:"type:int;not null" json:"position"`
	ProductID      *uuid.UUID      `gorm:"type:uuid;index" json:"product_id"`
	ProductName    string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity       decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"quantity"`
	Unit           string          `gorm:"type:varchar(10);not null;default:'KG'" json:"unit"`
	RatePerUnit    decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"rate_per_unit"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	Packaging      string          `gorm:"type:varchar(30)" json:"packaging"` // Loose, Standard, Custom, "<N>kg Bags"
	IsBagSelection bool            `gorm:"default:false" json:"is_bag_selection"`
	BagPieces      int             `gorm:"type:int;default:0" json:"bag_pieces"`
}
