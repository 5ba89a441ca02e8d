package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxType enum constants
const (
	TaxTypeGST = "GST"
)

// TaxRule stores a tax percentage with temporal validity
type TaxRule struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaxType       string          `gorm:"type:varchar(20);not null;index" json:"tax_type"`
	Percentage    decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"percentage"`   // e.g. 5 = 5%
	EffectiveFrom time.Time       `gorm:"type:date;not null;index" json:"effective_from"` // Start date
	EffectiveTo   *time.Time      `gorm:"type:date;index" json:"effective_to"`            // nil = currently active
	Description   string          `gorm:"type:text" json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
