package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Godown is a warehouse location. ServiceAreas holds the lowercased city/area
// tokens it ships to, comma separated.
type Godown struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code         string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	City         string         `gorm:"type:varchar(100);index" json:"city"`
	ServiceAreas string         `gorm:"type:text" json:"service_areas"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Product is a sellable flour/grain item stocked at a godown
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU         string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Unit        string          `gorm:"type:varchar(10);not null;default:'KG'" json:"unit"`
	RatePerUnit decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"rate_per_unit"`
	BagSizesKg  string          `gorm:"type:varchar(100)" json:"bag_sizes_kg"` // e.g. "10,25,50"
	GodownID    *uuid.UUID      `gorm:"type:uuid;index" json:"godown_id"`
	Godown      *Godown         `gorm:"foreignKey:GodownID" json:"godown,omitempty"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
