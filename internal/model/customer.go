package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddressType enum constants
const (
	AddressTypeBilling  = "BILLING"
	AddressTypeShipping = "SHIPPING"
)

// Customer is a dealer or retailer buying from the mill
type Customer struct {
	ID                  uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                string            `gorm:"type:varchar(255);not null" json:"name"`
	ShopName            string            `gorm:"type:varchar(255)" json:"shop_name"`
	Phone               string            `gorm:"type:varchar(50)" json:"phone"`
	Email               string            `gorm:"type:varchar(255)" json:"email"`
	GSTIN               string            `gorm:"type:varchar(20)" json:"gstin"`
	City                string            `gorm:"type:varchar(100);index" json:"city"`
	Area                string            `gorm:"type:varchar(100);index" json:"area"`
	DefaultPaymentTerms string            `gorm:"type:varchar(50)" json:"default_payment_terms"`
	PaymentTermsDays    int               `gorm:"type:int;default:0" json:"payment_terms_days"`
	IsActive            bool              `gorm:"default:true" json:"is_active"`
	Addresses           []CustomerAddress `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"addresses"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
	DeletedAt           gorm.DeletedAt    `gorm:"index" json:"-"`
}

// CustomerAddress is a billing or shipping address of a customer
type CustomerAddress struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID  uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	AddressType string    `gorm:"type:varchar(20);not null" json:"address_type"` // BILLING, SHIPPING
	FullAddress string    `gorm:"type:text;not null" json:"full_address"`
	IsDefault   bool      `gorm:"default:false" json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
