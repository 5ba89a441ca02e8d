package model

import (
	"time"

	"github.com/google/uuid"
)

// VisitStatus is the lighter lifecycle of a field visit
type VisitStatus string

const (
	VisitStatusPending    VisitStatus = "pending"
	VisitStatusInProgress VisitStatus = "in_progress"
	VisitStatusCompleted  VisitStatus = "completed"
	VisitStatusCancelled  VisitStatus = "cancelled"
)

// Visit records a salesperson's field visit to a customer, optionally for an order
type Visit struct {
	ID          uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID  uuid.UUID   `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer    *Customer   `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	OrderID     *uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	AssignedTo  *uuid.UUID  `gorm:"type:uuid;index" json:"assigned_to"`
	Purpose     string      `gorm:"type:varchar(255)" json:"purpose"`
	Status      VisitStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ScheduledAt time.Time   `gorm:"index" json:"scheduled_at"`
	StartedAt   *time.Time  `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at"`
	Latitude    *float64    `json:"latitude"`
	Longitude   *float64    `json:"longitude"`
	ImageURLs   string      `gorm:"type:text" json:"-"` // newline separated
	Notes       string      `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
