package model

import (
	"time"

	"github.com/google/uuid"
)

// SavedFilter persists one list-screen filter value per user and key
type SavedFilter struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Key       string    `gorm:"type:varchar(100);primaryKey" json:"key"`
	Value     string    `gorm:"type:jsonb;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
