package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the slim catalog row drafts validate their selection against.
type Product struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Colors    string    `gorm:"column:colors;not null"` // comma-separated purchasable colors
	Sizes     string    `gorm:"column:sizes;not null"`
	Tiers     string    `gorm:"column:tiers;not null"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
