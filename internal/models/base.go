package models

import "time"

// Base: common columns for tables with a surrogate key
type Base struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
