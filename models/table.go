package models

import "time"

const (
	TableAvailable = "available"
	TableOccupied  = "occupied"
)

type Table struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(50);not null" json:"name"`
	Capacity  int        `gorm:"not null;default:4" json:"capacity"`
	Status    string     `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	OpenedAt  *time.Time `json:"opened_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
