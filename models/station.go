package models

import "time"

// Station is a kitchen/prep routing destination (kitchen, bar, ...),
// optionally tied to a printer for ticket dispatch.
type Station struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(50);not null" json:"name"`
	PrinterID *uint     `gorm:"index" json:"printer_id,omitempty"`
	Printer   *Printer  `gorm:"foreignKey:PrinterID;references:ID" json:"printer,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
