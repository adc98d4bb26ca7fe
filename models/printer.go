package models

import "time"

const (
	PrinterNetwork = "network"
	PrinterUSB     = "usb"
	PrinterConsole = "console"
)

type Printer struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// Type is one of network, usb, console.
	Name string `gorm:"type:varchar(50);not null" json:"name"`
	Type string `gorm:"type:varchar(20);not null;default:'network'" json:"type"`
	// ConnectionString is an IP[:port] for network printers, a device
	// port for usb ones.
	ConnectionString string    `gorm:"type:varchar(100);not null" json:"connection_string"`
	Status           string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
