package models

// Setting is a key/value row; known keys are restaurant_name,
// currency, tax_rate and print_enabled.
type Setting struct {
	Key   string `gorm:"primaryKey;type:varchar(50)" json:"key"`
	Value string `gorm:"type:varchar(200)" json:"value"`
}
