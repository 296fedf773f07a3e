package domain

import (
	"time"
)

// LastPrice is the SQL row backing one PriceState entry
type LastPrice struct {
	Symbol    string    `gorm:"primaryKey" json:"symbol"`
	Price     float64   `json:"price"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name used by gorm
func (LastPrice) TableName() string {
	return "last_prices"
}
