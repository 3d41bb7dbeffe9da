package models

import "time"

// MarketBar is one trading day of OHLCV plus delivery data for a symbol.
// Upserted by (symbol, date): a later fetch replaces the earlier row.
type MarketBar struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Symbol         string    `json:"symbol" gorm:"uniqueIndex:idx_symbol_date;size:32"`
	Date           time.Time `json:"date" gorm:"uniqueIndex:idx_symbol_date"`
	Open           float64   `json:"open"`
	High           float64   `json:"high"`
	Low            float64   `json:"low"`
	Close          float64   `json:"close"`
	Volume         int64     `json:"volume"`
	DeliveryVolume *int64    `json:"delivery_volume"`
	DeliveryPct    *float64  `json:"delivery_pct"`
	DataSource     DataMode  `json:"data_source" gorm:"index;size:8"`
}
