package pricing

import "time"

// Price 是 prices 表的 GORM 模型。一辆车至多一条报价，
// vehicleId 由调用方提供，作为主键，不自增。
type Price struct {
	VehicleID int64     `gorm:"primaryKey;autoIncrement:false" json:"vehicleId"`
	Currency  string    `gorm:"size:8;not null" json:"currency"`
	Price     float64   `gorm:"not null" json:"price"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}
