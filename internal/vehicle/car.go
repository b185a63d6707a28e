package vehicle

import (
	"fmt"
	"strconv"
	"time"
)

// Condition 车况枚举（持久化为字符串）。
type Condition string

const (
	ConditionNew  Condition = "NEW"
	ConditionUsed Condition = "USED"
)

// Valid 判断车况取值是否合法。
func (c Condition) Valid() bool {
	return c == ConditionNew || c == ConditionUsed
}

// Car 是 cars 表的 GORM 模型。
// Price 和 Location 里的地址字段是瞬态数据：不落库，每次读取时
// 从 pricing / maps 服务现查现填。
type Car struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"modifiedAt"`

	Condition Condition `gorm:"size:16;not null" json:"condition"`
	Details   Details   `gorm:"embedded;embeddedPrefix:detail_" json:"details"`
	Location  Location  `gorm:"embedded" json:"location"`

	// 瞬态展示价格，如 "USD 21000.00"；拿不到时为 "(consult price)"
	Price string `gorm:"-" json:"price,omitempty"`
}

// Details 车辆描述信息（创建后整体覆盖更新，不做字段级修改）。
type Details struct {
	Body           string       `gorm:"size:32" json:"body"`
	Model          string       `gorm:"size:64" json:"model"`
	Manufacturer   Manufacturer `gorm:"embedded;embeddedPrefix:manufacturer_" json:"manufacturer"`
	NumberOfDoors  int          `json:"numberOfDoors"`
	FuelType       string       `gorm:"size:32" json:"fuelType"`
	Engine         string       `gorm:"size:64" json:"engine"`
	Mileage        int          `json:"mileage"`
	ModelYear      int          `json:"modelYear"`
	ProductionYear int          `json:"productionYear"`
	ExternalColor  string       `gorm:"size:32" json:"externalColor"`
}

// Manufacturer 厂商信息。code 由调用方提供，不自动生成；
// 在 manufacturers 表中作为登记表维护，同时冗余一份在 car 行内。
type Manufacturer struct {
	Code int    `gorm:"primaryKey;autoIncrement:false" json:"code"`
	Name string `gorm:"size:64;not null" json:"name"`
}

// Location 车辆坐标。地址字段为瞬态数据，由 maps 服务解析后填充。
type Location struct {
	Lat float64 `gorm:"column:lat;not null" json:"lat"`
	Lon float64 `gorm:"column:lon;not null" json:"lon"`

	Address string `gorm:"-" json:"address,omitempty"`
	City    string `gorm:"-" json:"city,omitempty"`
	State   string `gorm:"-" json:"state,omitempty"`
	Zip     string `gorm:"-" json:"zip,omitempty"`
}

// PriceQuote pricing 服务返回的报价。
type PriceQuote struct {
	VehicleID int64   `json:"vehicleId"`
	Currency  string  `json:"currency"`
	Price     float64 `json:"price"`
}

// Address maps 服务返回的地址解析结果。
type Address struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

// Coordinate 一对经纬度，用于批量地址解析。
type Coordinate struct {
	Lat float64
	Lon float64
}

// ConsultPrice 报价不可用时的兜底展示值。
const ConsultPrice = "(consult price)"

// CoordKey 生成 "lat:lon" 形式的坐标键。
// 客户端拼请求、服务端回包、聚合层做 join 都用同一个规范形式，
// 保证相同坐标的车辆在批量解析时命中同一条结果。
func CoordKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + ":" + strconv.FormatFloat(lon, 'f', -1, 64)
}

// FormatPrice 把报价格式化为展示字符串，如 "USD 21000.00"。
func FormatPrice(q PriceQuote) string {
	currency := q.Currency
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%s %.2f", currency, q.Price)
}

// applyAddress 把解析出的地址填到坐标上（瞬态字段）。
func (l *Location) applyAddress(a Address) {
	l.Address = a.Address
	l.City = a.City
	l.State = a.State
	l.Zip = a.Zip
}
