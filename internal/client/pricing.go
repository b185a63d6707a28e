package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/VehicleMesh/VehicleMesh/internal/common/config"
	"github.com/VehicleMesh/VehicleMesh/internal/common/discovery"
	"github.com/VehicleMesh/VehicleMesh/internal/common/logger"
	"github.com/VehicleMesh/VehicleMesh/internal/vehicle"
)

// PricingClient pricing 服务的 HTTP 客户端，实现 vehicle.PriceClient。
type PricingClient struct {
	remote *remote
}

func NewPricingClient(cfg config.ClientConfig, picker *discovery.Picker, log logger.Logger) *PricingClient {
	return &PricingClient{remote: newRemote("pricing", cfg, picker, log)}
}

// GetPrice 查询单辆车的报价。404 同样视为不可用，由上层降级。
func (c *PricingClient) GetPrice(ctx context.Context, vehicleID int64) (*vehicle.PriceQuote, error) {
	var quote vehicle.PriceQuote
	path := "/price?vehicleId=" + strconv.FormatInt(vehicleID, 10)
	if err := c.remote.call(ctx, "pricing.GetPrice", http.MethodGet, path, nil, decodeJSON(&quote)); err != nil {
		return nil, err
	}
	return &quote, nil
}

// GetPrices 批量查询报价，返回以 vehicleId 为键的部分映射。
// 服务端没有报价的 id 不在结果里，这不是错误。
func (c *PricingClient) GetPrices(ctx context.Context, vehicleIDs []int64) (map[int64]vehicle.PriceQuote, error) {
	if len(vehicleIDs) == 0 {
		return map[int64]vehicle.PriceQuote{}, nil
	}

	parts := make([]string, 0, len(vehicleIDs))
	for _, id := range vehicleIDs {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	path := "/price/list?vehicleList=" + url.QueryEscape(strings.Join(parts, ","))

	var quotes []vehicle.PriceQuote
	if err := c.remote.call(ctx, "pricing.GetPrices", http.MethodGet, path, nil, decodeJSON(&quotes)); err != nil {
		return nil, err
	}

	result := make(map[int64]vehicle.PriceQuote, len(quotes))
	for _, q := range quotes {
		result[q.VehicleID] = q
	}
	return result, nil
}

// SetPrice 为车辆写入新报价（覆盖旧值）。amount 为 nil 时省略字段，
// 由服务端按默认随机策略定价。
func (c *PricingClient) SetPrice(ctx context.Context, vehicleID int64, currency string, amount *float64) (*vehicle.PriceQuote, error) {
	body, err := json.Marshal(struct {
		VehicleID int64    `json:"vehicleId"`
		Currency  string   `json:"currency,omitempty"`
		Price     *float64 `json:"price,omitempty"`
	}{
		VehicleID: vehicleID,
		Currency:  currency,
		Price:     amount,
	})
	if err != nil {
		return nil, err
	}

	var quote vehicle.PriceQuote
	if err := c.remote.call(ctx, "pricing.SetPrice", http.MethodPost, "/price", body, decodeJSON(&quote)); err != nil {
		return nil, err
	}
	return &quote, nil
}

// DeletePrice 删除车辆报价。响应体为字符串 "Success" / "Failure"。
func (c *PricingClient) DeletePrice(ctx context.Context, vehicleID int64) error {
	path := "/price?vehicleId=" + strconv.FormatInt(vehicleID, 10)
	var status string
	err := c.remote.call(ctx, "pricing.DeletePrice", http.MethodDelete, path, nil, func(data []byte) error {
		status = strings.TrimSpace(string(data))
		return nil
	})
	if err != nil {
		return err
	}
	if status != vehicle.StatusSuccess {
		return fmt.Errorf("price delete returned %q", status)
	}
	return nil
}
