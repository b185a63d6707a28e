package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/VehicleMesh/VehicleMesh/internal/common/config"
	"github.com/VehicleMesh/VehicleMesh/internal/common/discovery"
	"github.com/VehicleMesh/VehicleMesh/internal/common/logger"
	"github.com/VehicleMesh/VehicleMesh/internal/vehicle"
)

// MapsClient maps 服务的 HTTP 客户端，实现 vehicle.MapsClient。
type MapsClient struct {
	remote *remote
}

func NewMapsClient(cfg config.ClientConfig, picker *discovery.Picker, log logger.Logger) *MapsClient {
	return &MapsClient{remote: newRemote("maps", cfg, picker, log)}
}

// Resolve 按经纬度解析一条地址。
func (c *MapsClient) Resolve(ctx context.Context, lat, lon float64) (*vehicle.Address, error) {
	path := "/geocode?lat=" + strconv.FormatFloat(lat, 'f', -1, 64) +
		"&lon=" + strconv.FormatFloat(lon, 'f', -1, 64)

	var addr vehicle.Address
	if err := c.remote.call(ctx, "maps.Resolve", http.MethodGet, path, nil, decodeJSON(&addr)); err != nil {
		return nil, err
	}
	return &addr, nil
}

// ResolveBatch 批量解析坐标集合，返回以 "lat:lon" 为键的部分映射。
// 缺失的坐标只是没有对应键，不是错误。
func (c *MapsClient) ResolveBatch(ctx context.Context, coords []vehicle.Coordinate) (map[string]vehicle.Address, error) {
	if len(coords) == 0 {
		return map[string]vehicle.Address{}, nil
	}

	keys := make([]string, 0, len(coords))
	for _, coord := range coords {
		keys = append(keys, vehicle.CoordKey(coord.Lat, coord.Lon))
	}
	path := "/geocode?locations=" + url.QueryEscape(strings.Join(keys, ","))

	result := make(map[string]vehicle.Address)
	if err := c.remote.call(ctx, "maps.ResolveBatch", http.MethodGet, path, nil, decodeJSON(&result)); err != nil {
		return nil, err
	}
	return result, nil
}
