package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/VehicleMesh/VehicleMesh/internal/common/logger"
)

// 删除操作的字符串状态（对外契约的一部分）。
const (
	StatusSuccess = "Success"
	StatusFailure = "Failure"
)

const defaultCurrency = "USD"

// Service 报价领域的核心用例，仓储持久化。
// 历史上的内存随机价格表已废弃，预置数据统一走 Seed。
type Service struct {
	repo Repository
	rnd  *rand.Rand
	log  logger.Logger
}

func NewService(repo Repository, rnd *rand.Rand, log logger.Logger) *Service {
	return &Service{repo: repo, rnd: rnd, log: log}
}

// GetPrice 按车辆 ID 查询报价。
func (s *Service) GetPrice(ctx context.Context, vehicleID int64) (*Price, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.FindByVehicleID(ctx, vehicleID)
}

// GetPrices 批量查询报价。没有报价的 id 不出现在结果里。
func (s *Service) GetPrices(ctx context.Context, vehicleIDs []int64) ([]Price, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if len(vehicleIDs) == 0 {
		return []Price{}, nil
	}
	return s.repo.FindByVehicleIDs(ctx, vehicleIDs)
}

// SetPrice 写入报价（覆盖旧值）。currency 缺省 USD；
// amount 为 nil 时按默认随机策略定价。
func (s *Service) SetPrice(ctx context.Context, vehicleID int64, currency string, amount *float64) (*Price, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if vehicleID <= 0 {
		return nil, fmt.Errorf("vehicleId must be positive")
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = defaultCurrency
	}

	var value float64
	if amount != nil {
		if *amount < 0 {
			return nil, fmt.Errorf("price must be non-negative")
		}
		value = *amount
	} else {
		value = s.randomPrice()
	}

	p := &Price{VehicleID: vehicleID, Currency: currency, Price: value}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePrice 删除报价。与原有对外契约保持一致：
// 报价不存在或删除失败都返回 Failure，不抛错。
func (s *Service) DeletePrice(ctx context.Context, vehicleID int64) string {
	if s == nil || s.repo == nil {
		return StatusFailure
	}

	p, err := s.repo.FindByVehicleID(ctx, vehicleID)
	if err != nil {
		if !errors.Is(err, ErrPriceNotFound) && s.log != nil {
			s.log.Warnf("find price failed for vehicle %d: %v", vehicleID, err)
		}
		return StatusFailure
	}
	if err := s.repo.Delete(ctx, p); err != nil {
		if s.log != nil {
			s.log.Warnf("delete price failed for vehicle %d: %v", vehicleID, err)
		}
		return StatusFailure
	}
	return StatusSuccess
}

// Seed 为 vehicleId 1..n 预置随机报价（开发/演示环境用）。
func (s *Service) Seed(ctx context.Context, n int) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("service not initialized")
	}
	for id := int64(1); id <= int64(n); id++ {
		p := &Price{VehicleID: id, Currency: defaultCurrency, Price: s.randomPrice()}
		if err := s.repo.Save(ctx, p); err != nil {
			return fmt.Errorf("failed to seed price for vehicle %d: %w", id, err)
		}
	}
	return nil
}

// randomPrice 默认随机定价：[5000, 25000)，保留两位小数。
func (s *Service) randomPrice() float64 {
	r := s.rnd
	if r == nil {
		return 5000
	}
	v := (1 + r.Float64()*4) * 5000
	return math.Round(v*100) / 100
}
