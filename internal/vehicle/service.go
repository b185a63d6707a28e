package vehicle

import (
	"context"
	"fmt"

	"github.com/VehicleMesh/VehicleMesh/internal/common/logger"
	"golang.org/x/sync/errgroup"
)

// 删除操作的字符串状态，与 pricing 服务的 delete 契约保持一致。
const (
	StatusSuccess = "Success"
	StatusFailure = "Failure"
)

// Store 车辆存储边界。
type Store interface {
	Find(ctx context.Context, id int64) (*Car, error)
	FindAll(ctx context.Context) ([]Car, error)
	Save(ctx context.Context, car *Car) error
	Delete(ctx context.Context, car *Car) error
	FindManufacturer(ctx context.Context, name string) (*Manufacturer, error)
	SaveManufacturer(ctx context.Context, m *Manufacturer) error
}

// PriceClient pricing 服务的能力抽象。
// 任何传输失败 / 超时 / 非法响应都以 error 或 map 缺键的形式出现，
// 聚合层据此降级，绝不把下游故障放大成请求失败。
type PriceClient interface {
	GetPrice(ctx context.Context, vehicleID int64) (*PriceQuote, error)
	// GetPrices 返回部分映射：缺失的 id 只是没有对应键，不是错误。
	GetPrices(ctx context.Context, vehicleIDs []int64) (map[int64]PriceQuote, error)
	// SetPrice amount 为 nil 时由服务端按默认随机策略定价。
	SetPrice(ctx context.Context, vehicleID int64, currency string, amount *float64) (*PriceQuote, error)
	DeletePrice(ctx context.Context, vehicleID int64) error
}

// MapsClient maps 服务的能力抽象，失败契约同 PriceClient。
type MapsClient interface {
	Resolve(ctx context.Context, lat, lon float64) (*Address, error)
	// ResolveBatch 返回以 CoordKey 为键的部分映射。
	ResolveBatch(ctx context.Context, coords []Coordinate) (map[string]Address, error)
}

// PriceUpdate 保存车辆时随带的报价。Amount 为 nil 表示让服务端随机定价。
type PriceUpdate struct {
	Currency string   `json:"currency"`
	Amount   *float64 `json:"amount"`
}

// Service 车辆聚合服务：以存储为事实来源，读取时从 pricing / maps
// 服务补齐瞬态的报价与地址。自身无状态，每次调用都取最新数据。
type Service struct {
	store  Store
	prices PriceClient
	maps   MapsClient
	log    logger.Logger
}

func NewService(store Store, prices PriceClient, maps MapsClient, log logger.Logger) *Service {
	return &Service{store: store, prices: prices, maps: maps, log: log}
}

// List 返回全部车辆，并用两次批量调用完成富化：
// 一次按 id 集合查报价，一次按去重后的坐标集合查地址。
// 无论车辆数量多少，远程调用至多各一次；批量结果缺项按单车降级。
func (s *Service) List(ctx context.Context) ([]Car, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}

	cars, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(cars) == 0 {
		return cars, nil
	}

	ids := make([]int64, 0, len(cars))
	coordSet := make(map[string]Coordinate, len(cars))
	for i := range cars {
		ids = append(ids, cars[i].ID)
		key := CoordKey(cars[i].Location.Lat, cars[i].Location.Lon)
		// 相同坐标天然去重，批量解析只带一份
		coordSet[key] = Coordinate{Lat: cars[i].Location.Lat, Lon: cars[i].Location.Lon}
	}
	coords := make([]Coordinate, 0, len(coordSet))
	for _, c := range coordSet {
		coords = append(coords, c)
	}

	var (
		priceMap map[int64]PriceQuote
		addrMap  map[string]Address
	)

	// 两路独立读取并发出，尾延迟取两者较大值
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.prices.GetPrices(gctx, ids)
		if err != nil {
			s.warnf("batch price lookup degraded: %v", err)
			return nil
		}
		priceMap = m
		return nil
	})
	g.Go(func() error {
		m, err := s.maps.ResolveBatch(gctx, coords)
		if err != nil {
			s.warnf("batch address lookup degraded: %v", err)
			return nil
		}
		addrMap = m
		return nil
	})
	_ = g.Wait()

	for i := range cars {
		if q, ok := priceMap[cars[i].ID]; ok {
			cars[i].Price = FormatPrice(q)
		} else {
			cars[i].Price = ConsultPrice
		}
		if a, ok := addrMap[CoordKey(cars[i].Location.Lat, cars[i].Location.Lon)]; ok {
			cars[i].Location.applyAddress(a)
		}
	}

	return cars, nil
}

// Get 返回单辆车。车辆不存在返回 ErrCarNotFound；
// 报价与地址各查一次，任一失败只影响对应字段，不影响读取本身。
func (s *Service) Get(ctx context.Context, id int64) (*Car, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}

	car, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	s.enrichOne(ctx, car)
	return car, nil
}

// enrichOne 并发补齐单辆车的报价与地址，各自独立降级。
func (s *Service) enrichOne(ctx context.Context, car *Car) {
	var (
		quote *PriceQuote
		addr  *Address
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := s.prices.GetPrice(gctx, car.ID)
		if err != nil {
			s.warnf("price lookup degraded for car %d: %v", car.ID, err)
			return nil
		}
		quote = q
		return nil
	})
	g.Go(func() error {
		a, err := s.maps.Resolve(gctx, car.Location.Lat, car.Location.Lon)
		if err != nil {
			s.warnf("address lookup degraded for car %d: %v", car.ID, err)
			return nil
		}
		addr = a
		return nil
	})
	_ = g.Wait()

	if quote != nil {
		car.Price = FormatPrice(*quote)
	} else {
		car.Price = ConsultPrice
	}
	if addr != nil {
		car.Location.applyAddress(*addr)
	}
}

// Save 创建或更新车辆。
// - ID > 0：更新既有记录，只覆盖 details 与 location；记录不存在返回 ErrCarNotFound
// - ID == 0：先确保厂商已登记（未登记则创建），再插入新记录
// 落库之后：调用方带了报价就推给 pricing 服务（覆盖旧报价），否则拉当前报价；
// 地址总是按落库后的坐标解析。返回的记录反映保存后的状态。
func (s *Service) Save(ctx context.Context, car *Car, price *PriceUpdate) (*Car, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if car == nil {
		return nil, fmt.Errorf("car is nil")
	}

	var saved *Car
	if car.ID > 0 {
		existing, err := s.store.Find(ctx, car.ID)
		if err != nil {
			return nil, err
		}
		existing.Details = car.Details
		existing.Location = Location{Lat: car.Location.Lat, Lon: car.Location.Lon}
		existing.Condition = car.Condition
		if err := s.store.Save(ctx, existing); err != nil {
			return nil, err
		}
		saved = existing
	} else {
		if err := s.ensureManufacturer(ctx, car.Details.Manufacturer); err != nil {
			return nil, err
		}
		if err := s.store.Save(ctx, car); err != nil {
			return nil, err
		}
		saved = car
	}

	if price != nil {
		q, err := s.prices.SetPrice(ctx, saved.ID, price.Currency, price.Amount)
		if err != nil {
			s.warnf("price push degraded for car %d: %v", saved.ID, err)
			saved.Price = ConsultPrice
		} else {
			saved.Price = FormatPrice(*q)
		}
		if addr, err := s.maps.Resolve(ctx, saved.Location.Lat, saved.Location.Lon); err == nil && addr != nil {
			saved.Location.applyAddress(*addr)
		}
		return saved, nil
	}

	s.enrichOne(ctx, saved)
	return saved, nil
}

// ensureManufacturer 按名称查登记表，未登记则创建。厂商从不在此删除。
func (s *Service) ensureManufacturer(ctx context.Context, m Manufacturer) error {
	if m.Name == "" {
		return nil
	}
	existing, err := s.store.FindManufacturer(ctx, m.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return s.store.SaveManufacturer(ctx, &m)
}

// Delete 删除车辆。车辆不存在返回 ErrCarNotFound；
// 存储删除成功后顺带删除报价，报价删除失败只记日志不改变结果——
// 车辆删除才是本操作的事实。
func (s *Service) Delete(ctx context.Context, id int64) (string, error) {
	if s == nil || s.store == nil {
		return StatusFailure, fmt.Errorf("service not initialized")
	}

	car, err := s.store.Find(ctx, id)
	if err != nil {
		return StatusFailure, err
	}

	if err := s.store.Delete(ctx, car); err != nil {
		s.warnf("store delete failed for car %d: %v", id, err)
		return StatusFailure, nil
	}

	if err := s.prices.DeletePrice(ctx, id); err != nil {
		s.warnf("price delete degraded for car %d: %v", id, err)
	}

	return StatusSuccess, nil
}

func (s *Service) warnf(format string, args ...interface{}) {
	if s.log != nil {
		s.log.Warnf(format, args...)
	}
}
