package pricing

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrPriceNotFound 请求的报价不存在。
var ErrPriceNotFound = errors.New("price not found")

// Repository 报价存储边界。
type Repository interface {
	FindByVehicleID(ctx context.Context, vehicleID int64) (*Price, error)
	FindByVehicleIDs(ctx context.Context, vehicleIDs []int64) ([]Price, error)
	Save(ctx context.Context, p *Price) error
	Delete(ctx context.Context, p *Price) error
}

// Repo 报价的 gorm 存储。
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

func (r *Repo) FindByVehicleID(ctx context.Context, vehicleID int64) (*Price, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var p Price
	if err := db.Where("vehicle_id = ?", vehicleID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPriceNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) FindByVehicleIDs(ctx context.Context, vehicleIDs []int64) ([]Price, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var prices []Price
	if err := db.Where("vehicle_id IN ?", vehicleIDs).Find(&prices).Error; err != nil {
		return nil, err
	}
	return prices, nil
}

func (r *Repo) Save(ctx context.Context, p *Price) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(p).Error
}

func (r *Repo) Delete(ctx context.Context, p *Price) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Delete(p).Error
}
