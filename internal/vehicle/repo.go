package vehicle

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrCarNotFound 请求的车辆在存储中不存在。
var ErrCarNotFound = errors.New("car not found")

// Repo 车辆与厂商的 gorm 存储。
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

func (r *Repo) Find(ctx context.Context, id int64) (*Car, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var car Car
	if err := db.Where("id = ?", id).First(&car).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, err
	}
	return &car, nil
}

func (r *Repo) FindAll(ctx context.Context) ([]Car, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var cars []Car
	if err := db.Order("id").Find(&cars).Error; err != nil {
		return nil, err
	}
	return cars, nil
}

// Save 无 ID 时插入（由数据库分配自增 ID），有 ID 时整行更新。
func (r *Repo) Save(ctx context.Context, car *Car) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(car).Error
}

func (r *Repo) Delete(ctx context.Context, car *Car) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Delete(car).Error
}

func (r *Repo) FindManufacturer(ctx context.Context, name string) (*Manufacturer, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var m Manufacturer
	if err := db.Where("name = ?", name).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *Repo) SaveManufacturer(ctx context.Context, m *Manufacturer) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(m).Error
}
