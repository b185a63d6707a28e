package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/VehicleMesh/VehicleMesh/internal/common/config"
	"github.com/VehicleMesh/VehicleMesh/internal/common/db"
	"github.com/VehicleMesh/VehicleMesh/internal/common/logger"
	"github.com/VehicleMesh/VehicleMesh/internal/common/middleware"
	"github.com/VehicleMesh/VehicleMesh/internal/common/server"
	"github.com/VehicleMesh/VehicleMesh/internal/common/tracing"
	"github.com/VehicleMesh/VehicleMesh/internal/pricing"
	"github.com/gin-gonic/gin"
)

var (
	configPath = flag.String("config", "configs/pricing-service.json", "配置文件路径")
	seed       = flag.Bool("seed", false, "启动时按配置预置随机报价")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New("", cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	tracer, closer, err := tracing.InitTracer(
		cfg.Server.Name,
		cfg.Jaeger.Endpoint,
		cfg.Jaeger.Sampler,
	)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}
	_ = tracer

	gormDB, err := db.NewMySQL(cfg.Database)
	if err != nil {
		log.Fatalf("failed to init mysql: %v", err)
	}
	if err := gormDB.AutoMigrate(&pricing.Price{}); err != nil {
		log.Fatalf("failed to migrate mysql schema: %v", err)
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	svc := pricing.NewService(pricing.NewRepo(gormDB), rnd, log)

	if *seed && cfg.Pricing.SeedCount > 0 {
		if err := svc.Seed(context.Background(), cfg.Pricing.SeedCount); err != nil {
			log.Fatalf("failed to seed prices: %v", err)
		}
		log.Infof("seeded %d random prices", cfg.Pricing.SeedCount)
	}

	var opts []func(*server.RunHTTPOptions)
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewTokenBucket(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
		opts = append(opts, server.WithMiddlewares(server.RateLimit(limiter)))
	}

	if err := server.RunHTTPServer(cfg, log, func(r *gin.Engine) {
		pricing.NewHTTPServer(svc).Register(r)
	}, opts...); err != nil {
		log.Fatalf("pricing-service exited with error: %v", err)
	}
}
