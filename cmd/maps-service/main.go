package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/VehicleMesh/VehicleMesh/internal/common/config"
	"github.com/VehicleMesh/VehicleMesh/internal/common/logger"
	"github.com/VehicleMesh/VehicleMesh/internal/common/middleware"
	"github.com/VehicleMesh/VehicleMesh/internal/common/server"
	"github.com/VehicleMesh/VehicleMesh/internal/common/tracing"
	"github.com/VehicleMesh/VehicleMesh/internal/maps"
	"github.com/gin-gonic/gin"
)

var (
	configPath = flag.String("config", "configs/maps-service.json", "配置文件路径")
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

	repo := maps.NewMockAddressRepository(rand.New(rand.NewSource(time.Now().UnixNano())))

	var opts []func(*server.RunHTTPOptions)
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewTokenBucket(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
		opts = append(opts, server.WithMiddlewares(server.RateLimit(limiter)))
	}

	if err := server.RunHTTPServer(cfg, log, func(r *gin.Engine) {
		maps.NewHTTPServer(repo).Register(r)
	}, opts...); err != nil {
		log.Fatalf("maps-service exited with error: %v", err)
	}
}
