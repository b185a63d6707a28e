package main

import (
	"flag"
	"fmt"
	"net"
	"strconv"

	"github.com/VehicleMesh/VehicleMesh/internal/client"
	"github.com/VehicleMesh/VehicleMesh/internal/common/config"
	"github.com/VehicleMesh/VehicleMesh/internal/common/db"
	"github.com/VehicleMesh/VehicleMesh/internal/common/discovery"
	"github.com/VehicleMesh/VehicleMesh/internal/common/logger"
	"github.com/VehicleMesh/VehicleMesh/internal/common/server"
	"github.com/VehicleMesh/VehicleMesh/internal/common/tracing"
	"github.com/VehicleMesh/VehicleMesh/internal/vehicle"
	"github.com/gin-gonic/gin"
)

var (
	configPath = flag.String("config", "configs/vehicles-api.json", "配置文件路径")
	consulAddr = flag.String("consul-config", "", "从 Consul KV 加载配置，格式 host:port，优先于本地文件")
)

func main() {
	flag.Parse()

	// 加载配置：指定了 Consul 地址就从 KV 读，否则读本地文件
	cfg, err := loadConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 初始化日志
	log, err := logger.New("", cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 初始化链路追踪
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

	// 初始化数据库
	gormDB, err := db.NewMySQL(cfg.Database)
	if err != nil {
		log.Fatalf("failed to init mysql: %v", err)
	}
	if err := gormDB.AutoMigrate(&vehicle.Car{}, &vehicle.Manufacturer{}); err != nil {
		log.Fatalf("failed to migrate mysql schema: %v", err)
	}

	// 下游客户端：Consul 选址失败时回退到静态地址
	var picker *discovery.Picker
	if consulClient, err := discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port); err != nil {
		log.Warnf("failed to connect to Consul for client discovery: %v", err)
	} else {
		picker = discovery.NewPicker(consulClient)
	}
	priceClient := client.NewPricingClient(cfg.Clients.Pricing, picker, log)
	mapsClient := client.NewMapsClient(cfg.Clients.Maps, picker, log)

	svc := vehicle.NewService(vehicle.NewRepo(gormDB), priceClient, mapsClient, log)

	if err := server.RunHTTPServer(cfg, log, func(r *gin.Engine) {
		vehicle.NewHTTPServer(svc).Register(r)
	}); err != nil {
		log.Fatalf("vehicles-api exited with error: %v", err)
	}
}

func loadConfig() (*config.Config, error) {
	if *consulAddr == "" {
		return config.LoadConfig(*configPath)
	}
	host, port, err := splitHostPort(*consulAddr)
	if err != nil {
		return nil, err
	}
	return config.LoadConfigFromConsulKV(host, port, config.KVKey("vehicles-api"))
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid consul address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid consul port %q: %w", portStr, err)
	}
	return host, port, nil
}
