package discovery

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/hashicorp/consul/api"
)

// NewConsulClient 创建Consul客户端
func NewConsulClient(host string, port int) (*api.Client, error) {
	config := api.DefaultConfig()
	config.Address = fmt.Sprintf("%s:%d", host, port)
	return api.NewClient(config)
}

// ServiceRegistry Consul服务注册（HTTP 健康检查）
type ServiceRegistry struct {
	client    *api.Client
	serviceID string
	service   string
	address   string
	port      int
	tags      []string
	check     *api.AgentServiceCheck
}

// NewServiceRegistry 创建服务注册器。健康检查探测 /healthz。
func NewServiceRegistry(client *api.Client, serviceID, service, address string, port int, tags []string) *ServiceRegistry {
	return &ServiceRegistry{
		client:    client,
		serviceID: serviceID,
		service:   service,
		address:   address,
		port:      port,
		tags:      tags,
		check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/healthz", address, port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s",
		},
	}
}

// Register 注册服务
func (r *ServiceRegistry) Register() error {
	registration := &api.AgentServiceRegistration{
		ID:      r.serviceID,
		Name:    r.service,
		Tags:    r.tags,
		Address: r.address,
		Port:    r.port,
		Check:   r.check,
	}

	return r.client.Agent().ServiceRegister(registration)
}

// Deregister 注销服务
func (r *ServiceRegistry) Deregister() error {
	return r.client.Agent().ServiceDeregister(r.serviceID)
}

// Picker 从 Consul 解析健康实例地址，供 HTTP 客户端选址。
// 内部做短 TTL 缓存，避免每次远程调用都打一次 Consul。
type Picker struct {
	client *api.Client
	ttl    time.Duration

	mu    sync.Mutex
	cache map[string]pickerEntry
	rnd   *rand.Rand
}

type pickerEntry struct {
	addrs     []string
	expiresAt time.Time
}

// NewPicker 创建实例选择器
func NewPicker(client *api.Client) *Picker {
	return &Picker{
		client: client,
		ttl:    5 * time.Second,
		cache:  make(map[string]pickerEntry),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Pick 返回一个健康实例的 "host:port" 地址（多实例时随机）。
func (p *Picker) Pick(service string) (string, error) {
	if p == nil || p.client == nil {
		return "", fmt.Errorf("picker not initialized")
	}
	if service == "" {
		return "", fmt.Errorf("service name is empty")
	}

	p.mu.Lock()
	entry, ok := p.cache[service]
	if ok && time.Now().Before(entry.expiresAt) && len(entry.addrs) > 0 {
		addr := entry.addrs[p.rnd.Intn(len(entry.addrs))]
		p.mu.Unlock()
		return addr, nil
	}
	p.mu.Unlock()

	services, _, err := p.client.Health().Service(service, "", true, nil)
	if err != nil {
		return "", fmt.Errorf("failed to query consul for %s: %w", service, err)
	}
	if len(services) == 0 {
		return "", fmt.Errorf("no healthy instance for service %s", service)
	}

	addrs := make([]string, 0, len(services))
	for _, s := range services {
		host := s.Service.Address
		if host == "" {
			host = s.Node.Address
		}
		addrs = append(addrs, fmt.Sprintf("%s:%d", host, s.Service.Port))
	}

	p.mu.Lock()
	p.cache[service] = pickerEntry{addrs: addrs, expiresAt: time.Now().Add(p.ttl)}
	addr := addrs[p.rnd.Intn(len(addrs))]
	p.mu.Unlock()

	return addr, nil
}
