package config

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/consul/api"
)

// KVPrefix Consul KV 中配置的统一前缀，完整 key 形如
// vehiclemesh/config/<service-name>。
const KVPrefix = "vehiclemesh/config/"

// KVKey 按服务名拼出该服务的配置 key。
func KVKey(serviceName string) string {
	return KVPrefix + serviceName
}

// LoadConfigFromConsulKV 从 Consul KV 读取 JSON 配置。
//
// 约定：
// - value 是 JSON，结构与 Config 一致，允许只写部分字段
// - 解析以默认配置为底，KV 中出现的字段覆盖默认值，
//   这样 KV 里只需维护与环境相关的差异项
// - 只负责一次性读取，动态 watch 由上层决定
func LoadConfigFromConsulKV(consulHost string, consulPort int, key string) (*Config, error) {
	if key == "" {
		return nil, fmt.Errorf("consul kv key is empty")
	}

	c, err := api.NewClient(&api.Config{
		Address: fmt.Sprintf("%s:%d", consulHost, consulPort),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	pair, _, err := c.KV().Get(key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get consul kv key=%s: %w", key, err)
	}
	if pair == nil || len(pair.Value) == 0 {
		return nil, fmt.Errorf("consul kv key=%s is empty or not found", key)
	}

	cfg := defaultConfig()
	if err := json.Unmarshal(pair.Value, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal consul kv json key=%s: %w", key, err)
	}
	return cfg, nil
}
