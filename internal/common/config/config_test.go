package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigSingleton(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.json")
	content := `{
		"server": {"name": "vehicles-api", "host": "127.0.0.1", "port": 9090},
		"log": {"level": "info", "format": "json", "output": "stdout"}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Log.Format != "json" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	// 单例：第二次加载返回同一份配置，即使路径不同
	again, err := LoadConfig(filepath.Join(dir, "other.json"))
	if err != nil {
		t.Fatalf("LoadConfig second call: %v", err)
	}
	if again != cfg {
		t.Error("expected the same config instance on repeated loads")
	}
	if GetConfig() != cfg {
		t.Error("GetConfig should return the loaded instance")
	}
}

func TestClientTimeoutDefault(t *testing.T) {
	var c ClientConfig
	if got := c.ClientTimeout(); got != 2000 {
		t.Errorf("expected default 2000ms, got %d", got)
	}
	c.TimeoutMS = 500
	if got := c.ClientTimeout(); got != 500 {
		t.Errorf("expected 500ms, got %d", got)
	}
}

func TestKVKey(t *testing.T) {
	if got := KVKey("pricing-service"); got != "vehiclemesh/config/pricing-service" {
		t.Errorf("unexpected kv key: %q", got)
	}
}
