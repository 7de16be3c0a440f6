package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the blecap runtime configuration, loaded from a toml file.
// Command-line flags may override individual fields after Load.
type Config struct {
	Device      string `toml:"device"`
	BaudRate    int    `toml:"baud_rate"`
	MetricsAddr string `toml:"metrics_addr"`

	Scan    ScanConfig    `toml:"scan"`
	Retry   RetryConfig   `toml:"retry"`
	Buffers BuffersConfig `toml:"buffers"`
}

type ScanConfig struct {
	FindScanRsp  bool  `toml:"find_scan_rsp"`
	FindAux      bool  `toml:"find_aux"`
	ScanCoded    bool  `toml:"scan_coded"`
	TemporaryKey uint8 `toml:"temporary_key"`
}

type RetryConfig struct {
	InitialDelayMS int     `toml:"initial_delay_ms"`
	Multiplier     float64 `toml:"multiplier"`
	MaxDelayMS     int     `toml:"max_delay_ms"`
	Jitter         bool    `toml:"jitter"`
}

type BuffersConfig struct {
	ChannelBuffer int `toml:"channel_buffer"`
	ReadBuffer    int `toml:"read_buffer"`
	ReadTimeoutMS int `toml:"read_timeout_ms"`
}

func Default() Config {
	return Config{
		BaudRate: 460800,
		Retry: RetryConfig{
			InitialDelayMS: 500,
			Multiplier:     2.0,
			MaxDelayMS:     5000,
			Jitter:         true,
		},
		Buffers: BuffersConfig{
			ChannelBuffer: 256,
			ReadBuffer:    1024,
			ReadTimeoutMS: 100,
		},
	}
}

// Load reads path and fills unset fields with defaults. An empty path
// yields pure defaults so the tool runs without a file. Callers validate
// after applying flag overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.BaudRate == 0 {
		cfg.BaudRate = def.BaudRate
	}
	if cfg.Retry.InitialDelayMS == 0 {
		cfg.Retry.InitialDelayMS = def.Retry.InitialDelayMS
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry.Multiplier = def.Retry.Multiplier
	}
	if cfg.Retry.MaxDelayMS == 0 {
		cfg.Retry.MaxDelayMS = def.Retry.MaxDelayMS
	}
	if cfg.Buffers.ChannelBuffer == 0 {
		cfg.Buffers.ChannelBuffer = def.Buffers.ChannelBuffer
	}
	if cfg.Buffers.ReadBuffer == 0 {
		cfg.Buffers.ReadBuffer = def.Buffers.ReadBuffer
	}
	if cfg.Buffers.ReadTimeoutMS == 0 {
		cfg.Buffers.ReadTimeoutMS = def.Buffers.ReadTimeoutMS
	}
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Device) == "" {
		return fmt.Errorf("config missing device")
	}
	if cfg.BaudRate <= 0 {
		return fmt.Errorf("config baud_rate must be positive")
	}
	if cfg.Retry.InitialDelayMS < 0 || cfg.Retry.MaxDelayMS < 0 {
		return fmt.Errorf("config retry delays must not be negative")
	}
	if cfg.Retry.Multiplier < 1.0 {
		return fmt.Errorf("config retry multiplier must be >= 1.0")
	}
	return nil
}

func (c RetryConfig) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelayMS) * time.Millisecond
}

func (c RetryConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMS) * time.Millisecond
}

func (c BuffersConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}
