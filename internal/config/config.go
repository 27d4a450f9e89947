// Package config loads the engine's process-level configuration: which
// storage backend to run against, where to listen, and the starting values
// for the engine's named tunables (C1). File values can be overridden by
// environment variables, following the teacher's config layering.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ChuLiYu/jobqueue/pkg/types"
	"gopkg.in/yaml.v3"
)

// Config is the full process configuration, loaded from YAML and then
// patched by JOBQUEUE_* environment variables.
type Config struct {
	Storage struct {
		Backend string `yaml:"backend"` // "memory" or "redis"
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"storage"`

	GRPC struct {
		Addr string `yaml:"addr"`
	} `yaml:"grpc"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`

	Engine struct {
		Heartbeat        int64 `yaml:"heartbeat"`
		GracePeriod      int64 `yaml:"grace_period"`
		MaxJobHistory    int   `yaml:"max_job_history"`
		JobsHistoryCount int   `yaml:"jobs_history_count"`
		JobsHistory      int64 `yaml:"jobs_history"`
	} `yaml:"engine"`
}

// Default returns the built-in configuration: an in-memory store, gRPC on
// :50051, metrics on :9090, and the engine's documented tunable defaults.
func Default() Config {
	var c Config
	c.Storage.Backend = "memory"
	c.GRPC.Addr = ":50051"
	c.Metrics.Enabled = true
	c.Metrics.Addr = ":9090"

	d := types.DefaultConfig()
	c.Engine.Heartbeat = d.Heartbeat
	c.Engine.GracePeriod = d.GracePeriod
	c.Engine.MaxJobHistory = d.MaxJobHistory
	c.Engine.JobsHistoryCount = d.JobsHistoryCount
	c.Engine.JobsHistory = d.JobsHistory
	return c
}

// Load reads a YAML config file, falling back to Default for any field
// absent from both the file and the environment. path may be empty, in
// which case only defaults and environment overrides apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("JOBQUEUE_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("JOBQUEUE_REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("JOBQUEUE_REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := os.Getenv("JOBQUEUE_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Redis.DB = n
		}
	}
	if v := os.Getenv("JOBQUEUE_GRPC_ADDR"); v != "" {
		cfg.GRPC.Addr = v
	}
	if v := os.Getenv("JOBQUEUE_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("JOBQUEUE_HEARTBEAT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Engine.Heartbeat = n
		}
	}
	if v := os.Getenv("JOBQUEUE_GRACE_PERIOD"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Engine.GracePeriod = n
		}
	}
}

// EngineConfig projects the engine-relevant tunables out as a types.Config,
// the shape internal/engine seeds a fresh store's "config" hash with.
func (c Config) EngineConfig() types.Config {
	return types.Config{
		Heartbeat:        c.Engine.Heartbeat,
		GracePeriod:      c.Engine.GracePeriod,
		MaxJobHistory:    c.Engine.MaxJobHistory,
		JobsHistoryCount: c.Engine.JobsHistoryCount,
		JobsHistory:      c.Engine.JobsHistory,
	}
}
