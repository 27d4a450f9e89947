// Package engine implements the operations surface (C7): the closed set of
// verbs that compose the resource manager (C3), job record (C4), queue
// sub-indexes (C5), and worker tracking (C6) into atomic transitions. Every
// verb opens exactly one storage.Store.Exec transaction and returns either
// a result or a *queueerr.Error.
package engine

import (
	"strconv"

	"github.com/ChuLiYu/jobqueue/internal/keys"
	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

// Engine is the entry point for every job queue operation. It holds no
// mutable state of its own beyond a reference to the storage backend — all
// durable state lives behind storage.Store, which is what makes a fresh
// Engine a fresh bag of indexes rather than a process-wide singleton.
type Engine struct {
	store storage.Store
}

// New wires an Engine to a storage backend (memstore, redisstore, ...).
func New(store storage.Store) *Engine {
	return &Engine{store: store}
}

var configFields = []string{"heartbeat", "grace-period", "max-job-history", "jobs-history-count", "jobs-history"}

func loadConfig(tx storage.Tx) (types.Config, error) {
	cfg := types.DefaultConfig()
	h, err := tx.HGetAll(keys.Config)
	if err != nil {
		return cfg, err
	}
	if v, ok := h["heartbeat"]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Heartbeat = n
		}
	}
	if v, ok := h["grace-period"]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.GracePeriod = n
		}
	}
	if v, ok := h["max-job-history"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxJobHistory = n
		}
	}
	if v, ok := h["jobs-history-count"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.JobsHistoryCount = n
		}
	}
	if v, ok := h["jobs-history"]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.JobsHistory = n
		}
	}
	return cfg, nil
}

// SeedConfig writes every named tunable at once, e.g. from a process's
// startup configuration. Unlike ConfigSet it never leaves a partially
// applied tunable: all five fields share one Exec transaction.
func (e *Engine) SeedConfig(cfg types.Config) error {
	return e.store.Exec(func(tx storage.Tx) error {
		return tx.HSet(keys.Config, map[string]string{
			"heartbeat":          strconv.FormatInt(cfg.Heartbeat, 10),
			"grace-period":       strconv.FormatInt(cfg.GracePeriod, 10),
			"max-job-history":    strconv.Itoa(cfg.MaxJobHistory),
			"jobs-history-count": strconv.Itoa(cfg.JobsHistoryCount),
			"jobs-history":       strconv.FormatInt(cfg.JobsHistory, 10),
		})
	})
}

// ConfigGet reads one named tunable's current effective value.
func (e *Engine) ConfigGet(name string) (string, error) {
	var out string
	err := e.store.Exec(func(tx storage.Tx) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}
		out = configValue(cfg, name)
		return nil
	})
	return out, err
}

// ConfigSet overrides one named tunable.
func (e *Engine) ConfigSet(name, value string) error {
	return e.store.Exec(func(tx storage.Tx) error {
		return tx.HSet(keys.Config, map[string]string{name: value})
	})
}

func configValue(cfg types.Config, name string) string {
	switch name {
	case "heartbeat":
		return strconv.FormatInt(cfg.Heartbeat, 10)
	case "grace-period":
		return strconv.FormatInt(cfg.GracePeriod, 10)
	case "max-job-history":
		return strconv.Itoa(cfg.MaxJobHistory)
	case "jobs-history-count":
		return strconv.Itoa(cfg.JobsHistoryCount)
	case "jobs-history":
		return strconv.FormatInt(cfg.JobsHistory, 10)
	}
	return ""
}
