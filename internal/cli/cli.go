// Package cli provides the Cobra-based command line interface to the job
// queue engine, mirroring the verb surface of internal/engine one
// subcommand at a time.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ChuLiYu/jobqueue/internal/config"
	"github.com/ChuLiYu/jobqueue/internal/engine"
	"github.com/ChuLiYu/jobqueue/internal/metrics"
	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/internal/storage/memstore"
	"github.com/ChuLiYu/jobqueue/internal/storage/redisstore"
	"github.com/redis/go-redis/v9"
)

var (
	configFile string
	eng        *engine.Engine
	collector  *metrics.Collector
)

// BuildCLI assembles the root command and its full subcommand tree.
func BuildCLI() *cobra.Command {
	root := &cobra.Command{
		Use:   "jobqueue",
		Short: "A transactional job queueing and scheduling engine",
		Long: `jobqueue is a job queue with priority, delayed scheduling,
dependency graphs, and counted resource semaphores, addressable over
gRPC or this CLI.`,
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (defaults built in)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initEngine()
	}

	root.AddCommand(
		buildServeCommand(),
		buildPutCommand(),
		buildPopCommand(),
		buildCompleteCommand(),
		buildFailCommand(),
		buildRetryCommand(),
		buildCancelCommand(),
		buildHeartbeatCommand(),
		buildPriorityCommand(),
		buildResourceCommand(),
		buildConfigCommand(),
		buildLogCommand(),
	)
	return root
}

func initEngine() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	var store storage.Store
	switch cfg.Storage.Backend {
	case "redis":
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Storage.Redis.Addr},
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		store = redisstore.New(client)
	case "", "memory":
		store = memstore.New()
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	eng = engine.New(store)
	if err := eng.SeedConfig(cfg.EngineConfig()); err != nil {
		return err
	}
	collector = metrics.NewCollector()
	return nil
}

func now() int64 { return time.Now().Unix() }

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newJid(flag string) string {
	if flag != "" {
		return flag
	}
	return uuid.NewString()
}

func logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}
