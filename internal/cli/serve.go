package cli

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ChuLiYu/jobqueue/internal/config"
	transportgrpc "github.com/ChuLiYu/jobqueue/internal/transport/grpc"
)

func buildServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC server (and metrics endpoint) until signaled",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	return cmd
}

func serve() error {
	log := logger()
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		go func() {
			log.Info("starting metrics server", "addr", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, collector.Handler()); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	srv := transportgrpc.NewServer(eng)
	go func() {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Addr)
		if err := transportgrpc.Serve(cfg.GRPC.Addr, srv); err != nil {
			log.Error("gRPC server stopped", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
	return nil
}
