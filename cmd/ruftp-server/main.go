package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ruftp/internal/chaos"
	"ruftp/internal/config"
	"ruftp/internal/httptoy"
	"ruftp/pkg/logger"
)

const version = "1.0.0"

func main() {
	var (
		flagPort        int
		flagLossProb    float64
		flagCorruptProb float64
	)

	root := &cobra.Command{
		Use:   "ruftp-server",
		Short: "Reliable datagram transport demo server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flagPort, flagLossProb, flagCorruptProb)
		},
	}

	flags := root.Flags()
	flags.IntVar(&flagPort, "port", 0, "listen port (0 keeps the environment/default)")
	flags.Float64Var(&flagLossProb, "loss-prob", -1, "override simulated loss probability")
	flags.Float64Var(&flagCorruptProb, "corrupt-prob", -1, "override simulated corruption probability")
	pflag.CommandLine.AddFlagSet(flags)

	if err := root.Execute(); err != nil {
		logger.Fatal("server: %v", err)
	}
}

func run(ctx context.Context, flagPort int, flagLossProb, flagCorruptProb float64) error {
	logger.Banner("RUFTP Server", version)

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}
	if flagLossProb >= 0 {
		cfg.LossProb = flagLossProb
	}
	if flagCorruptProb >= 0 {
		cfg.CorruptProb = flagCorruptProb
	}

	logger.Section("Configuration")
	logger.Info("Host: %s", cfg.Host)
	logger.Info("Port: %d", cfg.Port)
	logger.Info("Timeout: %s", cfg.Timeout)
	logger.Info("Loss probability: %.2f", cfg.LossProb)
	logger.Info("Corrupt probability: %.2f", cfg.CorruptProb)
	logger.Success("Configuration loaded")

	sim := chaos.New(time.Now().UnixNano())
	sim.SetLossProb(cfg.LossProb)
	sim.SetCorruptProb(cfg.CorruptProb)

	addr := cfg.Host + ":" + strconv.Itoa(cfg.Port)
	srv, err := httptoy.NewServer(cfg.TransportConfig(), sim, addr)
	if err != nil {
		return err
	}
	defer srv.Close()

	logger.Success("Listening on %s", srv.Addr())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		for {
			if err := srv.Serve(runCtx); err != nil {
				errChan <- err
				return
			}
			logger.Info("client session ended, accepting next")
		}
	}()

	select {
	case err := <-errChan:
		if err == context.Canceled {
			return nil
		}
		logger.Error("server error: %v", err)
		return err
	case sig := <-sigChan:
		logger.Warn("received signal: %v", sig)
		cancel()
		logger.Success("server stopped")
		return nil
	}
}
