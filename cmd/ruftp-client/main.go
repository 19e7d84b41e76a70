package main

import (
	"context"
	"fmt"
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
		flagAddr        string
		flagBody        string
		flagLossProb    float64
		flagCorruptProb float64
	)

	root := &cobra.Command{
		Use:   "ruftp-client METHOD PATH",
		Short: "Issue a single request over the reliable datagram transport",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flagAddr, args[0], args[1], flagBody, flagLossProb, flagCorruptProb)
		},
	}

	flags := root.Flags()
	flags.StringVar(&flagAddr, "addr", "127.0.0.1:9000", "server address")
	flags.StringVar(&flagBody, "body", "", "request body (POST only)")
	flags.Float64Var(&flagLossProb, "loss-prob", -1, "override simulated loss probability")
	flags.Float64Var(&flagCorruptProb, "corrupt-prob", -1, "override simulated corruption probability")
	pflag.CommandLine.AddFlagSet(flags)

	if err := root.Execute(); err != nil {
		logger.Fatal("client: %v", err)
	}
}

func run(ctx context.Context, addr, method, path, body string, flagLossProb, flagCorruptProb float64) error {
	logger.Banner("RUFTP Client", version)

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if flagLossProb >= 0 {
		cfg.LossProb = flagLossProb
	}
	if flagCorruptProb >= 0 {
		cfg.CorruptProb = flagCorruptProb
	}

	sim := chaos.New(time.Now().UnixNano())
	sim.SetLossProb(cfg.LossProb)
	sim.SetCorruptProb(cfg.CorruptProb)

	client := httptoy.NewClient(cfg.TransportConfig(), sim, "127.0.0.1:0", addr)

	logger.InfoCyan("%s %s -> %s", method, path, addr)

	var resp string
	switch method {
	case "GET":
		resp, err = client.Get(path)
	case "POST":
		resp, err = client.Post(path, body)
	default:
		return fmt.Errorf("unsupported method %q (only GET and POST)", method)
	}
	if err != nil {
		return err
	}

	fmt.Println(resp)
	return nil
}
