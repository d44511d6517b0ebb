package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperionmesh/hyperion/internal/config"
	"github.com/hyperionmesh/hyperion/internal/echo"
	"github.com/hyperionmesh/hyperion/internal/logging"
	"github.com/hyperionmesh/hyperion/internal/stats"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	opts := parseFlags()

	switch opts.subcommand {
	case "init":
		if err := config.WriteTemplate(opts.configPath, opts.force); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("wrote config template to %s\n", opts.configPath)
	case "serve":
		runServe(opts)
	case "send":
		runSend(opts)
	default:
		fatalf("unknown subcommand %q (supported: init, serve, send)", opts.subcommand)
	}
}

type options struct {
	subcommand  string
	configPath  string
	force       bool
	metricsAddr string
	message     string
}

func parseFlags() options {
	fs := flag.NewFlagSet("hyperion-echo", flag.ExitOnError)
	configPath := fs.String("config", "hyperion-echo.toml", "path to the TOML config file")
	force := fs.Bool("force", false, "overwrite an existing config file (init only)")
	metricsAddr := fs.String("metrics-addr", "", "if set, serve Prometheus metrics on this address")
	message := fs.String("message", "hello from hyperion-echo", "payload to send (send only)")

	if len(os.Args) < 2 {
		fatalf("usage: hyperion-echo <init|serve|send> [flags]")
	}
	sub := os.Args[1]
	_ = fs.Parse(os.Args[2:])

	return options{
		subcommand:  sub,
		configPath:  *configPath,
		force:       *force,
		metricsAddr: *metricsAddr,
		message:     *message,
	}
}

func runServe(opts options) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fatalf("%v", err)
	}
	logger := logging.ConfigureRuntime()

	if opts.metricsAddr != "" {
		stats.Register()
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(opts.metricsAddr, mux); err != nil {
				logger.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	svc := echo.New(cfg, logger)
	ln, err := svc.Listen()
	if err != nil {
		fatalf("%v", err)
	}
	logger.Info().Str("addr", ln.Addr().String()).Str("mode", string(cfg.Mode)).Msg("hyperion-echo listening")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := svc.Serve(ctx, ln); err != nil {
		fatalf("%v", err)
	}
}

func runSend(opts options) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fatalf("%v", err)
	}
	logging.ConfigureRuntime()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got, err := echo.SendAndReceive(ctx, cfg, []byte(opts.message))
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("echoed %d bytes: %s\n", len(got), got)
}

func fatalf(format string, args ...any) {
	log.Error().Msgf(format, args...)
	os.Exit(1)
}
