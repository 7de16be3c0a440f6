package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/blecap/blecap/internal/config"
	"github.com/blecap/blecap/internal/console"
	"github.com/blecap/blecap/internal/logging"
	"github.com/blecap/blecap/internal/observability"
	"github.com/blecap/blecap/internal/sniffer"
)

func main() {
	configPath := flag.String("config", "", "path to toml config file")
	device := flag.String("device", "", "serial device of the sniffer board")
	baud := flag.Int("baud", 0, "serial baud rate")
	metricsAddr := flag.String("metrics", "", "prometheus listen address, empty disables")
	flag.Parse()

	logging.ConfigureRuntime()
	logger := observability.InitLogger("blecap")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *device != "" {
		cfg.Device = *device
	}
	if *baud != 0 {
		cfg.BaudRate = *baud
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := observability.ServeMetrics(cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Msg("metrics listener stopped")
			}
		}()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics exposed")
	}

	workerCfg := sniffer.Config{
		FindScanRsp:    cfg.Scan.FindScanRsp,
		FindAux:        cfg.Scan.FindAux,
		ScanCoded:      cfg.Scan.ScanCoded,
		TemporaryKey:   cfg.Scan.TemporaryKey,
		ChannelBuffer:  cfg.Buffers.ChannelBuffer,
		ReadBuffer:     cfg.Buffers.ReadBuffer,
		ReadRetryDelay: cfg.Buffers.ReadTimeout(),
		Backoff: sniffer.BackoffConfig{
			InitialDelay: cfg.Retry.InitialDelay(),
			Multiplier:   cfg.Retry.Multiplier,
			MaxDelay:     cfg.Retry.MaxDelay(),
			Jitter:       cfg.Retry.Jitter,
		},
	}
	dial := sniffer.SerialDialer(cfg.Device, cfg.BaudRate, cfg.Buffers.ReadTimeout())
	worker := sniffer.New(workerCfg, dial, logger)
	go worker.Run()
	log.Info().Str("device", cfg.Device).Int("baud", cfg.BaudRate).Msg("capture started")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		worker.Stop()
	}()

	printer := console.NewPrinter(logger)
	for pkt := range worker.Packets() {
		printer.Handle(pkt)
	}
	<-worker.Done()
	log.Info().Msg("capture stopped")
}
