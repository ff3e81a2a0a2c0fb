package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"vidlink/internal/peer"
	"vidlink/pkg/config"
	"vidlink/pkg/logger"
	"vidlink/pkg/utils"

	"github.com/pion/webrtc/v3"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	relayURL := flag.String("relay", "", "relay base URL (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	if *relayURL != "" {
		cfg.Client.RelayURL = *relayURL
	}

	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Infow("received shutdown signal", "signal", sig)
		cancel()
	}()

	peerID := utils.GeneratePeerID()
	client := peer.NewRelayClient(cfg.Client.RelayURL, cfg.Client.RequestTimeout)

	fallback := []webrtc.ICEServer{{URLs: cfg.TURN.STUNURLs}}
	webrtcCfg := peer.FetchICEConfiguration(ctx, client, peerID, fallback, log)

	poller := peer.NewPoller(cfg.Client.PollInterval, cfg.Client.MaxPollInterval, log)
	host := peer.NewHost(client, peerID, webrtcCfg, poller, log)

	log.Infow("starting host", "peer_id", peerID, "relay", cfg.Client.RelayURL)
	if err := host.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalw("host stopped with error", "error", err)
	}
	log.Info("host stopped")
}
