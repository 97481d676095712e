package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jdy4236/mask/api/ws"
	"github.com/jdy4236/mask/config"
	"github.com/jdy4236/mask/internal/activity"
	"github.com/jdy4236/mask/internal/auth"
	"github.com/jdy4236/mask/internal/crypto"
	"github.com/jdy4236/mask/internal/nats"
	"github.com/jdy4236/mask/internal/registry"
	"github.com/jdy4236/mask/internal/stats"
	"github.com/jdy4236/mask/internal/store"
	"github.com/jdy4236/mask/pkg/logger"
	"github.com/jdy4236/mask/service"
)

// App represents the main application structure holding all dependencies.
type App struct {
	cfg        config.Config
	logger     logger.Logger
	store      store.Store
	natsClient *nats.NATSClient
	sampler    *stats.Sampler
	aggregator *stats.Aggregator
	httpServer *http.Server
	rootCtx    context.Context
	cancel     context.CancelFunc
}

// NewApp initializes and connects all application dependencies.
func NewApp(cfg config.Config) (*App, error) {
	baseLogger := logger.NewLogger(cfg.LogLevel, cfg.LogFile)
	rootCtx := logger.NewContext(context.Background(), baseLogger)
	rootCtx, rootCancel := context.WithCancel(rootCtx)

	log := logger.FromContext(rootCtx).WithModule("app")
	log.Infof("Initializing application components...")

	st, err := store.NewSQLiteStore(cfg.DatabaseDSN)
	if err != nil {
		rootCancel()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	natsClient, err := nats.NewNATSClient(cfg.NATSURL)
	if err != nil {
		rootCancel()
		st.Close()
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	var msgCipher *crypto.Cipher
	if cfg.CryptoSecret != "" {
		msgCipher, err = crypto.NewCipher(cfg.CryptoSecret)
		if err != nil {
			rootCancel()
			natsClient.Close()
			st.Close()
			return nil, fmt.Errorf("failed to initialize message cipher: %w", err)
		}
	} else {
		log.Warnf("crypto_secret not set, message content will be stored unencrypted")
	}

	reg := registry.NewRegistry()
	tracker := activity.NewTracker()
	verifier := auth.NewVerifier(cfg.JWTSecret, st)
	chatService := service.NewChatService(st, reg, tracker, msgCipher, natsClient, baseLogger)

	sampler := stats.NewSampler(
		time.Duration(cfg.SampleIntervalSeconds)*time.Second,
		cfg.SampleWindow,
		baseLogger,
	)
	aggregator := stats.NewAggregator(
		st, reg, tracker, sampler, natsClient,
		time.Duration(cfg.ActivityWindowSeconds)*time.Second,
		baseLogger,
	)

	httpServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: ws.SetupWebSocketRoutes(ws.WSConfig{
			ChatService: chatService,
			Verifier:    verifier,
			RootCtx:     rootCtx,
		}),
	}

	app := &App{
		cfg:        cfg,
		logger:     log,
		store:      st,
		natsClient: natsClient,
		sampler:    sampler,
		aggregator: aggregator,
		httpServer: httpServer,
		rootCtx:    rootCtx,
		cancel:     rootCancel,
	}

	log.Infof("Application initialized successfully")
	return app, nil
}

// Start runs the application and handles graceful shutdown on signal.
func (a *App) Start() error {
	log := a.logger.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
	})
	log.Infof("Starting application server")

	go a.sampler.Run(a.rootCtx)
	go func() {
		if err := a.aggregator.Run(a.rootCtx); err != nil {
			log.Errorf("stats aggregator stopped: %v", err)
		}
	}()

	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Warnf("Received shutdown signal: %s", sig)

	return a.Stop()
}

// Stop gracefully shuts down the server and closes all connections.
func (a *App) Stop() error {
	a.logger.Infof("Initiating graceful shutdown")

	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Errorf("HTTP server shutdown error: %v", err)
	}

	a.logger.Infof("Closing NATS connection")
	a.natsClient.Close()

	a.logger.Infof("Closing store")
	if err := a.store.Close(); err != nil {
		a.logger.Errorf("store close error: %v", err)
	}

	a.logger.Infof("Shutdown completed successfully")
	return nil
}
