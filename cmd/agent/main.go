package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/care-session/internal/audio"
	"github.com/spec-kit/care-session/internal/authapi"
	"github.com/spec-kit/care-session/internal/bootstrap"
	"github.com/spec-kit/care-session/internal/callback"
	"github.com/spec-kit/care-session/internal/config"
	"github.com/spec-kit/care-session/internal/domain"
	"github.com/spec-kit/care-session/internal/oauth"
	"github.com/spec-kit/care-session/internal/observability"
	"github.com/spec-kit/care-session/internal/store"
	"github.com/spec-kit/care-session/internal/stt"
	"github.com/spec-kit/care-session/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	sessionStore := store.NewRedisStore(cfg.Redis, logger)
	defer sessionStore.Close()

	api := authapi.NewClient(cfg.AuthAPI, logger)

	boot := bootstrap.New(bootstrap.Options{
		Store:         sessionStore,
		API:           api,
		AllowDevToken: cfg.App.AllowDevTokens(),
		Logger:        logger,
		Metrics:       metrics,
	})

	// Development convenience: issue a local placeholder session instead
	// of walking the OAuth flow.
	if role := os.Getenv("DEV_AUTOLOGIN_ROLE"); role != "" && cfg.App.AllowDevTokens() {
		devLogin(ctx, boot, role, logger)
	}

	res := boot.Resolve(ctx)
	logger.Info("session resolved",
		zap.String("status", string(res.Status)),
		zap.String("route", res.Route))

	flow := oauth.NewFlow(cfg.OAuth)
	handler := callback.NewHandler(boot, flow, api, logger)
	server := callback.NewServer(handler, logger)

	go func() {
		logger.Info("callback listener starting", zap.String("addr", cfg.Callback.Addr()))
		if err := server.Listen(cfg.Callback.Addr()); err != nil {
			logger.Fatal("callback listen", zap.Error(err))
		}
	}()

	// Connectivity probe: stream silence at the transcription backend and
	// log what comes back. Needs an authenticated session.
	var probe *stt.Session
	if os.Getenv("STT_PROBE") != "" && res.Status == bootstrap.StatusAuthenticated {
		probe = startProbe(ctx, cfg, res.Session, metrics, logger)
	}

	waitForShutdown(logger)

	if probe != nil {
		probe.StopCapture()
		probe.Close()
	}
	_ = server.Shutdown()
}

func devLogin(ctx context.Context, boot *bootstrap.Bootstrapper, rawRole string, logger *zap.Logger) {
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		logger.Warn("invalid DEV_AUTOLOGIN_ROLE", zap.String("role", rawRole))
		return
	}
	user := domain.User{ID: "0", Name: "Dev User", Email: "dev@example.com", Role: role}
	tok := token.NewDevToken(role, user.ID, time.Now())
	if err := boot.SetSession(ctx, tok, user); err != nil {
		logger.Warn("dev login failed", zap.Error(err))
	}
}

func startProbe(ctx context.Context, cfg *config.Config, session *domain.Session, metrics *observability.Metrics, logger *zap.Logger) *stt.Session {
	probe := stt.NewSession(stt.Options{
		Dialer: stt.WebsocketDialer{},
		Source: audio.NewSilenceSource(4096, 250*time.Millisecond),
		Policy: stt.PolicyFromConfig(cfg.STT),
		Handshake: stt.Handshake{
			URL:     cfg.STT.URL,
			Token:   session.Token,
			UserID:  session.User.ID,
			Timeout: cfg.STT.HandshakeTimeout(),
		},
		Format:       audio.Format{SampleRate: cfg.STT.SampleRate, Channels: cfg.STT.Channels},
		FrameSamples: cfg.STT.FrameSamples,
		Logger:       logger,
		Metrics:      metrics,
		Callbacks: stt.Callbacks{
			OnTranscript: func(text string, final bool) {
				logger.Info("transcript", zap.String("text", text), zap.Bool("final", final))
			},
			OnStateChange: func(state stt.State) {
				logger.Info("stream state", zap.String("state", string(state)))
			},
			OnError: func(err error) {
				logger.Warn("stream error", zap.Error(err))
			},
		},
	})
	probe.Open(ctx)

	go func() {
		// Give the handshake a moment, then start streaming silence.
		timer := time.NewTimer(2 * time.Second)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if err := probe.StartCapture(ctx); err != nil {
			logger.Warn("probe capture failed", zap.Error(err))
		}
	}()
	return probe
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
