package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"hostelnotify/internal/config"
	"hostelnotify/internal/devicetoken"
	"hostelnotify/internal/handlers"
	"hostelnotify/internal/logger"
	"hostelnotify/internal/metrics"
	"hostelnotify/internal/push"
	"hostelnotify/internal/pushchannel"
	"hostelnotify/internal/server"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	if err := cfg.ValidateServer(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Notification API stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	firebaseClient, err := config.InitFirebase(ctx)
	if err != nil {
		return err
	}
	defer firebaseClient.Close()

	tokens := devicetoken.NewFirestoreRepository(firebaseClient.Firestore)
	sender := push.NewSender(firebaseClient.Messaging, cfg.AppOrigin, slog.Default(), m)

	var relay handlers.Relay
	if cfg.NATSURL != "" {
		nc, err := pushchannel.Connect(cfg.NATSURL, "hostelnotify-server")
		if err != nil {
			return err
		}
		defer nc.Close()
		relay = pushchannel.NewPublisher(nc, cfg.PushSubjectPrefix, slog.Default())
		slog.Info("Push channel relay enabled", "url", cfg.NATSURL)
	}

	srv := server.NewServer(cfg, handlers.New(tokens, sender, relay), reg)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down notification API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
