package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hostelnotify/internal/appstate"
	"hostelnotify/internal/auth"
	"hostelnotify/internal/config"
	"hostelnotify/internal/dispatch"
	"hostelnotify/internal/host"
	"hostelnotify/internal/listener"
	"hostelnotify/internal/logger"
	"hostelnotify/internal/metrics"
	"hostelnotify/internal/notification"
	"hostelnotify/internal/pushchannel"
	"hostelnotify/internal/store"
	"hostelnotify/internal/token"
)

func main() {
	cfg := config.Load()
	log := logger.Init(cfg.LogLevel)

	if err := cfg.ValidateAgent(); err != nil {
		log.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Notification agent stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	capability, err := host.ParseCapability(cfg.HostCapability)
	if err != nil {
		return err
	}

	m := metrics.New(nil)
	state := appstate.New(capability)
	defer state.Teardown()

	console := host.NewConsole(host.ConsoleConfig{Focused: capability == host.Native}, log)

	db, err := store.NewSQLiteStore(cfg.LocalDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	installationID, err := db.InstallationID(ctx)
	if err != nil {
		return err
	}

	bearer := cfg.AuthToken
	if bearer == "" {
		bearer, err = auth.GenerateToken(cfg.JWTSecret, cfg.UserID, cfg.UserRole, cfg.HostelID, 30*24*time.Hour)
		if err != nil {
			return err
		}
	}

	tokens := token.NewManager(token.ManagerConfig{
		State:          state,
		Permissions:    console,
		Source:         console,
		Store:          db,
		Registrar:      token.NewHTTPRegistrar(cfg.BackendURL, bearer),
		Identity:       token.Identity{UserID: cfg.UserID, Role: cfg.UserRole, HostelID: cfg.HostelID},
		InstallationID: installationID,
		Logger:         log,
		Metrics:        m,
	})
	tokens.Start(ctx)
	defer tokens.Close()

	if _, ok := tokens.Initialize(ctx); !ok {
		log.Warn("Notifications unavailable on this installation")
	}
	go tokens.Watch(ctx, console.TokenRefreshes())

	var relay dispatch.Relay
	var pushes <-chan []byte
	if cfg.NATSURL != "" {
		nc, err := pushchannel.Connect(cfg.NATSURL, "hostelnotify-agent-"+installationID)
		if err != nil {
			return err
		}
		defer nc.Close()

		sub, err := pushchannel.NewSubscriber(nc, cfg.PushSubjectPrefix, subscriptionScopes(cfg), log)
		if err != nil {
			return err
		}
		go func() {
			if err := sub.Run(ctx); err != nil {
				log.Error("Push subscriber failed", "error", err)
			}
		}()

		relay = pushchannel.NewPublisher(nc, cfg.PushSubjectPrefix, log)
		pushes = sub.Pushes()
	}

	facade := dispatch.New(dispatch.Config{
		State:     state,
		Scheduler: console,
		Notifier:  console,
		Presence:  console,
		Relay:     relay,
		Logger:    log,
		Metrics:   m,
	})
	defer facade.Wait()

	go func() {
		cmds := &commands{facade: facade, cfg: cfg, logger: log}
		if err := console.ReadCommands(ctx, os.Stdin, cmds.handle); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("Console input closed", "error", err)
		}
	}()

	bg := listener.New(listener.Config{
		Origin:   cfg.AppOrigin,
		Notifier: console,
		Windows:  console,
		Logger:   log,
		Metrics:  m,
	})

	log.Info("Notification agent started",
		"installation_id", installationID,
		"capability", capability.String(),
		"push_channel", cfg.NATSURL != "")

	if err := bg.Run(ctx, pushes, console.Interactions()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("Notification agent stopped")
	return nil
}

// subscriptionScopes lists the recipient scopes this installation listens on.
func subscriptionScopes(cfg *config.Config) []notification.RecipientScope {
	scopes := []notification.RecipientScope{
		notification.HostelScope(cfg.HostelID),
		notification.RoleScope(cfg.UserRole),
	}

	tenantID := cfg.TenantID
	if tenantID == "" && cfg.UserRole == "tenant" {
		tenantID = cfg.UserID
	}
	if tenantID != "" {
		scopes = append(scopes, notification.TenantScope(tenantID))
	}
	return scopes
}
