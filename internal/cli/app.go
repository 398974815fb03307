package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/fieldops/companion/internal/core/domain"
	"github.com/fieldops/companion/internal/core/ports"
	"github.com/fieldops/companion/internal/core/service"
	"github.com/fieldops/companion/internal/infrastructure/api"
	"github.com/fieldops/companion/internal/infrastructure/config"
	"github.com/fieldops/companion/internal/infrastructure/socket"
	"github.com/fieldops/companion/internal/infrastructure/storage"
	"github.com/fieldops/companion/pkg/logger"
)

// App wires configuration, storage, the API client, and all services for one
// command invocation.
type App struct {
	Config  *config.Config
	Log     zerolog.Logger
	Session *domain.Session
	Creds   ports.CredentialStore
	KV      ports.KVStore
	Client  *api.Client

	Sessions      *service.SessionService
	Notifications *service.NotificationService
	WorkOrders    *service.WorkOrderService
	Schedules     *service.ScheduleService
}

func newApp(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	session := domain.NewSession()

	var (
		creds ports.CredentialStore
		kv    ports.KVStore
	)
	switch cfg.Storage.Backend {
	case "redis":
		client, err := storage.ConnectRedis(ctx, storage.RedisConfig{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		store := storage.NewRedisStore(client)
		creds, kv = store, store
	case "file":
		dir := cfg.Storage.Dir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("resolve home dir: %w", err)
			}
			dir = filepath.Join(home, ".fieldops")
		}
		secure, err := storage.NewSecureFileStore(dir, cfg.Storage.Passphrase)
		if err != nil {
			return nil, err
		}
		local, err := storage.NewLocalFileStore(dir)
		if err != nil {
			return nil, err
		}
		creds, kv = secure, local
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	client := api.NewClient(api.Options{
		BaseURL:   cfg.APIBaseURL,
		Prefix:    cfg.APIPrefix,
		Timeout:   cfg.HTTPTimeout,
		RateLimit: cfg.RateLimit,
	}, creds, session, log)

	wsBase := cfg.WSBaseURL
	if wsBase == "" {
		wsBase = cfg.APIBaseURL
	}
	factory := func(userID string, onFrame func([]byte)) (io.Closer, error) {
		token, err := creds.AccessToken()
		if err != nil {
			return nil, err
		}
		u, err := socket.BuildURL(wsBase, userID, token)
		if err != nil {
			return nil, err
		}
		listener := socket.NewListener(socket.Config{URL: u, OnFrame: onFrame}, log)
		listener.Start()
		return listener, nil
	}

	// Restore the active location so requests carry the header even before
	// the session is repopulated.
	if loc, err := kv.Get(ctx, ports.KeyLocationID); err == nil && loc != "" {
		session.SetLocationID(loc)
	}

	return &App{
		Config:        cfg,
		Log:           log,
		Session:       session,
		Creds:         creds,
		KV:            kv,
		Client:        client,
		Sessions:      service.NewSessionService(client, creds, kv, session, log),
		Notifications: service.NewNotificationService(client, factory, log),
		WorkOrders:    service.NewWorkOrderService(client, kv, log),
		Schedules:     service.NewScheduleService(client, log),
	}, nil
}
