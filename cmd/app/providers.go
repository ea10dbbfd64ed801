package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/stylecast/internal/domain/auth"
	"github.com/yanqian/stylecast/internal/domain/forecast"
	"github.com/yanqian/stylecast/internal/domain/likes"
	"github.com/yanqian/stylecast/internal/domain/outfit"
	"github.com/yanqian/stylecast/internal/infra/assets"
	"github.com/yanqian/stylecast/internal/infra/config"
	"github.com/yanqian/stylecast/internal/infra/likesstore"
	"github.com/yanqian/stylecast/internal/infra/userrepo"
	"github.com/yanqian/stylecast/internal/infra/weather/openweather"
	httpiface "github.com/yanqian/stylecast/internal/interface/http"
)

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:          cfg.Auth.Secret,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	}
}

func provideWeatherClient(cfg *config.Config) (*openweather.Client, error) {
	return openweather.NewClient(cfg.Weather.APIKey, cfg.Weather.BaseURL)
}

func provideAggregator(cfg *config.Config, logger *slog.Logger) *forecast.Aggregator {
	loc, err := time.LoadLocation(cfg.Forecast.Timezone)
	if err != nil {
		logger.Error("invalid forecast timezone, falling back to UTC", "timezone", cfg.Forecast.Timezone, "error", err)
		loc = time.UTC
	}
	return forecast.NewAggregator(loc)
}

func provideAssetResolver(cfg *config.Config, logger *slog.Logger) outfit.AssetResolver {
	if cfg.Assets.Enabled {
		resolver, err := assets.NewMinioResolver(
			cfg.Assets.Endpoint,
			cfg.Assets.AccessKey,
			cfg.Assets.SecretKey,
			cfg.Assets.Bucket,
			cfg.Assets.Region,
			logger,
		)
		if err != nil {
			logger.Error("failed to initialize object storage resolver, using static assets", "error", err)
		} else {
			logger.Info("object storage asset resolver enabled", "bucket", cfg.Assets.Bucket)
			return resolver
		}
	}
	return assets.NewStaticResolver(cfg.Assets.StaticURL)
}

func provideLikesStore(cfg *config.Config, logger *slog.Logger) likes.DocumentStore {
	if cfg.Likes.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg.Likes.Valkey.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return likesstore.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return likesstore.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
		} else {
			logger.Info("likes valkey store enabled", "addr", cfg.Likes.Valkey.Addr)
			return likesstore.NewValkeyStore(client, cfg.Likes.Prefix)
		}
	}
	return likesstore.NewMemoryStore()
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(addr, "://") {
		opt, err = valkey.ParseURL(addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideAuthRepository(cfg *config.Config, logger *slog.Logger) auth.Repository {
	fallback := userrepo.NewMemoryRepository()
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory user repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory user repository", "error", err)
		return fallback
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory user repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory user repository", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("postgres user repository enabled")
	return userrepo.NewPostgresRepository(pool)
}

func provideLikesSync(store likes.DocumentStore, logger *slog.Logger) *likes.Sync {
	return likes.NewSync(store, logger)
}

func provideSyncFactory(store likes.DocumentStore, logger *slog.Logger) httpiface.SyncFactory {
	return func() *likes.Sync {
		return likes.NewSync(store, logger)
	}
}
