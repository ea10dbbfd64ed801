//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/stylecast/internal/bootstrap"
	"github.com/yanqian/stylecast/internal/domain/auth"
	"github.com/yanqian/stylecast/internal/domain/forecast"
	"github.com/yanqian/stylecast/internal/domain/outfit"
	"github.com/yanqian/stylecast/internal/infra/config"
	"github.com/yanqian/stylecast/internal/infra/weather/openweather"
	httpiface "github.com/yanqian/stylecast/internal/interface/http"
	"github.com/yanqian/stylecast/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAuthConfig,
		provideAuthRepository,
		provideWeatherClient,
		provideAggregator,
		provideAssetResolver,
		provideLikesStore,
		provideLikesSync,
		provideSyncFactory,
		forecast.NewService,
		outfit.NewService,
		auth.NewService,
		wire.Bind(new(forecast.Provider), new(*openweather.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
