package fx

import (
	"apostado/internal/billing"
	"apostado/internal/config"
	"apostado/internal/display"
	"apostado/internal/logger"
	"apostado/internal/match"
	"apostado/internal/mediator"
	"apostado/internal/platform"
	"apostado/internal/platform/discord"
	"apostado/internal/queue"
	"apostado/internal/rank"
	"apostado/internal/store"

	"go.uber.org/fx"
)

func ProvidePlatform(a *discord.Adapter) platform.Platform {
	return a
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(store.New),
	// chat platform
	fx.Provide(discord.New),
	fx.Provide(ProvidePlatform),
	fx.Provide(display.NewEditQueue),
	// domain services
	fx.Provide(mediator.NewDirectory),
	fx.Provide(queue.NewRegistry),
	fx.Provide(billing.NewLedger),
	fx.Provide(rank.NewBoard),
	fx.Provide(match.NewRecorder),
	fx.Provide(match.NewOrchestrator),
)
