package main

import (
	"context"

	"apostado/internal/config"
	"apostado/internal/constants"
	"apostado/internal/display"
	fxmodules "apostado/internal/fx"
	"apostado/internal/match"
	"apostado/internal/platform/discord"
	"apostado/internal/queue"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runBot),
	).Run()
}

func runBot(
	lc fx.Lifecycle,
	cfg *config.Config,
	adapter *discord.Adapter,
	orchestrator *match.Orchestrator,
	registry *queue.Registry,
	edits *display.EditQueue,
	logger zerolog.Logger,
) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			if err := adapter.Open(startCtx); err != nil {
				return err
			}
			orchestrator.Start()
			if err := orchestrator.Rehydrate(startCtx); err != nil {
				logger.Warn().Err(err).Msg("rehydration incomplete")
			}
			go registry.Run(ctx)
			go orchestrator.Run(ctx)
			logger.Info().Msg("bot started")
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			orchestrator.Stop()

			// Flush pending display edits, but never past the deadline.
			drained := make(chan struct{})
			go func() {
				edits.Wait()
				close(drained)
			}()
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancelShutdown()
			select {
			case <-drained:
			case <-shutdownCtx.Done():
				logger.Warn().Msg("display edits still pending at shutdown")
			}

			if err := adapter.Close(); err != nil {
				logger.Error().Err(err).Msg("gateway close failed")
				return err
			}
			logger.Info().Msg("bot stopped gracefully")
			return nil
		},
	})
}
