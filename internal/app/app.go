package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ninjacatsolana/nc-buyboy-v2/internal/alerting"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/config"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/cooldown"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/dedup"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/event"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/feed"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/filter"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/ingest"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/publisher"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/render"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newPoster() alerting.Poster {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramPoster(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

// buildPipeline assembles the triage pipeline and its delivery surfaces.
func (a *App) buildPipeline(store *storage.Store) (*ingest.Pipeline, *publisher.Publisher, *feed.Hub) {
	minAmount := decimal.NewFromFloat(a.Config.Filter.MinAmount)

	normalizer := event.NewNormalizer(a.Config.Filter.Mint, minAmount)
	evaluator := filter.NewEvaluator(a.Config.Filter.Mint, minAmount, a.Config.Filter.Strict)
	seen := dedup.NewSet(a.Config.Dedup.MaxSignatures)
	gate := cooldown.NewGate(a.Config.Alerting.Cooldown)
	hub := feed.NewHub(a.Logger)

	var renderer publisher.Renderer
	if a.Config.Render.Enabled {
		renderer = render.NewCardRenderer(render.Options{
			Symbol: a.Config.Render.Symbol,
			Width:  a.Config.Render.Width,
			Height: a.Config.Render.Height,
			Floor:  minAmount,
		}, a.Logger)
	}

	var poster publisher.Poster
	if tg := a.newPoster(); tg != nil {
		poster = tg
	}

	var audit storage.AlertStore
	if store != nil {
		audit = store
	}

	pub := publisher.New(publisher.Options{
		Symbol:    a.Config.Render.Symbol,
		TxURLBase: a.Config.Alerting.TxURL,
	}, renderer, poster, hub, audit, a.Logger)

	pipeline := ingest.New(normalizer, evaluator, seen, gate, pub, a.Logger)
	return pipeline, pub, hub
}
