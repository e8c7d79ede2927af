package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/p-n-ai/medstudy/internal/ai"
	"github.com/p-n-ai/medstudy/internal/curriculum"
	"github.com/p-n-ai/medstudy/internal/mentor"
	"github.com/p-n-ai/medstudy/internal/platform/cache"
	"github.com/p-n-ai/medstudy/internal/platform/config"
	"github.com/p-n-ai/medstudy/internal/platform/database"
	"github.com/p-n-ai/medstudy/internal/snapshot"
	"github.com/p-n-ai/medstudy/internal/tracker"
)

// deps holds everything opened at startup; close releases it in reverse.
type deps struct {
	backend snapshot.Backend
	events  tracker.EventLogger
	db      *database.DB
	cache   *cache.Cache
	closers []func()
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// openStorage connects the services the configured backend and cache need.
func openStorage(ctx context.Context, cfg *config.Config) (*deps, error) {
	d := &deps{events: tracker.NopEventLogger{}}

	if cfg.NeedsCache() {
		c, err := cache.New(ctx, cfg.Cache.URL)
		switch {
		case err == nil:
			d.cache = c
			d.closers = append(d.closers, func() { c.Close() })
			slog.Info("cache connected")
		case cfg.Storage.Backend == config.BackendRedis:
			d.close()
			return nil, fmt.Errorf("connecting cache: %w", err)
		default:
			slog.Warn("cache unavailable, tip caching disabled", "error", err)
		}
	}

	var err error
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		d.backend = snapshot.NewMemoryBackend(nil)
	case config.BackendFile:
		if err = ensureDir(cfg.Storage.Path); err == nil {
			d.backend, err = snapshot.NewFileBackend(cfg.Storage.Path)
		}
	case config.BackendSQLite:
		if err = ensureDir(cfg.Storage.SQLitePath); err == nil {
			d.backend, err = snapshot.NewSQLiteBackend(ctx, cfg.Storage.SQLitePath)
		}
	case config.BackendRedis:
		d.backend, err = snapshot.NewRedisBackend(d.cache.Client, cfg.Storage.Slot)
	case config.BackendPostgres:
		d.backend, err = openPostgres(ctx, cfg, d)
	default:
		err = fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		d.close()
		return nil, fmt.Errorf("opening %s backend: %w", cfg.Storage.Backend, err)
	}
	b := d.backend
	d.closers = append(d.closers, func() {
		if err := b.Close(); err != nil {
			slog.Warn("closing backend", "backend", b.Name(), "error", err)
		}
	})
	return d, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, d *deps) (snapshot.Backend, error) {
	db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return nil, err
	}
	d.db = db
	d.closers = append(d.closers, db.Close)
	if err := db.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	d.events = tracker.NewPostgresEventLogger(db.Pool, cfg.Storage.Slot)
	slog.Info("database connected")
	return snapshot.NewPostgresBackend(db.Pool, cfg.Storage.Slot)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

// seedDefaults loads the seed curriculum and applies the exam preferences
// from the environment.
func seedDefaults(cfg *config.Config) (snapshot.Defaults, error) {
	loader, err := curriculum.NewLoader(cfg.CurriculumPath)
	if err != nil {
		return snapshot.Defaults{}, err
	}
	return snapshot.Defaults{
		Areas:          loader.Areas(),
		HotTopics:      loader.HotTopics(),
		Theme:          "light",
		PrimaryColor:   "blue",
		TargetExamName: cfg.Exam.Name,
		TargetExamDate: cfg.Exam.Date,
	}, nil
}

// newRouter registers every provider that has an API key. Gemini goes first.
func newRouter(cfg config.AIConfig) *ai.Router {
	router := ai.NewRouter()
	if cfg.Google.APIKey != "" {
		router.Register("google", ai.NewGoogleProvider(cfg.Google.APIKey, ai.WithGoogleModel(cfg.Google.Model)))
		slog.Info("AI provider registered", "provider", "google", "model", cfg.Google.Model)
	}
	if cfg.OpenAI.APIKey != "" {
		opts := []ai.OpenAIOption{ai.WithModel(cfg.OpenAI.Model)}
		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, ai.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		router.Register("openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey, opts...))
		slog.Info("AI provider registered", "provider", "openai", "model", cfg.OpenAI.Model)
	}
	return router
}

func newMentor(cfg *config.Config, c *cache.Cache) *mentor.Service {
	mc := mentor.Config{
		Budget:  ai.NewDailyBudget(int64(cfg.AI.DailyTokenBudget)),
		Timeout: cfg.AI.Timeout(),
		TipTTL:  cfg.Cache.TipTTL(),
	}
	if router := newRouter(cfg.AI); router.HasProvider() {
		mc.Generator = router
	} else {
		slog.Warn("no AI provider configured, mentor replies will use fallback text")
	}
	if c != nil && cfg.Cache.Enabled {
		mc.Cache = c
	}
	return mentor.New(mc)
}
