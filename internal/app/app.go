package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"notion-herald/internal/config"
	"notion-herald/internal/notify"
	"notion-herald/internal/notion"
)

// Sender delivers a rendered digest.
type Sender interface {
	Send(ctx context.Context, message string) (string, error)
}

// Package-level hooks so tests can swap the external collaborators.
var (
	newServiceFunc = func(token string, cfg *config.Config, logger *zap.Logger) notion.Service {
		return notion.NewClient(token, logger,
			notion.WithBaseURL(cfg.Notion.BaseURL),
			notion.WithVersion(cfg.Notion.Version),
		)
	}
	newSenderFunc = func(webhookURL string, logger *zap.Logger) Sender {
		return notify.NewNotifier(webhookURL, logger)
	}
	nowFunc = time.Now
)

// App runs one invocation against a freshly loaded config. Nothing read
// from the property store is kept between calls.
type App struct {
	cfg    *config.Config
	store  config.Store
	logger *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *App {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{cfg: cfg, store: cfg.Store(), logger: logger}
}

// WithStore replaces the property store, e.g. with a fixture map.
func (a *App) WithStore(s config.Store) *App {
	a.store = s
	return a
}

// runLogger tags every line of one invocation with a run id.
func (a *App) runLogger(op string) *zap.Logger {
	return a.logger.With(zap.String("op", op), zap.String("run_id", uuid.NewString()))
}

func (a *App) mapping(logger *zap.Logger) config.ColumnMapping {
	raw := a.store.Get(config.KeyColumnMap)
	m, usedDefault := config.ResolveMapping(raw)
	if usedDefault && raw != "" {
		logger.Warn("column map is not valid JSON, using defaults", zap.String("key", config.KeyColumnMap))
	}
	return m
}

// credentials returns the sanitized token and database id.
func (a *App) credentials() (token, databaseID string, err error) {
	raw, err := config.Require(a.store, config.KeyNotionToken)
	if err != nil {
		return "", "", err
	}
	token = config.SanitizeToken(raw)
	if token == "" {
		return "", "", fmt.Errorf("%s: %w", config.KeyNotionToken, config.ErrMissing)
	}
	databaseID, err = config.Require(a.store, config.KeyDatabaseID)
	if err != nil {
		return "", "", err
	}
	return token, databaseID, nil
}

func (a *App) finder(svc notion.Service, m config.ColumnMapping) *notion.Finder {
	tol := a.cfg.MatchTolerance
	if tol <= 0 {
		tol = notion.DefaultMatchTolerance
	}
	return &notion.Finder{Service: svc, Mapping: m, Tolerance: tol}
}
