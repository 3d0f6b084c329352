package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"notion-herald/internal/config"
	"notion-herald/internal/notify"
	"notion-herald/internal/notion"
	"notion-herald/internal/util"
)

// DigestResult describes what one digest run did.
type DigestResult struct {
	Message string
	Records int
	Sent    bool
}

// FetchTasks returns the records whose date falls on the JST calendar day
// of target. Missing credentials and API failures are logged and yield no
// records.
func (a *App) FetchTasks(ctx context.Context, target time.Time) []notion.Record {
	return a.fetchTasks(ctx, target, a.runLogger("fetch"))
}

func (a *App) fetchTasks(ctx context.Context, target time.Time, logger *zap.Logger) []notion.Record {
	token, databaseID, err := a.credentials()
	if err != nil {
		logger.Warn("skipping fetch", zap.Error(err))
		return nil
	}
	m := a.mapping(logger)
	start, end := util.DayBounds(target)
	logger.Info("querying tasks",
		zap.String("property", m.Date),
		zap.String("on_or_after", start),
		zap.String("before", end),
	)

	svc := newServiceFunc(token, a.cfg, logger)
	records, err := svc.Query(ctx, databaseID, notion.Query{DateField: m.Date, OnOrAfter: start, Before: end})
	if err != nil {
		logger.Error("notion query failed", zap.Error(err))
		return nil
	}
	return records
}

// RunDigest fetches the tasks of target's day, renders the digest and posts
// it to the webhook. It never fails: every problem is logged and reflected
// in the result.
func (a *App) RunDigest(ctx context.Context, target time.Time) DigestResult {
	logger := a.runLogger("digest")
	records := a.fetchTasks(ctx, target, logger)

	msg, err := notify.RenderDigest(records, target)
	if err != nil {
		logger.Error("failed to render digest", zap.Error(err))
		return DigestResult{Records: len(records)}
	}
	res := DigestResult{Message: msg, Records: len(records)}
	logger.Debug("digest message", zap.String("message", msg))

	webhook, err := config.Require(a.store, config.KeyWebhookURL)
	if err != nil {
		logger.Warn("skipping send", zap.Error(err))
		return res
	}
	body, err := newSenderFunc(webhook, logger).Send(ctx, msg)
	if err != nil {
		logger.Error("webhook send failed", zap.Error(err))
		return res
	}
	res.Sent = true
	logger.Info("digest sent", zap.Int("records", len(records)), zap.String("response", body))
	return res
}
