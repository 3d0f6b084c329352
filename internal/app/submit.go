package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"notion-herald/internal/config"
	"notion-herald/internal/notion"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
)

func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case "", ActionCreate:
		return ActionCreate, nil
	case ActionDelete:
		return ActionDelete, nil
	default:
		return "", fmt.Errorf("unknown action %q (want create or delete)", s)
	}
}

// RowResult is the outcome of one submitted row.
type RowResult struct {
	Index int    `json:"index"`
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

// SubmitResult aggregates a batch; OK is true only if every row succeeded.
type SubmitResult struct {
	OK      bool        `json:"ok"`
	Count   int         `json:"count"`
	Results []RowResult `json:"results"`
}

// DecodeInput parses a submission body: one JSON value, object or array.
func DecodeInput(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON input: %w", err)
	}
	return v, nil
}

// Submit applies action to every row of input in order. Missing credentials
// fail the whole call before any row runs; anything that goes wrong with a
// single row is recorded in its slot and the batch continues.
func (a *App) Submit(ctx context.Context, input any, action Action) (*SubmitResult, error) {
	if action != ActionCreate && action != ActionDelete {
		return nil, fmt.Errorf("unknown action %q", action)
	}
	token, databaseID, err := a.credentials()
	if err != nil {
		return nil, fmt.Errorf("set %s and %s: %w", config.KeyNotionToken, config.KeyDatabaseID, err)
	}
	logger := a.runLogger("submit").With(zap.String("action", string(action)))

	rows, ok := input.([]any)
	if !ok {
		rows = []any{input}
	}

	m := a.mapping(logger)
	svc := newServiceFunc(token, a.cfg, logger)

	var schema notion.Schema
	if action == ActionCreate {
		schema, err = svc.Schema(ctx, databaseID)
		if err != nil {
			logger.Warn("schema unavailable, status will be written as status", zap.Error(err))
			schema = nil
		}
	}
	finder := a.finder(svc, m)

	res := &SubmitResult{Count: len(rows), Results: make([]RowResult, 0, len(rows))}
	for i, raw := range rows {
		r := RowResult{Index: i}
		obj, isObj := raw.(map[string]any)
		switch {
		case !isObj:
			r.Error = fmt.Sprintf("#%d: not a JSON object", i)
		case action == ActionDelete:
			r.ID, r.Error = deleteRow(ctx, svc, finder, databaseID, notion.Row(obj))
		default:
			id, err := svc.Create(ctx, databaseID, notion.BuildProperties(notion.Row(obj), m, schema))
			if err != nil {
				r.Error = err.Error()
			} else {
				r.ID = id
			}
		}
		r.OK = r.Error == ""
		if r.OK {
			logger.Info("row applied", zap.Int("index", i), zap.String("id", r.ID))
		} else {
			logger.Warn("row failed", zap.Int("index", i), zap.String("error", r.Error))
		}
		res.Results = append(res.Results, r)
	}

	res.OK = true
	for _, r := range res.Results {
		res.OK = res.OK && r.OK
	}
	return res, nil
}

// deleteRow archives every record matching row and returns their ids
// joined by commas, or an error message. When an archive fails part way
// the message names the pages already archived.
func deleteRow(ctx context.Context, svc notion.Service, f *notion.Finder, databaseID string, row notion.Row) (string, string) {
	ids, err := f.FindMatches(ctx, databaseID, row)
	if err != nil {
		return "", err.Error()
	}
	if len(ids) == 0 {
		return "", "no matching record"
	}
	archived := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := svc.Archive(ctx, id); err != nil {
			if len(archived) == 0 {
				return "", fmt.Sprintf("%s: %v", id, err)
			}
			return "", fmt.Sprintf("archived %s; %s: %v", strings.Join(archived, ","), id, err)
		}
		archived = append(archived, id)
	}
	return strings.Join(ids, ","), ""
}
