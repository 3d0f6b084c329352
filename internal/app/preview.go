package app

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"notion-herald/internal/config"
	"notion-herald/internal/notion"
)

// PreviewRow is the dry-run view of one row: what a create would write
// and which window a delete would search.
type PreviewRow struct {
	Index      int                        `json:"index"`
	Title      string                     `json:"title"`
	Properties map[string]json.RawMessage `json:"properties,omitempty"`
	Lookup     *notion.Query              `json:"lookup,omitempty"`
	Error      string                     `json:"error,omitempty"`
}

// Preview normalizes input without calling the API. input may also be a
// JSON string holding the rows.
func (a *App) Preview(input any) ([]PreviewRow, error) {
	if s, ok := input.(string); ok {
		v, err := DecodeInput([]byte(s))
		if err != nil {
			return nil, err
		}
		input = v
	}
	if input == nil {
		return nil, nil
	}
	rows, ok := input.([]any)
	if !ok {
		rows = []any{input}
	}
	logger := a.runLogger("preview")
	m := a.mapping(logger)
	finder := a.finder(nil, m)

	out := make([]PreviewRow, 0, len(rows))
	for i, raw := range rows {
		p := PreviewRow{Index: i}
		obj, isObj := raw.(map[string]any)
		if !isObj {
			p.Error = fmt.Sprintf("#%d: not a JSON object", i)
			out = append(out, p)
			continue
		}
		row := notion.Row(obj)
		p.Properties = map[string]json.RawMessage{}
		for name, prop := range notion.BuildProperties(row, m, nil) {
			b, err := json.Marshal(prop)
			if err != nil {
				return nil, err
			}
			p.Properties[name] = b
		}
		if title, ok := obj["title"].(string); ok {
			p.Title = title
		}
		if q, ok := finder.MatchQuery(row); ok {
			p.Lookup = &q
		}
		out = append(out, p)
	}
	return out, nil
}

// CheckReport lists which properties are configured (never their values)
// and the schema types of the mapped columns.
type CheckReport struct {
	Configured  map[string]bool      `json:"configured"`
	ColumnMap   config.ColumnMapping `json:"column_map"`
	UsedDefault bool                 `json:"used_default"`
	FieldTypes  map[string]string    `json:"field_types,omitempty"`
	SchemaError string               `json:"schema_error,omitempty"`
}

func (a *App) Check(ctx context.Context) CheckReport {
	logger := a.runLogger("check")
	r := CheckReport{Configured: map[string]bool{}}
	for _, k := range []string{config.KeyNotionToken, config.KeyDatabaseID, config.KeyWebhookURL, config.KeyColumnMap} {
		r.Configured[k] = a.store.Get(k) != ""
	}
	r.ColumnMap, r.UsedDefault = config.ResolveMapping(a.store.Get(config.KeyColumnMap))

	token, databaseID, err := a.credentials()
	if err != nil {
		r.SchemaError = err.Error()
		return r
	}
	schema, err := newServiceFunc(token, a.cfg, logger).Schema(ctx, databaseID)
	if err != nil {
		logger.Warn("schema read failed", zap.Error(err))
		r.SchemaError = err.Error()
		return r
	}
	r.FieldTypes = map[string]string{}
	for _, field := range []string{r.ColumnMap.Title, r.ColumnMap.Date, r.ColumnMap.Status} {
		t, ok := schema.TypeOf(field)
		if !ok {
			r.FieldTypes[field] = "missing"
			continue
		}
		r.FieldTypes[field] = t.String()
	}
	return r
}
