package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jomei/notionapi"
	"go.uber.org/zap"

	"notion-herald/internal/util"
)

// APIVersion is the Notion-Version header sent unless overridden.
const APIVersion = "2022-06-28"

const pageSize = 100

// Record is a page as read back from a database query.
type Record struct {
	ID    string
	Title string
	// Start is the start of the date field exactly as stored, e.g.
	// "2025-09-08" or "2025-09-08T00:00:00.000Z"; "" when unset.
	Start string
}

// Service is the narrow view of the document API the app depends on.
type Service interface {
	Schema(ctx context.Context, databaseID string) (Schema, error)
	Query(ctx context.Context, databaseID string, q Query) ([]Record, error)
	Create(ctx context.Context, databaseID string, props Properties) (string, error)
	Archive(ctx context.Context, pageID string) error
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion api error %d: %s", e.Status, e.Body)
}

type Option func(*options)

type options struct {
	baseURL    *url.URL
	version    string
	httpClient *http.Client
}

// WithBaseURL sends every request to base instead of api.notion.com.
func WithBaseURL(base string) Option {
	return func(o *options) {
		if u, err := url.Parse(base); err == nil && u.Host != "" {
			o.baseURL = u
		}
	}
}

func WithVersion(v string) Option {
	return func(o *options) {
		if v != "" {
			o.version = v
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// Client implements Service on top of notionapi.
type Client struct {
	api    *notionapi.Client
	logger *zap.Logger
}

func NewClient(token string, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{version: APIVersion, httpClient: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(&o)
	}
	base := o.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if o.baseURL != nil {
		base = rewriteTransport{target: o.baseURL, base: base}
	}
	hc := new(http.Client)
	*hc = *o.httpClient
	hc.Transport = captureTransport{base: base}
	api := notionapi.NewClient(notionapi.Token(token),
		notionapi.WithHTTPClient(hc),
		notionapi.WithVersion(o.version),
	)
	return &Client{api: api, logger: logger}
}

func (c *Client) Schema(ctx context.Context, databaseID string) (Schema, error) {
	db, err := c.api.Database.Get(ctx, notionapi.DatabaseID(databaseID))
	if err != nil {
		return nil, wrapErr("get database", err)
	}
	schema := make(Schema, len(db.Properties))
	for name, cfg := range db.Properties {
		if cfg == nil {
			continue
		}
		schema[name] = ParseFieldType(string(cfg.GetType()))
	}
	return schema, nil
}

func (c *Client) Query(ctx context.Context, databaseID string, q Query) ([]Record, error) {
	filter, err := buildFilter(q)
	if err != nil {
		return nil, err
	}
	req := &notionapi.DatabaseQueryRequest{Filter: filter, PageSize: pageSize}
	var out []Record
	for {
		sink := new(rawBody)
		resp, err := c.api.Database.Query(withSink(ctx, sink), notionapi.DatabaseID(databaseID), req)
		if err != nil {
			return nil, wrapErr("query database", err)
		}
		starts := rawStarts(sink.data)
		for _, page := range resp.Results {
			out = append(out, toRecord(page, q, starts[string(page.ID)]))
		}
		c.logger.Debug("query page", zap.Int("results", len(resp.Results)), zap.Bool("has_more", resp.HasMore))
		if !resp.HasMore || resp.NextCursor == "" {
			return out, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

func (c *Client) Create(ctx context.Context, databaseID string, props Properties) (string, error) {
	payload := make(notionapi.Properties, len(props))
	for k, v := range props {
		payload[k] = v
	}
	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: payload,
	})
	if err != nil {
		return "", wrapErr("create page", err)
	}
	return string(page.ID), nil
}

// Archive soft-deletes a page.
func (c *Client) Archive(ctx context.Context, pageID string) error {
	_, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{},
		Archived:   true,
	})
	if err != nil {
		return wrapErr("archive page", err)
	}
	return nil
}

func buildFilter(q Query) (notionapi.Filter, error) {
	var and notionapi.AndCompoundFilter
	if q.TitleField != "" {
		// title columns accept rich_text conditions
		and = append(and, &notionapi.PropertyFilter{
			Property: q.TitleField,
			RichText: &notionapi.TextFilterCondition{Equals: q.Title},
		})
	}
	if q.DateField != "" {
		if q.OnOrAfter != "" {
			d, err := toDate(q.OnOrAfter)
			if err != nil {
				return nil, err
			}
			and = append(and, &notionapi.PropertyFilter{
				Property: q.DateField,
				Date:     &notionapi.DateFilterCondition{OnOrAfter: d},
			})
		}
		if q.Before != "" {
			d, err := toDate(q.Before)
			if err != nil {
				return nil, err
			}
			and = append(and, &notionapi.PropertyFilter{
				Property: q.DateField,
				Date:     &notionapi.DateFilterCondition{Before: d},
			})
		}
	}
	if len(and) == 0 {
		return nil, nil
	}
	return &and, nil
}

func toDate(canonical string) (*notionapi.Date, error) {
	t, err := util.ParseAbsolute(canonical)
	if err != nil {
		return nil, err
	}
	d := notionapi.Date(t.In(util.JST))
	return &d, nil
}

// toRecord reads the title (a database has exactly one title property) and
// the start of q.DateField, or of the first date property when unset.
// raw holds the stored start strings of the page keyed by property name.
func toRecord(page notionapi.Page, q Query, raw map[string]string) Record {
	r := Record{ID: string(page.ID)}
	for name, prop := range page.Properties {
		switch p := prop.(type) {
		case *notionapi.TitleProperty:
			if len(p.Title) > 0 {
				r.Title = p.Title[0].PlainText
			}
		case *notionapi.DateProperty:
			if q.DateField != "" && name != q.DateField {
				continue
			}
			if p.Date == nil || p.Date.Start == nil || r.Start != "" {
				continue
			}
			if s, ok := raw[name]; ok {
				r.Start = s
			} else {
				r.Start = time.Time(*p.Date.Start).Format(time.RFC3339)
			}
		}
	}
	return r
}

// rawStarts pulls date.start strings out of a query response body, keyed
// by page id and then property name. The typed page model has already
// parsed them into time.Time, which drops whether a time was stored.
func rawStarts(body []byte) map[string]map[string]string {
	var resp struct {
		Results []struct {
			ID         string `json:"id"`
			Properties map[string]struct {
				Date *struct {
					Start *string `json:"start"`
				} `json:"date"`
			} `json:"properties"`
		} `json:"results"`
	}
	if len(body) == 0 || json.Unmarshal(body, &resp) != nil {
		return nil
	}
	out := make(map[string]map[string]string, len(resp.Results))
	for _, page := range resp.Results {
		props := map[string]string{}
		for name, p := range page.Properties {
			if p.Date != nil && p.Date.Start != nil {
				props[name] = *p.Date.Start
			}
		}
		out[page.ID] = props
	}
	return out
}

func wrapErr(op string, err error) error {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w", op, &APIError{
			Status: apiErr.Status,
			Body:   fmt.Sprintf("%s: %s", apiErr.Code, apiErr.Message),
		})
	}
	return fmt.Errorf("%s: %w", op, err)
}

type rewriteTransport struct {
	target *url.URL
	base   http.RoundTripper
}

func (t rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	r.Host = t.target.Host
	return t.base.RoundTrip(r)
}

type sinkKey struct{}

// rawBody receives the response body of a request made with withSink.
type rawBody struct {
	data []byte
}

func withSink(ctx context.Context, sink *rawBody) context.Context {
	return context.WithValue(ctx, sinkKey{}, sink)
}

// captureTransport copies the response body into the request's sink, if any.
type captureTransport struct {
	base http.RoundTripper
}

func (t captureTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(r)
	sink, ok := r.Context().Value(sinkKey{}).(*rawBody)
	if err != nil || !ok {
		return resp, err
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	sink.data = data
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}
