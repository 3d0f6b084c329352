package notion

import (
	"context"
	"strings"
	"time"

	"notion-herald/internal/config"
	"notion-herald/internal/util"
)

// DefaultMatchTolerance is the width of the date window used to find the
// record a row was written as, when the row gives no explicit end.
const DefaultMatchTolerance = time.Minute

// Query is a database query: optional exact title match and an optional
// half-open [OnOrAfter, Before) window on the date field. Bounds are
// canonical timestamps.
type Query struct {
	TitleField string `json:"title_field,omitempty"`
	Title      string `json:"title,omitempty"`

	DateField string `json:"date_field,omitempty"`
	OnOrAfter string `json:"on_or_after,omitempty"`
	Before    string `json:"before,omitempty"`
}

type Finder struct {
	Service   Service
	Mapping   config.ColumnMapping
	Tolerance time.Duration
}

// MatchQuery builds the lookup for row. ok is false when the row has no
// usable title, since such a row cannot identify a record.
func (f *Finder) MatchQuery(row Row) (q Query, ok bool) {
	title := strings.TrimSpace(stringify(row["title"]))
	if title == "" {
		return Query{}, false
	}
	q = Query{TitleField: f.Mapping.Title, Title: title}

	v, has := row["date"]
	if !has || !truthy(v) {
		return q, true
	}

	var start, end any = v, nil
	if obj, isObj := v.(map[string]any); isObj {
		if s := obj["start"]; truthy(s) {
			start = s
		}
		if e := obj["end"]; truthy(e) {
			end = e
		}
	}
	q.DateField = f.Mapping.Date
	q.OnOrAfter = util.ToCanonical(start)
	if end != nil {
		q.Before = util.ToCanonical(end)
	} else {
		tol := f.Tolerance
		if tol <= 0 {
			tol = DefaultMatchTolerance
		}
		// OnOrAfter came from util.Format, so Add cannot fail here.
		q.Before, _ = util.Add(q.OnOrAfter, tol)
	}
	return q, true
}

// FindMatches returns the ids of every record matching row, in query order.
func (f *Finder) FindMatches(ctx context.Context, databaseID string, row Row) ([]string, error) {
	q, ok := f.MatchQuery(row)
	if !ok {
		return nil, nil
	}
	records, err := f.Service.Query(ctx, databaseID, q)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if r.ID != "" {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}
