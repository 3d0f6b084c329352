package notion

import (
	"context"
	"errors"
	"testing"
	"time"

	"notion-herald/internal/config"
)

type fakeService struct {
	queries []Query
	records []Record
	err     error
}

func (f *fakeService) Schema(ctx context.Context, databaseID string) (Schema, error) {
	return nil, nil
}

func (f *fakeService) Query(ctx context.Context, databaseID string, q Query) ([]Record, error) {
	f.queries = append(f.queries, q)
	return f.records, f.err
}

func (f *fakeService) Create(ctx context.Context, databaseID string, props Properties) (string, error) {
	return "", nil
}

func (f *fakeService) Archive(ctx context.Context, pageID string) error { return nil }

func TestMatchQuery(t *testing.T) {
	f := &Finder{Mapping: config.DefaultMapping}
	tests := []struct {
		name string
		row  Row
		want Query
	}{
		{
			"title only",
			Row{"title": "  A  "},
			Query{TitleField: "名前", Title: "A"},
		},
		{
			"falsy date ignored",
			Row{"title": "A", "date": ""},
			Query{TitleField: "名前", Title: "A"},
		},
		{
			"scalar date gets tolerance window",
			Row{"title": "A", "date": "2025-09-08 19:00"},
			Query{TitleField: "名前", Title: "A", DateField: "Date", OnOrAfter: "2025-09-08T19:00:00+09:00", Before: "2025-09-08T19:01:00+09:00"},
		},
		{
			"object with end",
			Row{"title": "A", "date": map[string]any{"start": "2025-09-08 19:00", "end": "2025-09-08 19:45"}},
			Query{TitleField: "名前", Title: "A", DateField: "Date", OnOrAfter: "2025-09-08T19:00:00+09:00", Before: "2025-09-08T19:45:00+09:00"},
		},
		{
			"object without end",
			Row{"title": "A", "date": map[string]any{"start": "2025-09-08T10:00:00Z", "end": nil}},
			Query{TitleField: "名前", Title: "A", DateField: "Date", OnOrAfter: "2025-09-08T19:00:00+09:00", Before: "2025-09-08T19:01:00+09:00"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := f.MatchQuery(tc.row)
			if !ok {
				t.Fatalf("expected a query")
			}
			if got != tc.want {
				t.Fatalf("query = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestMatchQuery_CustomTolerance(t *testing.T) {
	f := &Finder{Mapping: config.DefaultMapping, Tolerance: 30 * time.Second}
	q, _ := f.MatchQuery(Row{"title": "A", "date": "2025-09-08 19:00"})
	if q.Before != "2025-09-08T19:00:30+09:00" {
		t.Fatalf("Before = %q", q.Before)
	}
}

func TestFindMatches_UntitledSkipsQuery(t *testing.T) {
	svc := &fakeService{records: []Record{{ID: "x"}}}
	f := &Finder{Service: svc, Mapping: config.DefaultMapping}
	for _, row := range []Row{{}, {"title": "   "}, {"title": nil, "date": "2025-09-08"}} {
		ids, err := f.FindMatches(context.Background(), "db", row)
		if err != nil || len(ids) != 0 {
			t.Fatalf("FindMatches(%v) = %v, %v", row, ids, err)
		}
	}
	if len(svc.queries) != 0 {
		t.Fatalf("expected no queries, got %d", len(svc.queries))
	}
}

func TestFindMatches_ReturnsAllIDs(t *testing.T) {
	svc := &fakeService{records: []Record{{ID: "p1"}, {ID: ""}, {ID: "p2"}}}
	f := &Finder{Service: svc, Mapping: config.DefaultMapping}
	ids, err := f.FindMatches(context.Background(), "db", Row{"title": "A"})
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}
	if len(ids) != 2 || ids[0] != "p1" || ids[1] != "p2" {
		t.Fatalf("ids = %v", ids)
	}

	svc.err = errors.New("boom")
	if _, err := f.FindMatches(context.Background(), "db", Row{"title": "A"}); err == nil {
		t.Fatal("expected query error to surface")
	}
}
