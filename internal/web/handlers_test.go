package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"notion-herald/internal/app"
	"notion-herald/internal/config"
)

type fakeSubmitter struct {
	input  any
	action app.Action
	res    *app.SubmitResult
	err    error
}

func (f *fakeSubmitter) Submit(ctx context.Context, input any, action app.Action) (*app.SubmitResult, error) {
	f.input, f.action = input, action
	return f.res, f.err
}

func factoryFor(s Submitter) Factory {
	return func() (Submitter, error) { return s, nil }
}

func TestHealthHandler(t *testing.T) {
	r := httptest.NewServer(NewRouter(factoryFor(&fakeSubmitter{})))
	defer r.Close()
	resp, err := http.Get(r.URL + "/api/health")
	if err != nil {
		t.Fatalf("http get failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestSubmitHandler_Success(t *testing.T) {
	fs := &fakeSubmitter{res: &app.SubmitResult{OK: true, Count: 1, Results: []app.RowResult{{Index: 0, OK: true, ID: "p1"}}}}
	r := httptest.NewServer(NewRouter(factoryFor(fs)))
	defer r.Close()

	resp, err := http.Post(r.URL+"/api/submit?action=delete", "application/json", bytes.NewReader([]byte(`[{"title":"A"}]`)))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}
	var res app.SubmitResult
	_ = json.NewDecoder(resp.Body).Decode(&res)
	if !res.OK || res.Results[0].ID != "p1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if fs.action != app.ActionDelete {
		t.Fatalf("expected delete action, got %q", fs.action)
	}
	if rows, ok := fs.input.([]any); !ok || len(rows) != 1 {
		t.Fatalf("unexpected input passed: %#v", fs.input)
	}
}

func TestSubmitHandler_BadRequests(t *testing.T) {
	r := httptest.NewServer(NewRouter(factoryFor(&fakeSubmitter{})))
	defer r.Close()

	cases := []struct {
		name, url, body string
		want            int
	}{
		{"bad json", "/api/submit", `{"title":`, http.StatusBadRequest},
		{"bad action", "/api/submit?action=upsert", `{}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(r.URL+tc.url, "application/json", bytes.NewReader([]byte(tc.body)))
			if err != nil {
				t.Fatalf("post failed: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}

	resp, err := http.Get(r.URL + "/api/submit")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestSubmitHandler_FatalErrors(t *testing.T) {
	fs := &fakeSubmitter{err: fmt.Errorf("set keys: %w", config.ErrMissing)}
	r := httptest.NewServer(NewRouter(factoryFor(fs)))
	defer r.Close()
	resp, err := http.Post(r.URL+"/api/submit", "application/json", bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for missing config, got %d", resp.StatusCode)
	}

	failing := NewRouter(func() (Submitter, error) { return nil, errors.New("bad yaml") })
	rec := httptest.NewRecorder()
	failing.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/submit", bytes.NewReader([]byte(`{}`))))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when config fails to load, got %d", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware(NewRouter(factoryFor(&fakeSubmitter{res: &app.SubmitResult{OK: true}})), "tok")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/submit", bytes.NewReader([]byte(`{}`))))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/submit", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Authorization", "Bearer tok")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health should stay open, got %d", rec.Code)
	}
}
