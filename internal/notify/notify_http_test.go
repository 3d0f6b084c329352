package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestNotifier_Send_PostsContentJSON(t *testing.T) {
	var gotContentType string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, zaptest.NewLogger(t))
	msg := "**Tasks**\n1. **a & <b>**\t2025/09/08 09:00\n"
	if _, err := n.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if gotContentType != "application/json" {
		t.Fatalf("unexpected content type %q", gotContentType)
	}
	if gotBody["content"] != msg {
		t.Fatalf("unexpected content: %q", gotBody["content"])
	}
}

func TestNotifier_Send_ErrorStatusEmbedsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Cannot send an empty message"}`))
	}))
	defer srv.Close()

	_, err := NewNotifier(srv.URL, nil).Send(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error for non-2xx response, got nil")
	}
	if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "Cannot send an empty message") {
		t.Fatalf("error should carry status and body: %v", err)
	}
}

func TestNotifier_Send_ShoutrrrScheme(t *testing.T) {
	orig := shoutrrrSend
	defer func() { shoutrrrSend = orig }()
	var gotURL, gotMsg string
	shoutrrrSend = func(rawURL, message string) error {
		gotURL, gotMsg = rawURL, message
		return nil
	}

	n := NewNotifier("discord://token@channel", nil)
	if _, err := n.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if gotURL != "discord://token@channel" || gotMsg != "hello" {
		t.Fatalf("unexpected shoutrrr call %q %q", gotURL, gotMsg)
	}

	shoutrrrSend = func(rawURL, message string) error { return errors.New("down") }
	if _, err := n.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected shoutrrr error to surface")
	}
}

func TestNotifier_Send_InvalidURL(t *testing.T) {
	if _, err := NewNotifier("", nil).Send(context.Background(), "x"); err == nil {
		t.Fatal("expected error for empty url")
	}
}
