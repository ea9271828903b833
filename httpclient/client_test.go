package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_Do_GET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/.well-known/jwks.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Default") != "yes" {
			t.Error("expected default header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"keys":[]}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Headers: map[string]string{"X-Default": "yes"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := c.Do(context.Background(), Request{Path: "/.well-known/jwks.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected success, got %d", resp.StatusCode)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("unexpected content type %q", resp.Headers["Content-Type"])
	}
}

func TestClient_Do_POST_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "a@x.com" {
			t.Errorf("unexpected body %v", body)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c, _ := New(Config{})
	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   srv.URL,
		Body:   map[string]string{"email": "a@x.com"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201, got %d", resp.StatusCode)
	}
}

func TestClient_Do_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := New(Config{})
	resp, err := c.Do(context.Background(), Request{Path: srv.URL})
	if !IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected response alongside error, got %+v", resp)
	}
}

func TestClient_Do_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, _ := New(Config{Timeout: 50 * time.Millisecond})
	_, err := c.Do(context.Background(), Request{Path: srv.URL})
	if !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestClient_Do_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, _ := New(Config{Timeout: time.Second})
	_, err := c.Do(context.Background(), Request{Path: url})
	if !IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestClient_Do_BodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	c, _ := New(Config{MaxBodyBytes: 16})
	_, err := c.Do(context.Background(), Request{Path: srv.URL})
	if err == nil || !strings.Contains(err.Error(), "exceeds 16 bytes") {
		t.Fatalf("expected body size error, got %v", err)
	}
}

func TestClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("expected Accept header, got %q", r.Header.Get("Accept"))
		}
		_, _ = w.Write([]byte(`{"keys":[{"kid":"k1"}]}`))
	}))
	defer srv.Close()

	c, _ := New(Config{})
	var doc struct {
		Keys []struct {
			Kid string `json:"kid"`
		} `json:"keys"`
	}
	if err := c.GetJSON(context.Background(), srv.URL, &doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Keys) != 1 || doc.Keys[0].Kid != "k1" {
		t.Errorf("unexpected document %+v", doc)
	}
}

func TestClient_GetJSON_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c, _ := New(Config{})
	var out map[string]any
	err := c.GetJSON(context.Background(), srv.URL, &out)
	if err == nil || IsUnavailable(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Timeout != 5*time.Second {
		t.Errorf("expected default timeout 5s, got %v", cfg.Timeout)
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Errorf("expected 1 MiB body cap, got %d", cfg.MaxBodyBytes)
	}
	if err := (&Config{Timeout: -1, MaxBodyBytes: 1}).Validate(); err == nil {
		t.Error("expected error for negative timeout")
	}
}
