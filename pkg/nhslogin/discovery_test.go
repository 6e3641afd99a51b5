package nhslogin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newDiscoveryServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 server.URL,
			"authorization_endpoint": server.URL + "/authorize",
			"token_endpoint":         server.URL + "/token",
			"jwks_uri":               server.URL + "/.well-known/jwks.json",
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDiscoveryClient_FetchAndCache(t *testing.T) {
	var hits atomic.Int32
	server := newDiscoveryServer(t, &hits)

	dc := newDiscoveryClient(server.Client(), time.Hour)

	doc, err := dc.get(context.Background(), server.URL+"/")
	if err != nil {
		t.Fatalf("get() error = %v", err)
	}
	if doc.JWKSURI != server.URL+"/.well-known/jwks.json" {
		t.Errorf("JWKSURI = %s", doc.JWKSURI)
	}
	if doc.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}

	if _, err := dc.get(context.Background(), server.URL+"/"); err != nil {
		t.Fatalf("get() error = %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("discovery fetched %d times, want 1", hits.Load())
	}
}

func TestDiscoveryClient_Errors(t *testing.T) {
	incomplete := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"issuer":"https://idp.example"}`))
	}))
	defer incomplete.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	tests := []struct {
		name   string
		issuer string
	}{
		{"empty issuer", ""},
		{"missing jwks_uri", incomplete.URL},
		{"server error", failing.URL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dc := newDiscoveryClient(http.DefaultClient, time.Hour)
			if _, err := dc.get(context.Background(), tt.issuer); !errors.Is(err, ErrDiscoveryFailed) {
				t.Errorf("get() error = %v, want ErrDiscoveryFailed", err)
			}
		})
	}
}

func TestBuildDiscoveryURL(t *testing.T) {
	got := buildDiscoveryURL(" https://auth.login.nhs.uk/ ")
	want := "https://auth.login.nhs.uk/.well-known/openid-configuration"
	if got != want {
		t.Errorf("buildDiscoveryURL() = %s, want %s", got, want)
	}
}
