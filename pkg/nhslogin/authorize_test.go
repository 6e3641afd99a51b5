package nhslogin

import "testing"

func TestBuildAuthorizeURL(t *testing.T) {
	cfg := AuthConfiguration{
		Issuer:      "https://idp.example",
		ClientID:    "abc",
		Scopes:      []string{"openid", "profile"},
		RedirectURL: "https://cb.example",
	}

	got := BuildAuthorizeURL(cfg)
	want := "https://idp.example/authorize?client_id=abc&scope=openid%20profile&response_type=code&redirect_uri=https://cb.example"
	if got != want {
		t.Errorf("BuildAuthorizeURL() = %s, want %s", got, want)
	}
}

func TestBuildAuthorizeURL_ExtraParams(t *testing.T) {
	cfg := AuthConfiguration{
		Issuer:      "https://idp.example",
		ClientID:    "abc",
		Scopes:      []string{"openid"},
		RedirectURL: "https://cb.example",
	}

	got := BuildAuthorizeURL(cfg, QueryParam{Key: "fido_auth_response", Value: "eyJ4IjoxfQ"}, QueryParam{Key: "a", Value: "b"})
	want := "https://idp.example/authorize?client_id=abc&scope=openid&response_type=code&redirect_uri=https://cb.example&fido_auth_response=eyJ4IjoxfQ&a=b"
	if got != want {
		t.Errorf("BuildAuthorizeURL() = %s, want %s", got, want)
	}
}

func TestBuildAuthorizeURL_EmptyClientID(t *testing.T) {
	cfg := AuthConfiguration{Issuer: "https://idp.example", RedirectURL: "https://cb.example"}

	got := BuildAuthorizeURL(cfg)
	want := "https://idp.example/authorize?client_id=&scope=&response_type=code&redirect_uri=https://cb.example"
	if got != want {
		t.Errorf("BuildAuthorizeURL() = %s, want %s", got, want)
	}
	if cfg.Ready() {
		t.Error("Ready() = true for empty client id")
	}
}

func TestBuildAuthorizeURL_NoEncoding(t *testing.T) {
	cfg := AuthConfiguration{
		Issuer:      "https://idp.example",
		ClientID:    "a b",
		Scopes:      []string{"openid"},
		RedirectURL: "app://cb?x=1",
	}

	want := "https://idp.example/authorize?client_id=a b&scope=openid&response_type=code&redirect_uri=app://cb?x=1"
	if got := BuildAuthorizeURL(cfg); got != want {
		t.Errorf("BuildAuthorizeURL() = %s, want %s", got, want)
	}
}

func TestPresentationMode_Valid(t *testing.T) {
	tests := []struct {
		mode PresentationMode
		want bool
	}{
		{PresentBrowser, true},
		{PresentWebView, true},
		{PresentCustomTab, true},
		{"", false},
		{"popup", false},
	}

	for _, tt := range tests {
		if got := tt.mode.Valid(); got != tt.want {
			t.Errorf("PresentationMode(%q).Valid() = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestAuthConfiguration_Ready(t *testing.T) {
	if !(AuthConfiguration{ClientID: "abc"}).Ready() {
		t.Error("Ready() = false for non-empty client id")
	}
	if (AuthConfiguration{ClientID: "   "}).Ready() {
		t.Error("Ready() = true for blank client id")
	}
}
