package nhslogin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPreset(t *testing.T) {
	env, err := Preset(" Integration ", "my-client")
	if err != nil {
		t.Fatalf("Preset() error = %v", err)
	}
	if env.URL != "https://auth.ext.signin.nhs.uk" || env.Name != "integration" || env.ClientID != "my-client" {
		t.Errorf("Preset() = %+v", env)
	}

	if _, err := Preset("staging", "x"); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("Preset(staging) error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestEnvironment_Apply(t *testing.T) {
	cfg := DefaultAuthConfiguration()
	Environment{ClientID: "abc", URL: "https://idp.example", Name: "test"}.apply(&cfg)

	if cfg.ClientID != "abc" || cfg.Issuer != "https://idp.example" {
		t.Errorf("apply() = %+v", cfg)
	}
	if cfg.RedirectURL != DefaultAuthConfiguration().RedirectURL {
		t.Error("apply() changed the redirect url")
	}
}

func TestParseEnvironments(t *testing.T) {
	data := []byte(`
server_url: https://relay.example
environments:
  - name: sandpit
    client_id: du-nhs-login
    url: https://auth.sandpit.signin.nhs.uk
  - name: integration
    client_id: du-int
    url: https://auth.ext.signin.nhs.uk
`)

	catalog, err := ParseEnvironments(data)
	if err != nil {
		t.Fatalf("ParseEnvironments() error = %v", err)
	}

	if catalog.ServerURL != "https://relay.example" {
		t.Errorf("ServerURL = %s", catalog.ServerURL)
	}
	if len(catalog.Environments) != 2 {
		t.Fatalf("len(Environments) = %d, want 2", len(catalog.Environments))
	}

	env, ok := catalog.Find("integration")
	if !ok {
		t.Fatal("Find(integration) not found")
	}
	if env.ClientID != "du-int" {
		t.Errorf("ClientID = %s", env.ClientID)
	}

	if _, ok := catalog.Find("production"); ok {
		t.Error("Find(production) found")
	}
}

func TestParseEnvironments_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "environments: [:"},
		{"missing name", "environments:\n  - url: https://x\n"},
		{"missing url", "environments:\n  - name: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseEnvironments([]byte(tt.data)); !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("ParseEnvironments() error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestLoadEnvironments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "environments.yaml")
	if err := os.WriteFile(path, []byte("environments:\n  - name: sandpit\n    url: https://auth.sandpit.signin.nhs.uk\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	catalog, err := LoadEnvironments(path)
	if err != nil {
		t.Fatalf("LoadEnvironments() error = %v", err)
	}
	if len(catalog.Environments) != 1 {
		t.Errorf("len(Environments) = %d", len(catalog.Environments))
	}

	if _, err := LoadEnvironments(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("LoadEnvironments(missing) error = %v", err)
	}
}
