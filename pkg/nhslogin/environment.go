package nhslogin

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment identifies an NHS login deployment and the client registered with it.
type Environment struct {
	ClientID string `json:"client_id" yaml:"client_id"`
	URL      string `json:"url" yaml:"url"`
	Name     string `json:"name" yaml:"name"`
}

// IsZero reports whether no environment has been selected.
func (e Environment) IsZero() bool {
	return e.ClientID == "" && e.URL == "" && e.Name == ""
}

// apply derives the provider fields of cfg from the environment.
func (e Environment) apply(cfg *AuthConfiguration) {
	cfg.ClientID = e.ClientID
	cfg.Issuer = e.URL
}

// Well-known NHS login deployments.
const (
	EnvironmentSandpit     = "sandpit"
	EnvironmentIntegration = "integration"
	EnvironmentProduction  = "production"
)

var presetURLs = map[string]string{
	EnvironmentSandpit:     "https://auth.sandpit.signin.nhs.uk",
	EnvironmentIntegration: "https://auth.ext.signin.nhs.uk",
	EnvironmentProduction:  "https://auth.login.nhs.uk",
}

// Preset returns the environment for a well-known deployment name.
func Preset(name, clientID string) (Environment, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	url, ok := presetURLs[name]
	if !ok {
		return Environment{}, fmt.Errorf("%w: unknown environment %q", ErrInvalidConfiguration, name)
	}
	return Environment{ClientID: clientID, URL: url, Name: name}, nil
}

// Sandpit returns the sandpit environment with the public demo client.
func Sandpit() Environment {
	return Environment{ClientID: "du-nhs-login", URL: presetURLs[EnvironmentSandpit], Name: EnvironmentSandpit}
}

// EnvironmentCatalog is the set of environments a host offers for selection.
type EnvironmentCatalog struct {
	ServerURL    string        `yaml:"server_url"`
	Environments []Environment `yaml:"environments"`
}

// LoadEnvironments reads a YAML environment catalog.
func LoadEnvironments(path string) (*EnvironmentCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read catalog: %v", ErrInvalidConfiguration, err)
	}
	return ParseEnvironments(data)
}

// ParseEnvironments decodes a YAML environment catalog.
func ParseEnvironments(data []byte) (*EnvironmentCatalog, error) {
	var catalog EnvironmentCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("%w: parse catalog: %v", ErrInvalidConfiguration, err)
	}
	for i, e := range catalog.Environments {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("%w: environment %d has no name", ErrInvalidConfiguration, i)
		}
		if strings.TrimSpace(e.URL) == "" {
			return nil, fmt.Errorf("%w: environment %q has no url", ErrInvalidConfiguration, e.Name)
		}
	}
	return &catalog, nil
}

// Find returns the environment with the given name.
func (c *EnvironmentCatalog) Find(name string) (Environment, bool) {
	for _, e := range c.Environments {
		if e.Name == name {
			return e, true
		}
	}
	return Environment{}, false
}
