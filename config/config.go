// Package config resolves the settings of the command line client from a
// YAML file, a .env file, the environment, flags and the OS keyring.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/HexmosTech/openai-go/request"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	EnvAPIKey       = "OPENAI_API_KEY"
	EnvOrganization = "OPENAI_ORGANIZATION"
	EnvBaseURL      = "OPENAI_BASE_URL"
	EnvProxyPath    = "OPENAI_PROXY_PATH"
	EnvAPIVersion   = "OPENAI_API_VERSION"
	EnvAuthHeader   = "OPENAI_AUTH_HEADER"

	defaultEnvFile = ".env"
)

// ErrMissingAPIKey is returned when no source provides an API key.
var ErrMissingAPIKey = errors.New("API key is required (set " + EnvAPIKey + ", pass it in the config file or store it with --save-key)")

var userConfigDir = os.UserConfigDir

// Config holds the connection settings of the client. Empty fields mean
// "use the default".
type Config struct {
	APIKey         string `yaml:"api_key"`
	OrganizationID string `yaml:"organization"`
	BaseURL        string `yaml:"base_url"`
	ProxyPath      string `yaml:"proxy_path"`
	Version        string `yaml:"api_version"`
	// AuthHeader selects how the key is sent: "Authorization" (bearer,
	// the default), "api-key", or any other header name.
	AuthHeader string `yaml:"auth_header"`
}

// Options controls where Load looks for settings.
type Options struct {
	// Path of the YAML file. When empty, DefaultPath is used and a missing
	// file is not an error.
	Path string
	// EnvFile defaults to ".env" in the working directory.
	EnvFile string
	// Overrides win over every other source. Typically set from flags.
	Overrides Config
}

// DefaultPath returns $XDG_CONFIG_HOME/openai-go/config.yaml, or "" when the
// user configuration directory is unknown.
func DefaultPath() string {
	dir, err := userConfigDir()
	if err != nil || strings.TrimSpace(dir) == "" {
		return ""
	}
	return filepath.Join(dir, serviceName, "config.yaml")
}

// Load merges, from lowest to highest precedence, the YAML file, the .env
// file, the environment and the overrides. Variables already present in
// the environment are not replaced by the .env file.
func Load(options *Options) (*Config, error) {
	cfg := &Config{}

	path := options.Path
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	envFile := options.EnvFile
	if envFile == "" {
		envFile = defaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrapf(err, "loading %s", envFile)
	}

	cfg.applyEnv()
	cfg.merge(&options.Overrides)
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config file %s", path)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}
	c.merge(&fileCfg)
	return nil
}

func (c *Config) applyEnv() {
	for _, e := range []struct {
		key   string
		field *string
	}{
		{EnvAPIKey, &c.APIKey},
		{EnvOrganization, &c.OrganizationID},
		{EnvBaseURL, &c.BaseURL},
		{EnvProxyPath, &c.ProxyPath},
		{EnvAPIVersion, &c.Version},
		{EnvAuthHeader, &c.AuthHeader},
	} {
		if v, ok := os.LookupEnv(e.key); ok && strings.TrimSpace(v) != "" {
			*e.field = strings.TrimSpace(v)
		}
	}
}

// merge copies the non-empty fields of other into c.
func (c *Config) merge(other *Config) {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	set(&c.APIKey, other.APIKey)
	set(&c.OrganizationID, other.OrganizationID)
	set(&c.BaseURL, other.BaseURL)
	set(&c.ProxyPath, other.ProxyPath)
	set(&c.Version, other.Version)
	set(&c.AuthHeader, other.AuthHeader)
}

// ResolveAPIKey fills an empty APIKey from the keyring and then from
// prompt, which may be nil. Keyring failures are not fatal as long as a
// later source provides the key.
func (c *Config) ResolveAPIKey(prompt func() (string, error)) error {
	if c.APIKey != "" {
		return nil
	}
	key, keyringErr := LoadAPIKey()
	if key != "" {
		c.APIKey = key
		return nil
	}
	if prompt != nil {
		key, err := prompt()
		if err != nil {
			return errors.Wrap(err, "asking for API key")
		}
		c.APIKey = strings.TrimSpace(key)
	}
	if c.APIKey == "" {
		if keyringErr != nil {
			return errors.Wrap(ErrMissingAPIKey, keyringErr.Error())
		}
		return ErrMissingAPIKey
	}
	return nil
}

// Validate reports whether c has everything needed to build requests.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Authorization returns the credential described by APIKey and AuthHeader.
func (c *Config) Authorization() request.Authorization {
	switch strings.ToLower(c.AuthHeader) {
	case "", "authorization", "bearer":
		return request.Bearer(c.APIKey)
	case request.APIKeyHeader:
		return request.APIKey(c.APIKey)
	default:
		return request.CustomAuthorization(c.AuthHeader, c.APIKey)
	}
}
