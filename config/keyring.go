package config

import (
	"path/filepath"

	"github.com/99designs/keyring"
	"github.com/pkg/errors"
)

const (
	serviceName = "openai-go"
	apiKeyItem  = "api_key"
)

// openKeyring can be replaced in tests to use an in-memory keyring.
var openKeyring = func(cfg keyring.Config) (keyring.Keyring, error) {
	return keyring.Open(cfg)
}

func keyringConfig() keyring.Config {
	cfg := keyring.Config{
		ServiceName:      serviceName,
		FilePasswordFunc: keyring.TerminalPrompt,
	}
	if dir, err := userConfigDir(); err == nil && dir != "" {
		cfg.FileDir = filepath.Join(dir, serviceName, "keyring")
	}
	return cfg
}

// LoadAPIKey returns the API key stored in the OS keyring, or "" when none
// is stored.
func LoadAPIKey() (string, error) {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return "", errors.Wrap(err, "opening keyring")
	}
	item, err := ring.Get(apiKeyItem)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return "", errors.Wrap(err, "reading API key from keyring")
	}
	return string(item.Data), nil
}

// SaveAPIKey stores key in the OS keyring.
func SaveAPIKey(key string) error {
	if key == "" {
		return ErrMissingAPIKey
	}
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return errors.Wrap(err, "opening keyring")
	}
	err = ring.Set(keyring.Item{
		Key:   apiKeyItem,
		Data:  []byte(key),
		Label: "OpenAI API key",
	})
	return errors.Wrap(err, "saving API key to keyring")
}
