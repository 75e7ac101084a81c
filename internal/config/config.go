package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Client is the client configuration, normally read from durak.yaml.
type Client struct {
	HubURL string `yaml:"hub_url"`
	GameID string `yaml:"game_id"`
	UserID string `yaml:"user_id"`

	// PendingTTL is how long an optimistic move may wait for confirmation
	// before it is rolled back. Zero disables expiry.
	PendingTTL     time.Duration `yaml:"pending_ttl"`
	ExpiryInterval time.Duration `yaml:"expiry_interval"`

	ReconnectMin time.Duration `yaml:"reconnect_min"`
	ReconnectMax time.Duration `yaml:"reconnect_max"`
	PingInterval time.Duration `yaml:"ping_interval"`

	// WebAddr is the listen address of the browser bridge.
	WebAddr string `yaml:"web_addr"`
}

// Default returns the configuration used when no file is given.
func Default() Client {
	return Client{
		HubURL:         "ws://localhost:5000/hubs/game",
		PendingTTL:     10 * time.Second,
		ExpiryInterval: time.Second,
		ReconnectMin:   500 * time.Millisecond,
		ReconnectMax:   15 * time.Second,
		PingInterval:   15 * time.Second,
		WebAddr:        ":8080",
	}
}

// Load reads a YAML file over the defaults. A missing file is not an error
// when path is empty.
func Load(path string) (Client, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config YAML: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields needed to join a game.
func (c Client) Validate() error {
	var errs []error
	if c.HubURL == "" {
		errs = append(errs, errors.New("hub_url is required"))
	} else if u, err := url.Parse(c.HubURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		errs = append(errs, fmt.Errorf("hub_url %q must be a ws:// or wss:// URL", c.HubURL))
	}
	if c.GameID == "" {
		errs = append(errs, errors.New("game_id is required"))
	}
	if c.UserID == "" {
		errs = append(errs, errors.New("user_id is required"))
	}
	if c.PendingTTL < 0 || c.ExpiryInterval < 0 || c.PingInterval < 0 {
		errs = append(errs, errors.New("durations must be >= 0"))
	}
	if c.ReconnectMin <= 0 || c.ReconnectMax < c.ReconnectMin {
		errs = append(errs, fmt.Errorf("invalid reconnect backoff: min=%s max=%s", c.ReconnectMin, c.ReconnectMax))
	}
	return errors.Join(errs...)
}

// Encode renders c as YAML, e.g. to write a starter config file.
func (c Client) Encode() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config YAML: %w", err)
	}
	return data, nil
}
