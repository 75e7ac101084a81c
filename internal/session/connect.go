package session

import (
	"context"
	"fmt"

	"github.com/peterkuimelis/durak/internal/config"
	"github.com/peterkuimelis/durak/internal/ledger"
	"github.com/peterkuimelis/durak/internal/log"
	"github.com/peterkuimelis/durak/internal/net"
	"github.com/peterkuimelis/durak/internal/store"
)

// Connect builds a session and its hub client from cfg and starts both.
// The returned channel receives the first error that stops either of them;
// cancelling ctx shuts both down.
func Connect(ctx context.Context, cfg config.Client, logger log.EventLogger) (*Session, <-chan error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	s := New(Config{
		UserID:         cfg.UserID,
		PendingTTL:     cfg.PendingTTL,
		ExpiryInterval: cfg.ExpiryInterval,
	}, store.New(), ledger.New(), logger)

	hub := net.NewHub(net.HubConfig{
		URL:          cfg.HubURL,
		GameID:       cfg.GameID,
		UserID:       cfg.UserID,
		PingInterval: cfg.PingInterval,
		ReconnectMin: cfg.ReconnectMin,
		ReconnectMax: cfg.ReconnectMax,
	}, s)
	s.SetTransport(hub)

	errc := make(chan error, 2)
	go func() { errc <- s.Run(ctx) }()
	go func() { errc <- hub.Run(ctx) }()
	return s, errc, nil
}
