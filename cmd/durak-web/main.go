package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/peterkuimelis/durak/internal/config"
	duraklog "github.com/peterkuimelis/durak/internal/log"
	"github.com/peterkuimelis/durak/internal/session"
	"github.com/peterkuimelis/durak/internal/web"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	hub := flag.String("hub", "", "hub websocket URL (overrides config)")
	gameID := flag.String("game", "", "game id to join (overrides config)")
	userID := flag.String("user", "", "your player id (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.WebAddr = *addr
	}
	if *hub != "" {
		cfg.HubURL = *hub
	}
	if *gameID != "" {
		cfg.GameID = *gameID
	}
	if *userID != "" {
		cfg.UserID = *userID
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sess, errc, err := session.Connect(ctx, cfg, duraklog.NewTextLogger(os.Stdout))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	go func() {
		if err := <-errc; err != nil && ctx.Err() == nil {
			log.Printf("Session stopped: %v", err)
			stop()
		}
	}()

	srv := web.NewServer(sess)
	log.Printf("durak web UI listening on http://localhost%s", cfg.WebAddr)
	if err := srv.ListenAndServe(cfg.WebAddr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
