package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/peterkuimelis/durak/internal/cli"
	"github.com/peterkuimelis/durak/internal/config"
	duraklog "github.com/peterkuimelis/durak/internal/log"
	"github.com/peterkuimelis/durak/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "play":
		runPlay(os.Args[2:])
	case "init":
		runInit(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  durak play [--config FILE] [--hub URL] [--game ID] [--user ID] [--quiet]")
	fmt.Println("  durak init [--out FILE]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  play    Join a game on the hub and play in the terminal")
	fmt.Println("  init    Write a starter config file")
}

func runPlay(args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	configFile := fs.String("config", "", "path to YAML config file")
	hub := fs.String("hub", "", "hub websocket URL (overrides config)")
	gameID := fs.String("game", "", "game id to join (overrides config)")
	userID := fs.String("user", "", "your player id (overrides config)")
	quiet := fs.Bool("quiet", false, "do not print the event log")
	fs.Parse(args)

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
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

	var logOut io.Writer = os.Stdout
	if *quiet {
		logOut = io.Discard
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sess, errc, err := session.Connect(ctx, cfg, duraklog.NewTextLogger(logOut))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cli.PrintNotices(sess.Store(), os.Stdout)()

	fmt.Printf("Joining game %s as %s...\n", cfg.GameID, cfg.UserID)
	repl := cli.New(sess, os.Stdin, os.Stdout)

	replErr := make(chan error, 1)
	go func() { replErr <- repl.Run(ctx) }()

	select {
	case err = <-replErr:
	case err = <-errc:
	}
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	out := fs.String("out", "durak.yaml", "path of the config file to write")
	fs.Parse(args)

	data, err := config.Default().Encode()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s; set game_id and user_id before playing.\n", *out)
}
