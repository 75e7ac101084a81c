package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/peterkuimelis/durak/internal/config"
	durakmcp "github.com/peterkuimelis/durak/internal/mcp"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file")
	hub := flag.String("hub", "", "hub websocket URL (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *hub != "" {
		cfg.HubURL = *hub
	}
	durakmcp.SetConfig(cfg)

	s := server.NewMCPServer("durak", "1.0.0")
	durakmcp.RegisterTools(s)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
