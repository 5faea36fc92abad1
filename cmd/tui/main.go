package main

import (
	"flag"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"

	"github.com/foodbridge-dev/foodbridge/cmd/tui/internal/app"
	"github.com/foodbridge-dev/foodbridge/internal/api"
	"github.com/foodbridge-dev/foodbridge/internal/session"
)

func main() {
	defaultURL := os.Getenv("FOODBRIDGE_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:5000"
	}
	apiURL := flag.String("api", defaultURL, "Marketplace backend base URL")
	flag.Parse()

	sessionPath, err := session.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "foodbridge: %v\n", err)
		os.Exit(1)
	}
	sessions := session.New(sessionPath)
	// A bad snapshot means logged out, never a failed start.
	if _, err := sessions.Restore(); err != nil {
		fmt.Fprintf(os.Stderr, "foodbridge: session restore: %v\n", err)
	}

	client := api.New(*apiURL)

	m := app.New(client, sessions, nil)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "foodbridge: %v\n", err)
		os.Exit(1)
	}
}
