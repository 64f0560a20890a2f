package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Breadstickhemmo/42Brat/internal/app"
	"github.com/Breadstickhemmo/42Brat/internal/client"
	"github.com/Breadstickhemmo/42Brat/internal/config"
	"github.com/Breadstickhemmo/42Brat/internal/credstore"
	"github.com/Breadstickhemmo/42Brat/internal/logging"
	"github.com/Breadstickhemmo/42Brat/internal/realtime"
	"github.com/Breadstickhemmo/42Brat/internal/session"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	server := flag.String("server", "", "Base URL of the events API (overrides config)")
	stateDir := flag.String("state-dir", "", "Directory for credentials and logs (overrides config)")
	flag.Parse()

	if err := run(*configPath, *server, *stateDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, server, stateDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := applyOverrides(cfg, server, stateDir); err != nil {
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting",
		zap.String("base_url", cfg.Server.BaseURL),
		zap.String("push_url", cfg.PushURL()),
		zap.String("state_dir", cfg.StateDir))

	store := credstore.NewStore(cfg.StateDir)
	sess := session.NewManager(store, log)
	fetcher := client.NewFetcher(cfg.Server.BaseURL, sess, func(tok string) { sess.LogoutIfCurrent(tok) },
		client.WithTimeout(cfg.Server.RequestTimeout),
		client.WithLogger(log))

	m := app.New(app.Deps{
		Config:  cfg,
		API:     client.NewAPI(fetcher),
		Session: sess,
		Dialer:  realtime.FromWS(client.NewWSDialer(cfg.PushURL(), log)),
		Prefs:   store,
		Log:     log,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	log.Info("exited")
	return nil
}

// applyOverrides applies the command-line flags and fills in the paths that
// default to the state directory.
func applyOverrides(cfg *config.Config, server, stateDir string) error {
	if server != "" {
		cfg.Server.BaseURL = server
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if stateDir != "" {
		cfg.StateDir = stateDir
	}
	if cfg.StateDir == "" {
		cfg.StateDir = credstore.DefaultDir()
	}
	if cfg.Log.File == "" {
		cfg.Log.File = logging.DefaultFile(cfg.StateDir)
	}
	return nil
}
