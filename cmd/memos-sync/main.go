package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/DoYourThink/memos-sync/pkg/attachment"
	"github.com/DoYourThink/memos-sync/pkg/client"
	"github.com/DoYourThink/memos-sync/pkg/logging"
	"github.com/DoYourThink/memos-sync/pkg/pagination"
	"github.com/DoYourThink/memos-sync/pkg/settings"
	"github.com/DoYourThink/memos-sync/pkg/syncer"
)

var version = "dev"

type CLI struct {
	Config   string `help:"Path to the settings file" type:"path" placeholder:"PATH"`
	LogLevel string `help:"Log level (debug, info, warn, error)"`
	Pretty   bool   `help:"Human-readable console logs instead of JSON"`

	Sync    SyncCmd    `cmd:"" default:"withargs" help:"Fetch memos once and write them to disk"`
	Daemon  DaemonCmd  `cmd:"" help:"Sync on an interval and serve health and metrics endpoints"`
	Init    InitCmd    `cmd:"" help:"Write a settings file with defaults"`
	Version VersionCmd `cmd:"" help:"Print the version"`
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("memos-sync"),
		kong.Description("Sync memos from a Memos server into local Markdown files"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(cli))
}

// loadSettings resolves the settings path, loads the file, and applies the
// global command line overrides.
func loadSettings(cli *CLI) (settings.Settings, string, error) {
	path := cli.Config
	if path == "" {
		p, err := settings.DefaultPath()
		if err != nil {
			return settings.Settings{}, "", fmt.Errorf("resolve settings path: %w", err)
		}
		path = p
	}

	s, err := settings.Load(path)
	if err != nil {
		return settings.Settings{}, "", err
	}

	if cli.LogLevel != "" {
		s.LogLevel = cli.LogLevel
	}
	if cli.Pretty {
		s.LogPretty = true
	}
	return s, path, nil
}

func setupLogging(s settings.Settings) {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(s.LogLevel)
	cfg.Pretty = s.LogPretty
	logging.Setup(cfg)
}

// buildSyncer wires the API client, fetcher, downloader, and file stores
// from settings.
func buildSyncer(s settings.Settings) (*syncer.Syncer, error) {
	api, err := client.New(client.DefaultConfig(s.APIURL, s.AccessToken))
	if err != nil {
		return nil, err
	}

	fetcher := pagination.NewFetcher(api, pagination.DefaultConfig())
	downloader := attachment.NewDownloader(api.BaseURL(), api)

	return syncer.New(fetcher, downloader,
		syncer.NewFileStore(s.SyncDir),
		syncer.NewFileStore(s.AttachmentDir),
		syncer.Config{Limit: s.SyncLimit},
	), nil
}

type SyncCmd struct {
	Limit  int    `help:"Cap how many memos this run fetches (overrides the settings file)"`
	Output string `help:"Directory for the Markdown files (overrides the settings file)" type:"path" placeholder:"DIR"`
}

func (c *SyncCmd) Run(cli *CLI) error {
	s, _, err := loadSettings(cli)
	if err != nil {
		return err
	}
	setupLogging(s)

	if c.Limit > 0 {
		s.SyncLimit = c.Limit
	}
	if c.Output != "" {
		s.SyncDir = c.Output
		s.AttachmentDir = filepath.Join(c.Output, "attachments")
	}

	sync, err := buildSyncer(s)
	if err != nil {
		return err
	}

	stats, err := sync.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Synced %d of %d memos (%d attachments saved, %d failed) in %s\n",
		stats.Written, stats.Fetched, stats.AttachmentsSaved, stats.AttachmentsFailed,
		stats.Duration.Round(time.Millisecond))
	return nil
}

type DaemonCmd struct {
	Interval time.Duration `help:"Time between sync runs (overrides the settings file)"`
	Listen   string        `help:"Address for the health and metrics endpoints" default:":9464"`
}

func (c *DaemonCmd) Run(cli *CLI) error {
	s, _, err := loadSettings(cli)
	if err != nil {
		return err
	}
	setupLogging(s)

	interval := s.Interval
	if c.Interval > 0 {
		interval = c.Interval
	}

	sync, err := buildSyncer(s)
	if err != nil {
		return err
	}

	go func() {
		if err := http.ListenAndServe(c.Listen, statusMux()); err != nil {
			log.Error().Err(err).Msg("Status server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Dur("interval", interval).Str("listen", c.Listen).Msg("Daemon started")

	for {
		if _, err := sync.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Sync run failed")
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			log.Info().Msg("Daemon stopped")
			return nil
		}
	}
}

// statusMux serves the daemon's health and metrics endpoints.
func statusMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

type InitCmd struct {
	APIURL      string `help:"Memos API base URL ending in /api/v1" name:"api-url"`
	AccessToken string `help:"Memos access token"`
	Force       bool   `help:"Overwrite an existing settings file"`
}

func (c *InitCmd) Run(cli *CLI) error {
	path := cli.Config
	if path == "" {
		p, err := settings.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolve settings path: %w", err)
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil && !c.Force {
		return fmt.Errorf("settings file %s already exists (use --force to overwrite)", path)
	}

	s := settings.Defaults()
	s.APIURL = c.APIURL
	s.AccessToken = c.AccessToken
	if err := settings.Save(path, s); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

type VersionCmd struct{}

func (c *VersionCmd) Run(cli *CLI) error {
	fmt.Println("memos-sync " + version)
	return nil
}
