package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"chatrelay/internal/config"
	"chatrelay/internal/openai"
	"chatrelay/internal/server"
)

const serveUsage = `Usage:
  chatrelay serve [--config <path>] [--port <port>]

Flags:
  --config string   Path to YAML configuration file (optional, defaults apply)
  --port   int      Override server port from configuration`

func serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, serveUsage)
	}

	var cfgPath string
	var overridePort int
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")
	fs.IntVar(&overridePort, "port", 0, "override server port")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse serve flags: %w", err)
	}

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if overridePort != 0 {
		if overridePort <= 0 || overridePort > 65535 {
			return fmt.Errorf("port override %d must be a valid TCP port", overridePort)
		}
		cfg.Server.Port = overridePort
	}

	// Best-effort: a missing .env file is not an error.
	_ = godotenv.Load()

	apiKey := os.Getenv(cfg.Upstream.APIKeyEnv)
	if apiKey == "" {
		return fmt.Errorf("environment variable %s must be set", cfg.Upstream.APIKeyEnv)
	}

	client := openai.NewClient(apiKey, openai.WithBaseURL(cfg.Upstream.BaseURL))

	srv, err := server.New(cfg, client)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
