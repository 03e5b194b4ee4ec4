package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/geocoder89/accounthub/internal/client/api"
	"github.com/geocoder89/accounthub/internal/client/cli"
	"github.com/geocoder89/accounthub/internal/client/session"
	"github.com/geocoder89/accounthub/internal/client/storage"
	"github.com/geocoder89/accounthub/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, cli.ErrInvalidInput) {
			fmt.Fprintln(os.Stderr, "accountctl:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg := config.LoadClient()

	if err := os.MkdirAll(filepath.Dir(cfg.SessionDB), 0o700); err != nil {
		return fmt.Errorf("session dir: %w", err)
	}

	kv, err := storage.OpenSQLite(ctx, cfg.SessionDB)
	if err != nil {
		return err
	}
	defer kv.Close()

	client := api.New(cfg.APIURL, &http.Client{Timeout: cfg.Timeout})
	app := cli.NewApp(client, session.New(kv))

	return app.Run(ctx, args)
}
