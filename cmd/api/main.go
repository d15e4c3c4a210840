package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/NguyenVietAn1824/KLTN-v1/internal/api"
	"github.com/NguyenVietAn1824/KLTN-v1/internal/config"
	"github.com/NguyenVietAn1824/KLTN-v1/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection error: %v", err)
	}
	defer st.Close()

	if err := st.Init(ctx); err != nil {
		log.Fatalf("db init error: %v", err)
	}

	srv := api.New(cfg, st)
	log.Printf("REST API listening on %s", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
