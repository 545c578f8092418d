package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleetbot/internal/client"
	"fleetbot/internal/config"
	"fleetbot/internal/domain"
	"fleetbot/internal/fleet"
	apphttp "fleetbot/internal/http"
	"fleetbot/internal/integrations/telegram"
	"fleetbot/internal/logsink"
	"fleetbot/internal/pacing"
	"fleetbot/internal/rewrite"
	"fleetbot/internal/security/secretbox"
	"fleetbot/internal/session"
	filestore "fleetbot/internal/session/file"
	pgstore "fleetbot/internal/session/postgres"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	accounts, err := config.LoadAccounts(cfg.AccountsFile)
	if err != nil {
		log.Fatalf("load accounts: %v", err)
	}

	var box *secretbox.Box
	if cfg.SessionEncryptionKey != "" {
		box, err = secretbox.New(cfg.SessionEncryptionKey)
		if err != nil {
			log.Fatalf("session encryption key: %v", err)
		}
	}

	var snapshots session.Store
	if cfg.StoreMode == "postgres" && cfg.DatabaseURL != "" {
		pg, err := pgstore.NewStore(cfg.DatabaseURL, box)
		if err != nil {
			log.Printf("postgres session store unavailable, falling back to file store: %v", err)
			snapshots = filestore.NewStore(cfg.SessionDir, box)
		} else {
			snapshots = pg
		}
	} else {
		snapshots = filestore.NewStore(cfg.SessionDir, box)
	}

	logs := logsink.NewBuffer(cfg.LogBufferSize)
	sinks := logsink.Multi{logsink.NewLogger(nil), logs}
	if cfg.LogWebhookURL != "" {
		sinks = append(sinks, logsink.NewWebhook(cfg.LogWebhookURL, cfg.LogWebhookTimeout))
	}
	sinks.Emit("SYSTEM", string(domain.ActionLoad), domain.SeverityInfo,
		fmt.Sprintf("loaded %d accounts from %s", len(accounts), cfg.AccountsFile))

	var rewriter rewrite.Rewriter
	if cfg.RewriteProvider == "openai" && cfg.OpenAIAPIKey != "" {
		rewriter = &rewrite.OpenAI{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		}
	}

	mgr := fleet.New(
		fleet.Config{
			LoginDelayMin: cfg.LoginDelayMin,
			LoginDelayMax: cfg.LoginDelayMax,
			VerifyDelay:   cfg.VerifyDelay,
		},
		fleet.Deps{
			Accounts:  accounts,
			NewClient: client.NewRESTFactory(cfg.GatewayBaseURL, cfg.GatewayTimeout),
			Snapshots: snapshots,
			Pacer: pacing.New(pacing.Config{
				MinSpacing:    cfg.MinActionSpacing,
				JitterMax:     cfg.ActionJitterMax,
				CooldownEvery: cfg.CooldownEvery,
				CooldownMin:   cfg.CooldownMin,
				CooldownMax:   cfg.CooldownMax,
			}),
			Sink:     sinks,
			Rewriter: rewriter,
			Notifier: telegram.NewNotifier(cfg.TelegramBotToken, cfg.TelegramChatID),
		},
	)

	srv := apphttp.NewServer(cfg, mgr, logs)

	httpServer := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     srv.Router(),
		ReadTimeout: 10 * time.Second,
		// No write timeout: /api/logs holds a long-lived event stream.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("fleetbot API listening on %s (%d accounts configured)", cfg.ListenAddr, len(accounts))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	mgr.Shutdown(ctx)
}
