package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	conf "sheinstock/internal/config"
	"sheinstock/internal/db"
	"sheinstock/internal/handler"
	"sheinstock/internal/logs"
	"sheinstock/internal/metrics"
	"sheinstock/internal/router"
	"sheinstock/internal/store"
	"sheinstock/internal/syncer"
)

// overridable via: -ldflags "-X 'main.ver=1.0.1'"
var ver = "1.0.0"

func main() {
	dataDir := flag.String("data", "./data", "data directory (db, logs, config)")
	console := flag.Bool("console", true, "mirror logs to stdout")
	flag.Parse()

	appDir := mustDataDir(*dataDir)
	log := logs.New(filepath.Join(appDir, "app.log"), *console)

	cfgPath := filepath.Join(appDir, "config.json")
	cfg, firstRun, err := conf.LoadOrCreate(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}
	if firstRun {
		log.Info().Str("path", cfgPath).Msg("default config created")
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatal().Err(err).Msg("env overlay error")
	}

	var dbh *db.Handle
	if cfg.Database.DSN != "" {
		dbh, err = db.Open(cfg.Database.Driver, cfg.Database.DSN)
	} else {
		dbh, err = db.OpenAt(appDir)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("DB open error")
	}
	if err := dbh.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("DB migrate error")
	}
	log.Info().Str("db", dbh.Path).Msg("DB ready")
	sqlDB, _ := dbh.DB.DB()
	defer sqlDB.Close()

	metrics.RegisterDefault()

	st := store.NewGorm(dbh.DB)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := syncer.New(log, cfg, st)
	if cfg.AutoStart {
		if err := s.Start(ctx); err != nil {
			log.Error().Err(err).Msg("syncer autostart failed")
		}
	}

	mux := router.New(router.Config{
		Log:               log,
		SyncHandler:       handler.NewSyncHandler(s, st),
		DashboardHandler:  handler.NewDashboardHandler(st),
		CredentialHandler: handler.NewCredentialHandler(st),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", ver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	s.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

func mustDataDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		panic(err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		panic(err)
	}
	return abs
}
