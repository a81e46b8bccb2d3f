// Package main is the entry point for the KANOSYM sensitivity server: it
// loads configuration, wires persistence and the engine, starts the HTTP
// API, runs the nightly maintenance scheduler, and shuts everything down
// gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/kanosym/sensitivity-core/internal/config"
	"github.com/kanosym/sensitivity-core/internal/engine"
	"github.com/kanosym/sensitivity-core/internal/scheduler"
	"github.com/kanosym/sensitivity-core/internal/server"
	"github.com/kanosym/sensitivity-core/internal/store"
	"github.com/kanosym/sensitivity-core/pkg/logger"
)

func main() {
	var dataDirFlag string
	flag.StringVar(&dataDirFlag, "data-dir", "", "data directory path (overrides KANOSYM_DATA_DIR)")
	flag.Parse()

	cfg, err := config.Load(dataDirFlag)
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})
	log.Info().Msg("starting kanosym sensitivity server")

	fileStore, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize file store")
	}

	index, err := store.NewSQLiteIndex(cfg.DataDir + "/index.db")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize sqlite index")
	}
	defer index.Close()

	if err := index.Rebuild(context.Background(), fileStore); err != nil {
		log.Error().Err(err).Msg("failed to rebuild index cache at startup")
	}

	var mirror *store.S3Mirror
	if cfg.S3BackupEnabled {
		mirror, err = store.NewS3Mirror(context.Background(), cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey, cfg.S3Bucket, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize s3 mirror")
		}
		log.Info().Msg("s3 backup mirror enabled")
	}

	eng := engine.New(log)
	srv := server.New(eng, fileStore, fileStore, index, mirror, log)

	sched := scheduler.New(log)
	if err := sched.AddDaily(3, 0, scheduler.NewIndexRebuildJob(index, fileStore)); err != nil {
		log.Fatal().Err(err).Msg("failed to register index rebuild job")
	}
	if mirror != nil {
		if err := sched.AddDaily(3, 30, scheduler.NewS3ResyncJob(fileStore, mirror)); err != nil {
			log.Fatal().Err(err).Msg("failed to register s3 resync job")
		}
	}
	sched.Start()
	log.Info().Msg("scheduler started")

	httpSrv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: srv.Router(),
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start http server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

