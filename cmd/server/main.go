package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"essayproxy-go/internal/config"
	"essayproxy-go/internal/constants"
	"essayproxy-go/internal/events"
	"essayproxy-go/internal/logging"
	tracing "essayproxy-go/internal/monitoring/tracing"
	srv "essayproxy-go/internal/server"
	"essayproxy-go/internal/version"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	if *debug {
		// env 优先级高于文件，热重载后依旧保持 debug
		_ = os.Setenv("DEBUG", "true")
	}

	if err := run(*configPath); err != nil {
		log.WithError(err).Fatal("essayproxy exited")
	}
}

func run(configPath string) error {
	cm, err := config.NewConfigManager(configPath)
	if err != nil {
		return err
	}
	defer cm.Close()

	cfg := cm.Current()
	if err := logging.Setup(cfg); err != nil {
		return err
	}
	cm.OnChange(func(next *config.Config) {
		if err := logging.Setup(next); err != nil {
			log.WithError(err).Warn("reapply logging after config change")
		}
	})

	traceShutdown, err := tracing.Init(context.Background())
	if err != nil {
		log.WithError(err).Warn("failed to initialize tracing")
	}
	if traceShutdown != nil {
		defer func() {
			if err := traceShutdown(context.Background()); err != nil {
				log.WithError(err).Warn("failed to shutdown tracing")
			}
		}()
	}

	log.WithFields(log.Fields{
		"config":  configPath,
		"version": version.Version,
		"model":   cfg.Upstream.Model,
		"keys":    len(cfg.Credentials()),
	}).Info("starting essayproxy")

	hub := events.NewHub()
	cm.SetEventPublisher(hub)
	subscribeDebugEvents(hub, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openIndexStore(ctx, cfg)
	defer closeStore()

	engine := srv.BuildEngine(cfg, srv.Dependencies{
		Config: cm.Current,
		Store:  store,
		Events: hub,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
	}

	cm.Watch()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("essay API listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("server stopped")
	return err
}
