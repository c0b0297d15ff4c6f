package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Victor-armando18/service-rules/internal/config"
	"github.com/Victor-armando18/service-rules/internal/infrastructure"
	"github.com/Victor-armando18/service-rules/internal/infrastructure/s3source"
	"github.com/Victor-armando18/service-rules/internal/infrastructure/sqlstore"
	"github.com/Victor-armando18/service-rules/internal/interfaces"
	"github.com/Victor-armando18/service-rules/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	seedPath := flag.String("seed", "", "rule pack file imported into the sqlite or postgres store at startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log, err := infrastructure.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		logrus.WithError(err).Fatal("invalid log configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg.Rules, *seedPath, log)
	if err != nil {
		log.WithError(err).Fatal("cannot open rule repository")
	}
	defer closeRepo()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engineSvc := usecase.NewEngineService(
		repo,
		infrastructure.NewEntityLabelResolver(),
		infrastructure.NewJsonLogicConditionEvaluator(log),
		infrastructure.NewRuleActionExecutor(log),
		usecase.WithLogger(log),
		usecase.WithMetrics(infrastructure.NewPrometheusMetrics(reg)),
	)
	window := usecase.PricingWindow{
		FirstYear:   cfg.Pricing.FirstYear,
		LastYear:    cfg.Pricing.LastYear,
		AgentSuffix: cfg.Pricing.AgentSuffix,
	}
	e := newRouter(newServer(engineSvc, window, cfg.Rules.DiscountTriggerCode, log), reg)

	go func() {
		log.WithFields(logrus.Fields{"addr": cfg.Server.Addr, "source": cfg.Rules.Source}).Info("rule engine listening")
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown")
	}
}

// openRepository returns the rule repository for the configured source and a
// function releasing it. A non-empty seed replaces the contents of a SQL store
// with the rule pack at that path.
func openRepository(ctx context.Context, rc config.RulesConfig, seed string, log logrus.FieldLogger) (interfaces.RuleRepository, func(), error) {
	noop := func() {}
	if seed != "" && rc.Source != config.SourceSQLite && rc.Source != config.SourcePostgres {
		return nil, noop, fmt.Errorf("seed needs a sqlite or postgres rules source, got %q", rc.Source)
	}
	switch rc.Source {
	case config.SourceFile:
		pack, err := infrastructure.NewFileRuleLoader(rc.Path, log).Load(ctx)
		if err != nil {
			return nil, noop, err
		}
		return infrastructure.NewMemoryRuleRepository(pack), noop, nil
	case config.SourceS3:
		loader, err := s3source.New(ctx, s3source.Config{
			Region:          rc.S3.Region,
			Bucket:          rc.S3.Bucket,
			Key:             rc.S3.Key,
			Endpoint:        rc.S3.Endpoint,
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			PathStyle:       rc.S3.PathStyle,
		}, log)
		if err != nil {
			return nil, noop, err
		}
		pack, err := loader.Load(ctx)
		if err != nil {
			return nil, noop, err
		}
		return infrastructure.NewMemoryRuleRepository(pack), noop, nil
	case config.SourceSQLite, config.SourcePostgres:
		var store *sqlstore.Store
		var err error
		if rc.Source == config.SourceSQLite {
			store, err = sqlstore.OpenSQLite(rc.Path)
		} else {
			store, err = sqlstore.OpenPostgres(ctx, rc.DSN)
		}
		if err != nil {
			return nil, noop, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, noop, err
		}
		if seed != "" {
			if err := seedStore(ctx, store, seed, log); err != nil {
				_ = store.Close()
				return nil, noop, err
			}
		}
		return store, func() { _ = store.Close() }, nil
	}
	return nil, noop, fmt.Errorf("unknown rules source %q", rc.Source)
}

func seedStore(ctx context.Context, store *sqlstore.Store, path string, log logrus.FieldLogger) error {
	pack, err := infrastructure.NewFileRuleLoader(path, log).Load(ctx)
	if err != nil {
		return err
	}
	if err := store.Import(ctx, pack); err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	log.WithFields(logrus.Fields{"path": path, "version": pack.Version, "rules": len(pack.Rules)}).Info("rule store seeded")
	return nil
}
