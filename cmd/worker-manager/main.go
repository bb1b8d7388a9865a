// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ranking-workers/internal/app"
	"ranking-workers/internal/common/camunda"
	"ranking-workers/internal/common/config"
	"ranking-workers/internal/common/logger"

	cr "ranking-workers/internal/workers/rankings/compute-rankings"
	crr "ranking-workers/internal/workers/rankings/compute-review-rankings"
	erm "ranking-workers/internal/workers/rankings/extract-review-metadata"
	ir "ranking-workers/internal/workers/rankings/index-rankings"
	irc "ranking-workers/internal/workers/rankings/invalidate-ranking-cache"
	pra "ranking-workers/internal/workers/rankings/publish-ranking-alerts"
	qrh "ranking-workers/internal/workers/rankings/query-ranking-history"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.ForService(
		logger.New(cfg.Logging.Level, cfg.Logging.Format),
		cfg.App.Name, cfg.App.Version, cfg.App.Environment,
	)
	defer zapLog.Sync()

	zapLog.Info("Starting worker manager...")

	ctx := context.Background()

	a, err := app.Build(ctx, cfg, zapLog, app.BuildOptions{ServiceName: "worker-manager", Retries: 15})
	if err != nil {
		zapLog.Fatal("backend initialization failed", zap.Error(err))
	}
	defer a.Close()
	zapLog.Info("Backends connected",
		zap.Bool("elasticsearch", a.Indexer != nil),
		zap.Bool("alerts", a.Notifier != nil),
	)

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = app.RetryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	workers := startWorkers(a, zeebe, zapLog)

	var sched interface{ Stop() }
	if cfg.Scheduler.Enabled {
		s, err := a.NewScheduler(cfg.Scheduler)
		if err != nil {
			zapLog.Fatal("scheduler setup failed", zap.Error(err))
		}
		s.Start()
		if err := s.RunNow(a.WarmCacheJob()); err != nil {
			zapLog.Warn("initial cache warmup failed", zap.Error(err))
		}
		sched = s
		zapLog.Info("Scheduler started", zap.Int("jobs", s.Entries()))
	}

	srv := &http.Server{Addr: cfg.App.HTTPAddress, Handler: newMux(a, zeebe)}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.App.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	zapLog.Info("Worker manager stopped")
}

func startWorkers(a *app.App, zeebe *camunda.Client, zapLog *zap.Logger) []worker.JobWorker {
	cfg := a.Config
	client := zeebe.GetClient()
	var workers []worker.JobWorker

	start := func(taskType string, handler camunda.JobHandler, err error) {
		if err != nil {
			zapLog.Fatal("worker setup failed", zap.String("taskType", taskType), zap.Error(err))
		}
		if w := camunda.StartWorker(client, taskType, config.GetWorkerConfig(cfg, taskType), handler, zapLog); w != nil {
			workers = append(workers, w)
		}
	}

	computeRankings, err := cr.NewHandler(cr.HandlerOptions{AppConfig: cfg, Service: a.Service, Validator: a.Validator, Logger: a.Logger})
	start(cr.TaskType, computeRankings, err)

	computeReviews, err := crr.NewHandler(crr.HandlerOptions{AppConfig: cfg, Service: a.Service, Validator: a.Validator, Logger: a.Logger})
	start(crr.TaskType, computeReviews, err)

	history, err := qrh.NewHandler(qrh.HandlerOptions{AppConfig: cfg, Service: a.Service, Validator: a.Validator, Logger: a.Logger})
	start(qrh.TaskType, history, err)

	invalidate, err := irc.NewHandler(irc.HandlerOptions{AppConfig: cfg, Service: a.Service, Validator: a.Validator, Logger: a.Logger})
	start(irc.TaskType, invalidate, err)

	metadata, err := erm.NewHandler(erm.HandlerOptions{AppConfig: cfg, Validator: a.Validator, Logger: a.Logger})
	start(erm.TaskType, metadata, err)

	if a.Indexer != nil {
		index, err := ir.NewHandler(ir.HandlerOptions{AppConfig: cfg, Service: a.Service, Indexer: a.Indexer, Validator: a.Validator, Logger: a.Logger})
		start(ir.TaskType, index, err)
	} else {
		zapLog.Info("elasticsearch not configured, worker skipped", zap.String("taskType", ir.TaskType))
	}

	if a.Notifier != nil {
		publish, err := pra.NewHandler(pra.HandlerOptions{AppConfig: cfg, Service: a.Service, Notifier: a.Notifier, Validator: a.Validator, Logger: a.Logger})
		start(pra.TaskType, publish, err)
	} else {
		zapLog.Info("alerts not configured, worker skipped", zap.String("taskType", pra.TaskType))
	}

	return workers
}

func newMux(a *app.App, zeebe *camunda.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		err := a.Ready(ctx)
		if err == nil {
			err = zeebe.HealthCheck(ctx)
		}
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
