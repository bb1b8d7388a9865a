// internal/app/jobs.go
package app

import (
	"context"
	"fmt"
	"time"

	"ranking-workers/internal/common/config"
	"ranking-workers/internal/common/scheduler"
	"ranking-workers/internal/service"
)

// WarmCacheJob recomputes the default rankings and reviews datasets so the
// first page view after expiry is served from cache. It also records the
// day's history as a side effect of the rankings computation.
func (a *App) WarmCacheJob() scheduler.Job {
	return scheduler.FuncJob{JobName: "warm-ranking-cache", Fn: func(ctx context.Context) error {
		if _, err := a.Service.Rankings(ctx, service.RankingsRequest{}); err != nil {
			return err
		}
		_, err := a.Service.ReviewsRanking(ctx, service.ReviewsRequest{})
		return err
	}}
}

func (a *App) IndexRankingsJob() scheduler.Job {
	return scheduler.FuncJob{JobName: "index-rankings", Fn: func(ctx context.Context) error {
		if a.Indexer == nil {
			return nil
		}
		result, err := a.Service.Rankings(ctx, service.RankingsRequest{})
		if err != nil {
			return err
		}
		if result.Degraded {
			return fmt.Errorf("rankings degraded, index left unchanged")
		}
		_, err = a.Indexer.IndexRankings(ctx, result.Dataset)
		return err
	}}
}

func (a *App) ScanAlertsJob() scheduler.Job {
	return scheduler.FuncJob{JobName: "scan-ranking-alerts", Fn: func(ctx context.Context) error {
		if a.Notifier == nil {
			return nil
		}
		window := time.Duration(a.Config.Alerts.WindowHrs) * time.Hour
		movements, err := a.Service.Movements(ctx, window, a.Config.Alerts.Threshold)
		if err != nil {
			return err
		}
		_, err = a.Notifier.NotifyMovements(ctx, movements, a.Config.Alerts.Threshold)
		return err
	}}
}

// NewScheduler registers the background jobs configured in cfg.
func (a *App) NewScheduler(cfg config.SchedulerConfig) (*scheduler.Scheduler, error) {
	s := scheduler.New(a.Logger, 2*time.Minute)

	jobs := []struct {
		spec string
		job  scheduler.Job
	}{
		{cfg.WarmCache, a.WarmCacheJob()},
		{cfg.IndexRankings, a.IndexRankingsJob()},
		{cfg.ScanAlerts, a.ScanAlertsJob()},
	}
	for _, j := range jobs {
		if j.spec == "" || j.spec == "-" {
			continue
		}
		if err := s.AddJob(j.spec, j.job); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", j.job.Name(), err)
		}
	}
	return s, nil
}
