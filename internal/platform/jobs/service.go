package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"solarops/internal/platform/querier"
)

const (
	JobTicketHook  = "ticket_hook"
	JobPayrollWarm = "payroll_warm"

	queueSize = 128

	finishTimeout = 5 * time.Second
)

type Service struct {
	// DB records job_runs; nil skips recording.
	DB    querier.Querier
	queue chan job
	cron  *cron.Cron
	wg    sync.WaitGroup
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db querier.Querier) *Service {
	return &Service{
		DB:    db,
		queue: make(chan job, queueSize),
		cron:  cron.New(cron.WithLogger(cronLogger{})),
	}
}

func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.worker(ctx)
	s.cron.Start()
}

// Stop halts the schedule and waits for the worker to drain after ctx is done.
func (s *Service) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

// Schedule runs fn on a standard five-field cron spec.
func (s *Service) Schedule(spec, jobType string, run func(context.Context) (any, error)) error {
	if _, err := s.cron.AddFunc(spec, func() { s.Enqueue(jobType, run) }); err != nil {
		return fmt.Errorf("schedule %s: %w", jobType, err)
	}
	return nil
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (details any, err error) {
	runID := ""
	if s.DB != nil {
		if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, j.Type, "running").Scan(&runID); err != nil {
			slog.Warn("job run insert failed", "err", err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.Type, r)
		}
		s.finish(ctx, runID, details, err)
	}()
	return j.Run(ctx)
}

func (s *Service) finish(ctx context.Context, runID string, details any, err error) {
	if s.DB == nil || runID == "" {
		return
	}
	status := "completed"
	if err != nil {
		status = "failed"
	}
	// The run outlives a cancelled worker context; its row must not stay running.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
		slog.Warn("job run update failed", "err", updErr)
	}
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Warn("cron: "+msg, append(keysAndValues, "err", err)...)
}
