package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"punchclock/internal/domain/attendance"
	"punchclock/internal/platform/config"
)

const JobAbsenceReconcile = "absence_reconcile"

type Service struct {
	DB         *pgxpool.Pool
	Cfg        config.Config
	Attendance *attendance.Service
	queue      chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config, att *attendance.Service) *Service {
	return &Service{
		DB:         db,
		Cfg:        cfg,
		Attendance: att,
		queue:      make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.ReconcileInterval > 0 {
		go s.scheduleReconciliation(ctx, s.Cfg.ReconcileInterval)
	}
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

// ReconcileDay marks absences for the given day and reports how many
// records were inserted.
func (s *Service) ReconcileDay(ctx context.Context, day time.Time) (any, error) {
	return s.RunNow(ctx, JobAbsenceReconcile, func(ctx context.Context) (any, error) {
		inserted, err := s.Attendance.ReconcileAbsences(ctx, day)
		return map[string]any{
			"date":     attendance.DateOf(day).Format("2006-01-02"),
			"inserted": inserted,
		}, err
	})
}

func (s *Service) worker(ctx context.Context) {
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

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, j.Type, "running").Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) scheduleReconciliation(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			yesterday := time.Now().AddDate(0, 0, -1)
			s.Enqueue(JobAbsenceReconcile, func(ctx context.Context) (any, error) {
				inserted, err := s.Attendance.ReconcileAbsences(ctx, yesterday)
				return map[string]any{
					"date":     attendance.DateOf(yesterday).Format("2006-01-02"),
					"inserted": inserted,
				}, err
			})
		}
	}
}
