package audit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Service appends entries to the audit log. Failures are reported to the
// caller but never block the audited operation.
type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, actorID, action, entity, entityID, requestID string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_log (actor_id, action, entity, entity_id, request_id)
    VALUES ($1, $2, $3, $4, $5)
  `, nullIfEmpty(actorID), action, entity, nullIfEmpty(entityID), nullIfEmpty(requestID))
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
