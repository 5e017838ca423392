package artifacts

import (
	"context"
	"database/sql"
	"fmt"
)

// PGSink writes artifacts to the report_artifacts table.
type PGSink struct {
	DB *sql.DB
}

func (s *PGSink) Save(ctx context.Context, a Artifact) error {
	const query = `
INSERT INTO report_artifacts (id, kind, request_id, body, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := s.DB.ExecContext(ctx, query,
		a.ID,
		string(a.Kind),
		a.RequestID,
		a.Body,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert artifact %s: %w", a.ID, err)
	}
	return nil
}
