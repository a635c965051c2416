package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voicebridge/bridge/internal/bridge/repository"
)

// PgCallLogRepository implements repository.CallLogRepository on PostgreSQL.
type PgCallLogRepository struct {
	pool *pgxpool.Pool
}

func NewPgCallLogRepository(pool *pgxpool.Pool) *PgCallLogRepository {
	return &PgCallLogRepository{pool: pool}
}

func (r *PgCallLogRepository) Insert(ctx context.Context, entry *repository.CallLogEntry) error {
	query := `
		INSERT INTO call_log (id, client_name, phone_number, user_type, voice_session_id, call_sid, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.ClientName, entry.PhoneNumber, entry.UserType,
		entry.VoiceSessionID, entry.CallSID, entry.Status, entry.ErrorMessage, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert call log entry: %w", err)
	}
	return nil
}

func (r *PgCallLogRepository) ListRecent(ctx context.Context, limit int) ([]repository.CallLogEntry, error) {
	query := `
		SELECT id, client_name, phone_number, user_type, voice_session_id, call_sid, status, error_message, created_at
		FROM call_log
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query call log: %w", err)
	}
	defer rows.Close()

	var entries []repository.CallLogEntry
	for rows.Next() {
		var e repository.CallLogEntry
		if err := rows.Scan(&e.ID, &e.ClientName, &e.PhoneNumber, &e.UserType,
			&e.VoiceSessionID, &e.CallSID, &e.Status, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan call log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read call log rows: %w", err)
	}
	return entries, nil
}
