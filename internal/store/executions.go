package store

import (
	"context"
	"fmt"

	"sellerdesk-automation-api/internal/domain"

	"github.com/google/uuid"
)

// ClaimExecution atomically claims the (rule, message) pair. It returns true
// when this caller won the claim and may execute the action, false when the
// pair was already claimed by an earlier evaluation. The uniqueness
// constraint on rule_executions makes this a single insert-if-absent
// operation rather than a racy read-then-write.
func (s *DBStore) ClaimExecution(ctx context.Context, ruleID uuid.UUID, messageID string) (bool, error) {
	query := `
    INSERT INTO rule_executions (rule_id, message_id, status)
    VALUES ($1, $2, 'pending')
    ON CONFLICT (rule_id, message_id) DO NOTHING;
    `

	cmdTag, err := s.pool.Exec(ctx, query, ruleID, messageID)
	if err != nil {
		return false, fmt.Errorf("db exec error: %w", err)
	}

	return cmdTag.RowsAffected() == 1, nil
}

// RecordExecution finalizes a claimed execution and folds the outcome into
// the rule's counters in one atomic statement. Success increments
// success_count, failed increments failure_count; both stamp
// last_executed_at. Skipped outcomes touch neither table.
func (s *DBStore) RecordExecution(ctx context.Context, rec domain.ExecutionRecord) error {
	if rec.Status == domain.ExecutionSkipped {
		return nil
	}

	query := `
    WITH finished AS (
        UPDATE rule_executions
        SET status = $3, error_detail = $4, executed_at = $5
        WHERE rule_id = $1 AND message_id = $2
        RETURNING rule_id
    )
    UPDATE automation_rules r
    SET success_count = r.success_count + CASE WHEN $3 = 'success' THEN 1 ELSE 0 END,
        failure_count = r.failure_count + CASE WHEN $3 = 'failed' THEN 1 ELSE 0 END,
        last_executed_at = $5,
        updated_at = now()
    FROM finished f
    WHERE r.id = f.rule_id;
    `

	cmdTag, err := s.pool.Exec(ctx, query,
		rec.RuleID,
		rec.MessageID,
		rec.Status,
		rec.ErrorDetail,
		rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("db exec error: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("no claimed execution for rule %s and message %s", rec.RuleID, rec.MessageID)
	}

	return nil
}

// ListExecutions returns recent execution records, optionally filtered by
// rule, newest first.
func (s *DBStore) ListExecutions(ctx context.Context, ruleID *uuid.UUID, limit int) ([]domain.ExecutionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
    SELECT rule_id, message_id, status, error_detail, executed_at
    FROM rule_executions
    WHERE status <> 'pending' AND ($1::uuid IS NULL OR rule_id = $1)
    ORDER BY executed_at DESC
    LIMIT $2;
    `

	rows, err := s.pool.Query(ctx, query, ruleID, limit)
	if err != nil {
		return nil, fmt.Errorf("db query error: %w", err)
	}
	defer rows.Close()

	var records []domain.ExecutionRecord
	for rows.Next() {
		var rec domain.ExecutionRecord
		err := rows.Scan(
			&rec.RuleID,
			&rec.MessageID,
			&rec.Status,
			&rec.ErrorDetail,
			&rec.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("db row scan error: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db rows error: %w", err)
	}

	return records, nil
}
