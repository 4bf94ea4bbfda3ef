package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sellerdesk-automation-api/internal/domain"

	"github.com/jackc/pgx/v5"
)

const messageColumns = `id, subject, content, sender_name, sender_email, type, priority, tags, context, status, received_at`

func scanMessage(row pgx.Row) (domain.Message, error) {
	var msg domain.Message
	var contextRaw []byte

	err := row.Scan(
		&msg.ID,
		&msg.Subject,
		&msg.Content,
		&msg.SenderName,
		&msg.SenderEmail,
		&msg.Type,
		&msg.Priority,
		&msg.Tags,
		&contextRaw,
		&msg.Status,
		&msg.ReceivedAt,
	)
	if err != nil {
		return domain.Message{}, err
	}

	if len(contextRaw) > 0 {
		if err := json.Unmarshal(contextRaw, &msg.Context); err != nil {
			return domain.Message{}, fmt.Errorf("stored context for message %s is invalid: %w", msg.ID, err)
		}
	}
	if msg.Tags == nil {
		msg.Tags = []string{}
	}

	return msg, nil
}

// GetMessageByID fetches a single inbound message.
func (s *DBStore) GetMessageByID(ctx context.Context, messageID string) (domain.Message, error) {
	query := `
    SELECT ` + messageColumns + `
    FROM messages
    WHERE id = $1;
    `

	msg, err := scanMessage(s.pool.QueryRow(ctx, query, messageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Message{}, ErrMessageNotFound
		}
		return domain.Message{}, fmt.Errorf("db scan error: %w", err)
	}
	return msg, nil
}

// GetPendingMessages returns unprocessed inbound messages, oldest first.
// The ingestion surface writes them; the worker drains them.
func (s *DBStore) GetPendingMessages(ctx context.Context, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
    SELECT ` + messageColumns + `
    FROM messages
    WHERE status = 'pending'
    ORDER BY received_at ASC
    LIMIT $1;
    `

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db query error: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("db row scan error: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db rows error: %w", err)
	}

	return messages, nil
}

// MarkMessageProcessed flags a message as evaluated by the worker.
func (s *DBStore) MarkMessageProcessed(ctx context.Context, messageID string) error {
	query := `
    UPDATE messages
    SET status = 'processed'
    WHERE id = $1;
    `

	cmdTag, err := s.pool.Exec(ctx, query, messageID)
	if err != nil {
		return fmt.Errorf("db exec error: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// SetMessagePriority mutates the priority metadata of a message.
func (s *DBStore) SetMessagePriority(ctx context.Context, messageID string, level domain.PriorityLevel) error {
	query := `
    UPDATE messages
    SET priority = $1
    WHERE id = $2;
    `

	cmdTag, err := s.pool.Exec(ctx, query, level, messageID)
	if err != nil {
		return fmt.Errorf("db exec error: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// AddMessageTag attaches a tag once; re-adding an existing tag is a no-op.
// The row is always touched so zero rows affected means the message does
// not exist, matching SetMessagePriority.
func (s *DBStore) AddMessageTag(ctx context.Context, messageID string, tag string) error {
	query := `
    UPDATE messages
    SET tags = CASE WHEN $1 = ANY(tags) THEN tags ELSE array_append(tags, $1) END
    WHERE id = $2;
    `

	cmdTag, err := s.pool.Exec(ctx, query, tag, messageID)
	if err != nil {
		return fmt.Errorf("db exec error: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}
