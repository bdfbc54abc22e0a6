package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fside/backend/internal/model"
)

// ChatRepository provides the durable chat log. The hub appends sequenced
// messages outside its critical section, so rows may land out of order;
// every read orders by seq to restore the hub's total order.
type ChatRepository struct {
	db *sql.DB
}

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Append inserts one chat message. It satisfies the hub's ChatAppender
// contract.
func (r *ChatRepository) Append(msg *model.ChatMessage) error {
	return r.AppendContext(context.Background(), msg)
}

// AppendContext inserts one chat message with an explicit context.
func (r *ChatRepository) AppendContext(ctx context.Context, msg *model.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, project_id, participant_id, display_name, body, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		msg.ID,
		msg.ProjectID,
		msg.ParticipantID,
		msg.DisplayName,
		msg.Text,
		msg.Seq,
		msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	return nil
}

// Recent retrieves the most recent messages of a project in seq order,
// bounded by limit.
func (r *ChatRepository) Recent(ctx context.Context, projectID string, limit int) ([]*model.ChatMessage, error) {
	if limit <= 0 {
		limit = 200
	}

	query := `
		SELECT id, project_id, participant_id, display_name, body, seq, created_at
		FROM (
			SELECT id, project_id, participant_id, display_name, body, seq, created_at
			FROM chat_messages
			WHERE project_id = ?
			ORDER BY seq DESC
			LIMIT ?
		)
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, query, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.ChatMessage
	for rows.Next() {
		msg := &model.ChatMessage{}
		err := rows.Scan(
			&msg.ID,
			&msg.ProjectID,
			&msg.ParticipantID,
			&msg.DisplayName,
			&msg.Text,
			&msg.Seq,
			&msg.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat messages: %w", err)
	}

	return messages, nil
}

// CountByProject returns the number of persisted messages for a project.
func (r *ChatRepository) CountByProject(ctx context.Context, projectID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE project_id = ?`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chat messages: %w", err)
	}

	return count, nil
}
