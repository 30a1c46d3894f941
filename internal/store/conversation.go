package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Message is a single chat message in a conversation transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is a persisted chat transcript attached to a baby.
type Conversation struct {
	ID        int64     `json:"id"`
	BabyID    int64     `json:"baby_id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationSummary is the listing shape: no messages.
type ConversationSummary struct {
	ID        int64     `json:"id"`
	BabyID    int64     `json:"baby_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveConversation creates a conversation and returns the full record.
func (s *Store) SaveConversation(ctx context.Context, babyID int64, title string, messages []Message) (*Conversation, error) {
	if messages == nil {
		messages = []Message{}
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("marshaling messages: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_conversations (baby_id, title, messages_json) VALUES (?, ?, ?)`,
		babyID, title, string(messagesJSON))
	if err != nil {
		return nil, fmt.Errorf("inserting conversation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading insert id: %w", err)
	}
	return s.GetConversation(ctx, id)
}

// UpdateConversation updates title and/or messages. Nil/empty fields are skipped.
func (s *Store) UpdateConversation(ctx context.Context, id int64, title string, messages []Message) (*Conversation, error) {
	if _, err := s.GetConversation(ctx, id); err != nil {
		return nil, err
	}
	if title != "" {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE chat_conversations SET title = ? WHERE id = ?`, title, id); err != nil {
			return nil, fmt.Errorf("updating conversation title: %w", err)
		}
	}
	if messages != nil {
		messagesJSON, err := json.Marshal(messages)
		if err != nil {
			return nil, fmt.Errorf("marshaling messages: %w", err)
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE chat_conversations SET messages_json = ? WHERE id = ?`, string(messagesJSON), id); err != nil {
			return nil, fmt.Errorf("updating conversation messages: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE chat_conversations SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id); err != nil {
		return nil, fmt.Errorf("touching conversation: %w", err)
	}
	return s.GetConversation(ctx, id)
}

// GetConversation returns a full conversation by id, or ErrNotFound.
func (s *Store) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, baby_id, title, messages_json, created_at, updated_at FROM chat_conversations WHERE id = ?`, id)

	var (
		c            Conversation
		messagesJSON string
		createdAt    string
		updatedAt    string
	)
	err := row.Scan(&c.ID, &c.BabyID, &c.Title, &messagesJSON, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning conversation: %w", err)
	}
	if err := json.Unmarshal([]byte(messagesJSON), &c.Messages); err != nil {
		return nil, fmt.Errorf("parsing conversation messages: %w", err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversations returns conversation summaries for a baby, most recently updated first.
func (s *Store) ListConversations(ctx context.Context, babyID int64, limit int) ([]ConversationSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, baby_id, title, created_at, updated_at
		   FROM chat_conversations
		  WHERE baby_id = ?
		  ORDER BY updated_at DESC
		  LIMIT ?`, babyID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []ConversationSummary
	for rows.Next() {
		var (
			sum       ConversationSummary
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&sum.ID, &sum.BabyID, &sum.Title, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation summary: %w", err)
		}
		if sum.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if sum.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// DeleteConversation deletes a conversation. Returns ErrNotFound if absent.
func (s *Store) DeleteConversation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
