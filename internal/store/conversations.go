package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/parrot/internal/chatlog"
)

// Conversation is a parsed chat export as persisted.
type Conversation struct {
	ID          uuid.UUID
	SourcePath  string
	MainSubject string
	Subjects    []string
	Entries     []chatlog.Entry
	RawMessages int
	Dropped     int
	CreatedAt   time.Time
}

// ConversationSummary is a conversation row without its entries.
type ConversationSummary struct {
	ID          uuid.UUID `json:"id"`
	SourcePath  string    `json:"source_path"`
	MainSubject string    `json:"main_subject"`
	Subjects    []string  `json:"subjects"`
	Entries     int       `json:"entries"`
	CreatedAt   time.Time `json:"created_at"`
}

// WriteConversation stores a conversation and its entries in one
// transaction. A nil ID is replaced with a fresh one.
func (s *Store) WriteConversation(ctx context.Context, c Conversation) (uuid.UUID, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Subjects == nil {
		c.Subjects = []string{}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO conversations (id, source_path, main_subject, subjects, raw_messages, dropped, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		c.ID, c.SourcePath, c.MainSubject, c.Subjects, c.RawMessages, c.Dropped,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert conversation: %w", err)
	}

	rows := make([][]any, len(c.Entries))
	for i, e := range c.Entries {
		rows[i] = []any{uuid.New(), c.ID, i, e.Subject, e.Message}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"chat_entries"},
		[]string{"id", "conversation_id", "position", "subject", "message"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("copy entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit: %w", err)
	}

	return c.ID, nil
}

// GetConversation loads a conversation with its entries in order.
func (s *Store) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	c := Conversation{ID: id}
	err := s.pool.QueryRow(ctx, `
		SELECT source_path, main_subject, subjects, raw_messages, dropped, created_at
		FROM conversations WHERE id = $1`, id,
	).Scan(&c.SourcePath, &c.MainSubject, &c.Subjects, &c.RawMessages, &c.Dropped, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query conversation: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT subject, message FROM chat_entries
		WHERE conversation_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	c.Entries, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (chatlog.Entry, error) {
		var e chatlog.Entry
		err := row.Scan(&e.Subject, &e.Message)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan entries: %w", err)
	}

	return &c, nil
}

// ListConversations returns the most recent conversations first.
func (s *Store) ListConversations(ctx context.Context, limit int) ([]ConversationSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.source_path, c.main_subject, c.subjects, c.created_at,
		       (SELECT count(*) FROM chat_entries e WHERE e.conversation_id = c.id)
		FROM conversations c
		ORDER BY c.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ConversationSummary, error) {
		var c ConversationSummary
		err := row.Scan(&c.ID, &c.SourcePath, &c.MainSubject, &c.Subjects, &c.CreatedAt, &c.Entries)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan conversations: %w", err)
	}
	return out, nil
}

// DeleteConversation removes a conversation and its entries.
func (s *Store) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
