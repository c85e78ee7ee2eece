package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"go.uber.org/zap"
)

// DraftRepository implements port.DraftStore
type DraftRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewDraftRepository creates a new draft repository
func NewDraftRepository(db *sql.DB, logger *zap.Logger) *DraftRepository {
	return &DraftRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// SaveDraft inserts or replaces the draft stored under key
func (r *DraftRepository) SaveDraft(ctx context.Context, key string, draft entity.ExpenseDraft) error {
	if key == "" {
		return errors.New("draft storage key is empty")
	}

	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	query := `
		INSERT INTO drafts (storage_key, expense_type, draft_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(storage_key) DO UPDATE SET
			expense_type = excluded.expense_type,
			draft_json = excluded.draft_json,
			updated_at = excluded.updated_at
	`

	now := r.now().UTC()
	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query, key, string(draft.Type), string(data), now, now)
	if err != nil {
		r.logger.Error("Failed to save draft", zap.String("storage_key", key), zap.Error(err))
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// LoadDraft returns the draft stored under key, or nil
func (r *DraftRepository) LoadDraft(ctx context.Context, key string) (*entity.ExpenseDraft, error) {
	query := `SELECT draft_json FROM drafts WHERE storage_key = ?`

	var data string
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to load draft", zap.String("storage_key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	var draft entity.ExpenseDraft
	if err := json.Unmarshal([]byte(data), &draft); err != nil {
		r.logger.Error("Stored draft is corrupt", zap.String("storage_key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &draft, nil
}

// ClearDraft removes the draft stored under key. Clearing a missing key is not an error.
func (r *DraftRepository) ClearDraft(ctx context.Context, key string) error {
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM drafts WHERE storage_key = ?`, key)
	if err != nil {
		r.logger.Error("Failed to clear draft", zap.String("storage_key", key), zap.Error(err))
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.DraftStore = (*DraftRepository)(nil)
