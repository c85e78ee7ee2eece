package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"go.uber.org/zap"
)

// SubmissionRepository implements port.SubmissionRecorder
type SubmissionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *sql.DB, logger *zap.Logger) *SubmissionRepository {
	return &SubmissionRepository{
		db:     db,
		logger: logger,
	}
}

// Record stores a handed-off payload
func (r *SubmissionRepository) Record(ctx context.Context, record *port.SubmissionRecord) error {
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	query := `
		INSERT INTO submissions (
			session_id, expense_id, legacy_id, expense_type, currency,
			total_amount, payload_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		record.SessionID,
		record.ExpenseID,
		record.LegacyID,
		string(record.Type),
		record.Currency,
		record.TotalAmount,
		string(payload),
		record.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to record submission", zap.String("expense_id", record.ExpenseID), zap.Error(err))
		return fmt.Errorf("failed to record submission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// GetByExpenseID returns the latest record of an expense, or nil
func (r *SubmissionRepository) GetByExpenseID(ctx context.Context, expenseID string) (*port.SubmissionRecord, error) {
	query := `
		SELECT id, session_id, expense_id, legacy_id, expense_type, currency,
			total_amount, payload_json, created_at
		FROM submissions
		WHERE expense_id = ?
		ORDER BY id DESC
		LIMIT 1
	`

	record, err := scanSubmission(getExecutor(ctx, r.db).QueryRowContext(ctx, query, expenseID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get submission", zap.String("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return record, nil
}

// List returns records, newest first
func (r *SubmissionRepository) List(ctx context.Context, limit, offset int) ([]*port.SubmissionRecord, error) {
	query := `
		SELECT id, session_id, expense_id, legacy_id, expense_type, currency,
			total_amount, payload_json, created_at
		FROM submissions
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list submissions", zap.Error(err))
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var records []*port.SubmissionRecord
	for rows.Next() {
		record, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*port.SubmissionRecord, error) {
	var (
		record      port.SubmissionRecord
		expenseType string
		payload     string
	)
	err := row.Scan(
		&record.ID,
		&record.SessionID,
		&record.ExpenseID,
		&record.LegacyID,
		&expenseType,
		&record.Currency,
		&record.TotalAmount,
		&payload,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Type = entity.ExpenseType(expenseType)
	if err := json.Unmarshal([]byte(payload), &record.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return &record, nil
}

// Verify interface compliance
var _ port.SubmissionRecorder = (*SubmissionRepository)(nil)
