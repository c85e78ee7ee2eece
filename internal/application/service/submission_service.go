package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/event"
	"github.com/garyjia/expense-intake/internal/submission"
)

// SubmissionHistory records and lists payloads accepted by the platform
type SubmissionHistory interface {
	// HandleSubmitted records an expense.submitted event
	HandleSubmitted(ctx context.Context, evt *event.Event) error
	Get(ctx context.Context, expenseID string) (*port.SubmissionRecord, error)
	List(ctx context.Context, limit, offset int) ([]*port.SubmissionRecord, error)
}

type submissionHistoryImpl struct {
	recorder  port.SubmissionRecorder
	txManager port.TransactionManager
	logger    Logger
	now       func() time.Time
}

// NewSubmissionHistory creates a new SubmissionHistory
func NewSubmissionHistory(recorder port.SubmissionRecorder, txManager port.TransactionManager, logger Logger) SubmissionHistory {
	return &submissionHistoryImpl{
		recorder:  recorder,
		txManager: txManager,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleSubmitted stores the handed-off payload with the ids the platform returned
func (s *submissionHistoryImpl) HandleSubmitted(ctx context.Context, evt *event.Event) error {
	if evt.Type != event.TypeExpenseSubmitted {
		return nil
	}

	raw, ok := evt.GetPayload(event.KeyPayload)
	if !ok {
		return fmt.Errorf("event %s carries no payload", evt.ID)
	}
	payload, ok := raw.(submission.Payload)
	if !ok {
		return fmt.Errorf("event %s payload has type %T", evt.ID, raw)
	}

	record := &port.SubmissionRecord{
		SessionID:   evt.SessionID,
		ExpenseID:   evt.GetPayloadString(event.KeyExpenseID),
		LegacyID:    evt.GetPayloadInt(event.KeyLegacyID),
		Type:        payload.Type,
		Currency:    payload.Currency,
		TotalAmount: payload.TotalAmount,
		Payload:     payload,
		CreatedAt:   s.now(),
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.recorder.Record(txCtx, record); err != nil {
			return fmt.Errorf("record submission: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to record submission", "session_id", evt.SessionID, "error", err)
		return err
	}

	s.logger.Info("Submission recorded",
		"id", record.ID,
		"session_id", record.SessionID,
		"expense_id", record.ExpenseID,
	)
	return nil
}

// Get returns the latest record of an expense, or nil
func (s *submissionHistoryImpl) Get(ctx context.Context, expenseID string) (*port.SubmissionRecord, error) {
	record, err := s.recorder.GetByExpenseID(ctx, expenseID)
	if err != nil {
		s.logger.Error("Failed to get submission", "expense_id", expenseID, "error", err)
		return nil, err
	}
	return record, nil
}

// List returns records, newest first
func (s *submissionHistoryImpl) List(ctx context.Context, limit, offset int) ([]*port.SubmissionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.recorder.List(ctx, limit, offset)
}
