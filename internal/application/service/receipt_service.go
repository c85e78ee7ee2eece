package service

import (
	"context"
	"fmt"

	"github.com/garyjia/expense-intake/internal/application/expenseform"
	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
)

// ReceiptService stores uploaded receipts, runs OCR on them and hands the
// result to the form
type ReceiptService interface {
	ParseReceipt(ctx context.Context, form *expenseform.Form, itemID string, content []byte, mimeType string) (*entity.ParsingResult, error)
	DiscardFiles(ctx context.Context, sessionID string)
}

type receiptServiceImpl struct {
	extractor port.ReceiptExtractor
	store     port.ReceiptStore
	logger    Logger
}

// NewReceiptService creates a new ReceiptService. A nil store leaves the
// item URL to the client.
func NewReceiptService(extractor port.ReceiptExtractor, store port.ReceiptStore, logger Logger) ReceiptService {
	return &receiptServiceImpl{
		extractor: extractor,
		store:     store,
		logger:    logger,
	}
}

// ParseReceipt stores the file as the item receipt, extracts its fields and
// applies them to the item. Empty item fields are prefilled; the comparison
// view shows the rest.
func (s *receiptServiceImpl) ParseReceipt(ctx context.Context, form *expenseform.Form, itemID string, content []byte, mimeType string) (*entity.ParsingResult, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("receipt for item %s is empty", itemID)
	}

	if s.store != nil {
		if err := s.storeReceipt(ctx, form, itemID, content, mimeType); err != nil {
			return nil, err
		}
	}

	result, err := s.extractor.ExtractReceipt(ctx, content, mimeType)
	if err != nil {
		s.logger.Error("Receipt extraction failed",
			"session_id", form.SessionID(),
			"item_id", itemID,
			"mime_type", mimeType,
			"error", err,
		)
		return nil, fmt.Errorf("extract receipt: %w", err)
	}

	if err := form.Dispatch(ctx, expenseform.ItemParsed{ItemID: itemID, Result: *result}); err != nil {
		return nil, fmt.Errorf("apply parsing result: %w", err)
	}

	s.logger.Info("Receipt parsed",
		"session_id", form.SessionID(),
		"item_id", itemID,
		"confidence", result.Confidence,
	)
	return result, nil
}

func (s *receiptServiceImpl) storeReceipt(ctx context.Context, form *expenseform.Form, itemID string, content []byte, mimeType string) error {
	uploading, done := true, false
	if err := form.Dispatch(ctx, expenseform.UpdateItem{ItemID: itemID, UploadInProgress: &uploading}); err != nil {
		return fmt.Errorf("mark upload: %w", err)
	}

	url, err := s.store.Save(ctx, form.SessionID(), itemID, content, mimeType)
	if err != nil {
		s.logger.Error("Failed to store receipt",
			"session_id", form.SessionID(),
			"item_id", itemID,
			"error", err,
		)
		if resetErr := form.Dispatch(ctx, expenseform.UpdateItem{ItemID: itemID, UploadInProgress: &done}); resetErr != nil {
			s.logger.Error("Failed to clear upload flag", "item_id", itemID, "error", resetErr)
		}
		return fmt.Errorf("store receipt: %w", err)
	}

	if err := form.Dispatch(ctx, expenseform.UpdateItem{ItemID: itemID, URL: &url, UploadInProgress: &done}); err != nil {
		return fmt.Errorf("attach receipt: %w", err)
	}
	return nil
}

// DiscardFiles removes the stored receipts of a discarded session
func (s *receiptServiceImpl) DiscardFiles(ctx context.Context, sessionID string) {
	if s.store == nil {
		return
	}
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		s.logger.Error("Failed to delete session receipts", "session_id", sessionID, "error", err)
	}
}
