// Package storage keeps uploaded receipt files on the local filesystem.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/expense-intake/internal/application/port"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// LocalReceiptStore implements port.ReceiptStore with one folder per session
type LocalReceiptStore struct {
	baseDir    string
	publicPath string
	logger     *zap.Logger
}

// NewLocalReceiptStore creates a store writing under baseDir. Saved files
// are addressed as publicPath/<session>/<file>.
func NewLocalReceiptStore(baseDir, publicPath string, logger *zap.Logger) port.ReceiptStore {
	return &LocalReceiptStore{
		baseDir:    baseDir,
		publicPath: "/" + strings.Trim(publicPath, "/"),
		logger:     logger,
	}
}

// Save writes the receipt and returns its public URL
func (s *LocalReceiptStore) Save(ctx context.Context, sessionID, itemID string, content []byte, mimeType string) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("cannot store empty receipt")
	}

	folder := SanitizeName(sessionID)
	if folder == "" {
		return "", fmt.Errorf("cannot store receipt: invalid session id %q", sessionID)
	}
	name := SanitizeName(itemID) + "-" + uuid.NewString() + extensionFor(content, mimeType)

	fullPath := filepath.Join(s.baseDir, folder, name)
	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create receipt folder",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write receipt",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write receipt: %w", err)
	}

	s.logger.Debug("Receipt stored",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))

	return path.Join(s.publicPath, folder, name), nil
}

// DeleteSession removes every receipt of a session. Missing folders are ignored.
func (s *LocalReceiptStore) DeleteSession(ctx context.Context, sessionID string) error {
	folder := SanitizeName(sessionID)
	if folder == "" {
		return nil
	}
	folderPath := filepath.Join(s.baseDir, folder)
	if err := s.validatePath(folderPath); err != nil {
		return err
	}

	if err := os.RemoveAll(folderPath); err != nil {
		s.logger.Error("Failed to delete receipt folder",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	return nil
}

// validatePath checks that the path stays within baseDir
func (s *LocalReceiptStore) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}
	return nil
}

// SanitizeName keeps only alphanumerics, hyphens and underscores
func SanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "")
}

// extensionFor prefers the declared MIME type and sniffs the content otherwise
func extensionFor(content []byte, mimeType string) string {
	if m := mimetype.Lookup(mimeType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return mimetype.Detect(content).Extension()
}
