package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/currency"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config holds the extractor settings
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint, mostly for tests
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// ReceiptExtractor implements port.ReceiptExtractor with a vision model
type ReceiptExtractor struct {
	client      *openai.Client
	prompts     *PromptConfig
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	logger      *zap.Logger

	// rasterize is replaced in tests where mupdf is unavailable
	rasterize func([]byte) ([][]byte, error)
}

// NewReceiptExtractor creates a new extractor. A nil prompts uses DefaultPrompts.
func NewReceiptExtractor(cfg Config, prompts *PromptConfig, logger *zap.Logger) *ReceiptExtractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if prompts == nil {
		prompts = DefaultPrompts()
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = prompts.ReceiptExtraction.Temperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = prompts.ReceiptExtraction.MaxTokens
	}

	return &ReceiptExtractor{
		client:      openai.NewClientWithConfig(clientCfg),
		prompts:     prompts,
		model:       cfg.Model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     cfg.Timeout,
		logger:      logger,
		rasterize:   rasterizePDF,
	}
}

// receiptFields is the JSON object the model is asked to return
type receiptFields struct {
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    *string          `json:"currency"`
	Date        *string          `json:"date"`
	Confidence  float64          `json:"confidence"`
}

// ExtractReceipt reads description, amount and date from a receipt image or PDF
func (e *ReceiptExtractor) ExtractReceipt(ctx context.Context, content []byte, mimeType string) (*entity.ParsingResult, error) {
	images, kind, err := e.prepareImages(content, mimeType)
	if err != nil {
		return nil, err
	}

	prompt, err := renderTemplate(e.prompts.ReceiptExtraction.UserTemplate, map[string]interface{}{
		"Kind":  kind,
		"Pages": len(images),
	})
	if err != nil {
		return nil, err
	}

	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: prompt}}
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    fmt.Sprintf("data:%s;base64,%s", img.mimeType, base64.StdEncoding.EncodeToString(img.data)),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: e.prompts.ReceiptExtraction.System},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		e.logger.Error("OpenAI API call failed", zap.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	reply := resp.Choices[0].Message.Content
	fields, err := parseFields(reply)
	if err != nil {
		e.logger.Error("Failed to parse OpenAI response", zap.Error(err), zap.String("content", reply))
		return nil, err
	}

	result := fields.toParsingResult()
	e.logger.Info("Receipt extracted",
		zap.String("mime_type", mimeType),
		zap.Int("pages", len(images)),
		zap.Float64("confidence", result.Confidence))
	return result, nil
}

type encodedImage struct {
	mimeType string
	data     []byte
}

func (e *ReceiptExtractor) prepareImages(content []byte, mimeType string) ([]encodedImage, string, error) {
	mimeType = strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))

	switch mimeType {
	case "image/jpeg", "image/jpg", "image/png", "image/webp", "image/gif":
		return []encodedImage{{mimeType: mimeType, data: content}}, "image", nil
	case "application/pdf":
		pages, err := e.rasterize(content)
		if err != nil {
			return nil, "", err
		}
		images := make([]encodedImage, 0, len(pages))
		for _, page := range pages {
			images = append(images, encodedImage{mimeType: mimeTypeJPEG, data: page})
		}
		return images, "document", nil
	default:
		return nil, "", fmt.Errorf("unsupported receipt type %q", mimeType)
	}
}

// parseFields decodes the model output, tolerating a fenced code block
func parseFields(content string) (*receiptFields, error) {
	var fields receiptFields
	if err := json.Unmarshal([]byte(content), &fields); err == nil {
		return &fields, nil
	}

	jsonStr := extractJSON(content)
	if jsonStr == "" {
		return nil, fmt.Errorf("response carries no JSON object")
	}
	if err := json.Unmarshal([]byte(jsonStr), &fields); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &fields, nil
}

func (f *receiptFields) toParsingResult() *entity.ParsingResult {
	result := &entity.ParsingResult{Confidence: f.Confidence}

	if f.Description != nil {
		result.Description = strings.TrimSpace(*f.Description)
	}

	if f.Amount != nil && f.Amount.IsPositive() {
		code := ""
		if f.Currency != nil {
			code = currency.Normalize(*f.Currency)
		}
		units := 2
		if code != "" {
			units = currency.MinorUnits(code)
		}
		result.Amount = &entity.Amount{
			ValueInCents: f.Amount.Shift(int32(units)).Round(0).IntPart(),
			Currency:     code,
		}
	}

	if f.Date != nil {
		if t, err := time.Parse("2006-01-02", strings.TrimSpace(*f.Date)); err == nil {
			result.IncurredAt = &t
		}
	}

	return result
}

// extractJSON returns the outermost JSON object embedded in content
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

// Verify interface compliance
var _ port.ReceiptExtractor = (*ReceiptExtractor)(nil)
