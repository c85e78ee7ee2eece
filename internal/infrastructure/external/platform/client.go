package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/submission"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	dateLayout      = "2006-01-02"
	maxErrorBodyLen = 4096
)

// Config holds the platform API settings
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the expense platform JSON API. It implements
// port.SubmissionService, port.ExchangeRateService and port.AccountDirectory.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a new platform client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid platform base url %q", cfg.BaseURL)
	}

	return &Client{
		baseURL: base.String(),
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}, nil
}

// apiError is the error envelope returned by the platform
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// statusError is a non-2xx response
type statusError struct {
	Status  int
	Code    string
	Message string
}

func (e *statusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("platform returned status %d", e.Status)
	}
	return fmt.Sprintf("platform returned status %d: %s", e.Status, e.Message)
}

// do sends a JSON request and decodes a JSON response into out
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		se := &statusError{Status: resp.StatusCode}
		var envelope apiError
		if json.Unmarshal(raw, &envelope) == nil {
			se.Code = envelope.Error.Code
			se.Message = envelope.Error.Message
		}
		c.logger.Error("Platform request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("code", se.Code))
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// CreateExpense submits a new expense
func (c *Client) CreateExpense(ctx context.Context, payload submission.Payload) (*submission.Result, error) {
	return c.submit(ctx, http.MethodPost, "/expenses", payload)
}

// DraftExpenseAndInviteUser creates a draft expense and invites its payee
func (c *Client) DraftExpenseAndInviteUser(ctx context.Context, payload submission.Payload) (*submission.Result, error) {
	return c.submit(ctx, http.MethodPost, "/expenses/invite", payload)
}

// EditExpense updates an existing expense
func (c *Client) EditExpense(ctx context.Context, payload submission.Payload) (*submission.Result, error) {
	var id string
	switch {
	case payload.ID != nil && *payload.ID != "":
		id = *payload.ID
	case payload.LegacyID != nil:
		id = strconv.FormatInt(*payload.LegacyID, 10)
	default:
		return nil, errors.New("edit requires an expense id")
	}
	return c.submit(ctx, http.MethodPut, "/expenses/"+url.PathEscape(id), payload)
}

func (c *Client) submit(ctx context.Context, method, path string, payload submission.Payload) (*submission.Result, error) {
	var result submission.Result
	err := c.do(ctx, method, path, nil, payload, &result)

	var se *statusError
	switch {
	case errors.As(err, &se) && se.Status < 500 && se.Message != "":
		return nil, &port.SubmissionError{Message: se.Message, Code: se.Code}
	case err != nil:
		return nil, fmt.Errorf("failed to submit expense: %w", err)
	}

	c.logger.Info("Expense submitted",
		zap.String("path", path),
		zap.String("expense_id", result.ID),
		zap.Int64("legacy_id", result.LegacyID))
	return &result, nil
}

type rateResponse struct {
	Value         decimal.Decimal `json:"value"`
	Source        string          `json:"source"`
	FromCurrency  string          `json:"fromCurrency"`
	ToCurrency    string          `json:"toCurrency"`
	Date          string          `json:"date"`
	IsApproximate bool            `json:"isApproximate"`
}

// GetExchangeRate fetches the rate of a currency pair on a day
func (c *Client) GetExchangeRate(ctx context.Context, query port.RateQuery) (*entity.ExchangeRate, error) {
	params := url.Values{}
	params.Set("from", query.FromCurrency)
	params.Set("to", query.ToCurrency)
	params.Set("date", query.Date.Format(dateLayout))

	var resp rateResponse
	err := c.do(ctx, http.MethodGet, "/exchange-rates", params, nil, &resp)

	var se *statusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return nil, fmt.Errorf("%s->%s: %w", query.FromCurrency, query.ToCurrency, port.ErrRateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}

	date := query.Date
	if resp.Date != "" {
		if parsed, err := time.Parse(dateLayout, resp.Date); err == nil {
			date = parsed
		}
	}
	source := entity.RateSource(resp.Source)
	if source == "" {
		source = entity.RateSourceOpenCollective
	}

	return &entity.ExchangeRate{
		Value:         decimal.NewNullDecimal(resp.Value),
		Source:        source,
		FromCurrency:  query.FromCurrency,
		ToCurrency:    query.ToCurrency,
		Date:          date,
		IsApproximate: resp.IsApproximate,
	}, nil
}

// SearchAccounts lists accounts matching term
func (c *Client) SearchAccounts(ctx context.Context, term string, filter port.AccountFilter) ([]entity.Payee, error) {
	params := url.Values{}
	params.Set("term", term)
	if len(filter.Kinds) > 0 {
		kinds := make([]string, 0, len(filter.Kinds))
		for _, k := range filter.Kinds {
			kinds = append(kinds, string(k))
		}
		params.Set("kinds", strings.Join(kinds, ","))
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}

	var resp struct {
		Accounts []entity.Payee `json:"accounts"`
	}
	if err := c.do(ctx, http.MethodGet, "/accounts/search", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to search accounts: %w", err)
	}
	return resp.Accounts, nil
}

// ValidateSlugAvailability reports whether slug can be used by a new organization
func (c *Client) ValidateSlugAvailability(ctx context.Context, slug string) (bool, error) {
	params := url.Values{}
	params.Set("slug", slug)

	var resp struct {
		Available bool `json:"available"`
	}
	if err := c.do(ctx, http.MethodGet, "/accounts/slug-availability", params, nil, &resp); err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return resp.Available, nil
}

// Verify interface compliance
var (
	_ port.SubmissionService   = (*Client)(nil)
	_ port.ExchangeRateService = (*Client)(nil)
	_ port.AccountDirectory    = (*Client)(nil)
)
