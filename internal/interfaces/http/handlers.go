package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-intake/internal/application/expenseform"
	"github.com/garyjia/expense-intake/internal/application/service"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/submission"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	services      Services
	maxUploadSize int64
	logger        Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, maxUploadSize int64, logger Logger) *Handlers {
	return &Handlers{
		services:      services,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Sessions  int    `json:"sessions"`
}

// OpenSessionRequest opens a form for a new expense, a saved draft or an
// existing expense
type OpenSessionRequest struct {
	ExpenseType entity.ExpenseType   `json:"expenseType" binding:"required"`
	Currency    string               `json:"currency"`
	StorageKey  string               `json:"storageKey"`
	Draft       *entity.ExpenseDraft `json:"draft"`
}

// SearchPayeesRequest is one keystroke of the payee picker
type SearchPayeesRequest struct {
	Term     string         `json:"term"`
	Profiles []entity.Payee `json:"profiles"`
}

// ListSubmissionsRequest represents query parameters for listing submissions
type ListSubmissionsRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}
	if h.services.Sessions != nil {
		response.Sessions = h.services.Sessions.Count()
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// OpenSession handles POST /api/sessions
func (h *Handlers) OpenSession(c *gin.Context) {
	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid open session request", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}
	if !req.ExpenseType.IsValid() {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   fmt.Sprintf("unknown expense type %q", req.ExpenseType),
		})
		return
	}

	form, err := h.services.Sessions.Open(c.Request.Context(), service.OpenRequest{
		ExpenseType: req.ExpenseType,
		Currency:    req.Currency,
		StorageKey:  req.StorageKey,
		Draft:       req.Draft,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    form.Snapshot(),
	})
}

// GetSession handles GET /api/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	h.respondSnapshot(c, form)
}

// DiscardSession handles DELETE /api/sessions/:id
func (h *Handlers) DiscardSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.services.Sessions.Discard(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	if h.services.Payees != nil {
		h.services.Payees.Forget(id)
	}
	if h.services.Receipts != nil {
		h.services.Receipts.DiscardFiles(c.Request.Context(), id)
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// DispatchAction handles POST /api/sessions/:id/actions
func (h *Handlers) DispatchAction(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}
	action, err := DecodeAction(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	if err := form.Dispatch(c.Request.Context(), action); err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSnapshot(c, form)
}

// Next handles POST /api/sessions/:id/next
func (h *Handlers) Next(c *gin.Context) {
	h.navigate(c, (*expenseform.Form).Next)
}

// Back handles POST /api/sessions/:id/back
func (h *Handlers) Back(c *gin.Context) {
	h.navigate(c, (*expenseform.Form).Back)
}

// Reset handles POST /api/sessions/:id/reset
func (h *Handlers) Reset(c *gin.Context) {
	h.navigate(c, (*expenseform.Form).Reset)
}

// Cancel handles POST /api/sessions/:id/cancel
func (h *Handlers) Cancel(c *gin.Context) {
	h.navigate(c, (*expenseform.Form).Cancel)
}

func (h *Handlers) navigate(c *gin.Context, move func(*expenseform.Form, context.Context) error) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	if err := move(form, c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSnapshot(c, form)
}

// Submit handles POST /api/sessions/:id/submit
func (h *Handlers) Submit(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}

	result, err := form.Submit(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.Info("Expense submitted via API",
		"session_id", form.SessionID(),
		"expense_id", result.ID,
	)
	h.respondSnapshot(c, form)
}

// Validate handles GET /api/sessions/:id/validation
func (h *Handlers) Validate(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}

	errs := form.Validate()
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"valid":  errs == nil,
			"errors": errs,
		},
	})
}

// PreviewPayload handles GET /api/sessions/:id/payload
func (h *Handlers) PreviewPayload(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    submission.Prepare(form.Draft()),
	})
}

// ExportSummary handles GET /api/sessions/:id/export
func (h *Handlers) ExportSummary(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	if h.services.Exporter == nil {
		c.JSON(http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "export is not available",
		})
		return
	}

	var buf bytes.Buffer
	if err := h.services.Exporter.Write(&buf, submission.Prepare(form.Draft())); err != nil {
		h.logger.Error("Failed to export summary", "session_id", form.SessionID(), "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to export summary",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="expense-%s.xlsx"`, form.SessionID()))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// SearchPayees handles POST /api/sessions/:id/payees/search
func (h *Handlers) SearchPayees(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}

	var req SearchPayeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	draft := form.Draft()
	res, err := h.services.Payees.Suggest(c.Request.Context(), service.SuggestRequest{
		SessionID:   form.SessionID(),
		ExpenseType: draft.Type,
		Profiles:    req.Profiles,
		Term:        req.Term,
		Preselected: draft.Payee,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    res,
	})
}

// UploadReceipt handles POST /api/sessions/:id/items/:itemId/receipt
func (h *Handlers) UploadReceipt(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	if h.services.Receipts == nil {
		c.JSON(http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "receipt parsing is disabled",
		})
		return
	}

	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "missing or oversized receipt file",
		})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "failed to read receipt file",
		})
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(content)
	}

	itemID := c.Param("itemId")
	result, err := h.services.Receipts.ParseReceipt(c.Request.Context(), form, itemID, content, mimeType)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"parsing": result,
			"form":    form.Snapshot(),
		},
	})
}

// ListSubmissions handles GET /api/submissions
func (h *Handlers) ListSubmissions(c *gin.Context) {
	var req ListSubmissionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	records, err := h.services.Submissions.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.logger.Error("Failed to list submissions", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve submissions",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    records,
	})
}

// GetSubmission handles GET /api/submissions/:expenseId
func (h *Handlers) GetSubmission(c *gin.Context) {
	expenseID := c.Param("expenseId")

	record, err := h.services.Submissions.Get(c.Request.Context(), expenseID)
	if err != nil {
		h.logger.Error("Failed to get submission", "expense_id", expenseID, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve submission",
		})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "submission not found",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    record,
	})
}

// form looks up the session named by the :id parameter
func (h *Handlers) form(c *gin.Context) (*expenseform.Form, bool) {
	form, err := h.services.Sessions.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return form, true
}

func (h *Handlers) respondSnapshot(c *gin.Context, form *expenseform.Form) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    form.Snapshot(),
	})
}
