package fraud

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rewards360/fraudwatch/internal/export"
	"github.com/rewards360/fraudwatch/internal/logging"
	"github.com/rewards360/fraudwatch/internal/metrics"
	"github.com/rewards360/fraudwatch/internal/validation"
)

// Handler provides HTTP endpoints for the fraud console.
type Handler struct {
	svc      *Service
	analyzer *Analyzer
}

// NewHandler creates a new fraud handler.
func NewHandler(svc *Service, analyzer *Analyzer) *Handler {
	return &Handler{svc: svc, analyzer: analyzer}
}

// RegisterRoutes sets up the fraud console routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/transactions", h.ListTransactions)
	r.POST("/transactions", h.IngestTransaction)
	r.GET("/transactions/:id", h.GetTransaction)
	r.POST("/transactions/:id/review", h.ReviewTransaction)
	r.POST("/transactions/:id/block", h.BlockTransaction)
	r.GET("/alerts", h.ListAlerts)
	r.POST("/alerts/:id/status", h.SetAlertStatus)
	r.GET("/anomalies", h.ListAnomalies)
	r.GET("/audit", h.ListAudit)
	r.POST("/analyze-all", h.AnalyzeAll)
	r.POST("/analyze/:id", h.AnalyzeOne)
	r.POST("/export", h.Export)
}

func predicatesFrom(c *gin.Context) Predicates {
	return Predicates{
		Search:    validation.Sanitize(c.Query("search")),
		RiskLevel: c.Query("risk"),
		Status:    c.Query("status"),
	}
}

func actorFrom(c *gin.Context) string {
	actor := validation.Sanitize(c.GetHeader("X-Actor"))
	if actor == "" {
		actor = "admin"
	}
	return actor
}

// writeError maps domain sentinel errors onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTransactionNotFound), errors.Is(err, ErrAlertNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": err.Error()})
	case errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_transition", "message": err.Error()})
	case errors.Is(err, ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent_modification", "message": err.Error()})
	case errors.Is(err, ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "timeout", "message": err.Error()})
	case errors.Is(err, ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "unavailable", "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
	}
}

// ListTransactions handles GET /admin/fraud/transactions
func (h *Handler) ListTransactions(c *gin.Context) {
	txns, err := h.svc.ListTransactions(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	filtered := FilterTransactions(txns, predicatesFrom(c))
	c.JSON(http.StatusOK, gin.H{"transactions": filtered, "count": len(filtered)})
}

// GetTransaction handles GET /admin/fraud/transactions/:id
func (h *Handler) GetTransaction(c *gin.Context) {
	tx, err := h.svc.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// IngestTransaction handles POST /admin/fraud/transactions
func (h *Handler) IngestTransaction(c *gin.Context) {
	var req IngestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	if !validation.IsValidAmount(req.Amount) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_amount", "message": "Amount must be a positive decimal"})
		return
	}

	tx, err := h.svc.Ingest(c.Request.Context(), &req, actorFrom(c))
	if err != nil {
		if errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable) {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}

// ReviewTransaction handles POST /admin/fraud/transactions/:id/review
func (h *Handler) ReviewTransaction(c *gin.Context) {
	tx, err := h.svc.Review(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// BlockTransaction handles POST /admin/fraud/transactions/:id/block
func (h *Handler) BlockTransaction(c *gin.Context) {
	tx, err := h.svc.Block(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// ListAlerts handles GET /admin/fraud/alerts
func (h *Handler) ListAlerts(c *gin.Context) {
	alerts, err := h.svc.ListAlerts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	filtered := FilterAlerts(alerts, predicatesFrom(c))
	c.JSON(http.StatusOK, gin.H{"alerts": filtered, "count": len(filtered)})
}

// AlertStatusRequest updates an alert's lifecycle status.
type AlertStatusRequest struct {
	Status AlertStatus `json:"status" binding:"required"`
}

// SetAlertStatus handles POST /admin/fraud/alerts/:id/status
func (h *Handler) SetAlertStatus(c *gin.Context) {
	var req AlertStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status", "message": fmt.Sprintf("unknown alert status %q", req.Status)})
		return
	}

	alert, err := h.svc.SetAlertStatus(c.Request.Context(), c.Param("id"), req.Status, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alert": alert})
}

// ListAnomalies handles GET /admin/fraud/anomalies
func (h *Handler) ListAnomalies(c *gin.Context) {
	anomalies, err := h.svc.ListAnomalies(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	filtered := FilterAnomalies(anomalies, predicatesFrom(c))
	c.JSON(http.StatusOK, gin.H{"anomalies": filtered, "count": len(filtered)})
}

// ListAudit handles GET /admin/fraud/audit
func (h *Handler) ListAudit(c *gin.Context) {
	entries, err := h.svc.ListAudit(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	filtered := FilterAudit(entries, predicatesFrom(c))
	c.JSON(http.StatusOK, gin.H{"entries": filtered, "count": len(filtered)})
}

// AnalyzeAll handles POST /admin/fraud/analyze-all
func (h *Handler) AnalyzeAll(c *gin.Context) {
	ctx := logging.WithActor(c.Request.Context(), actorFrom(c))
	summary, err := h.analyzer.AnalyzeAll(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// AnalyzeOne handles POST /admin/fraud/analyze/:id
func (h *Handler) AnalyzeOne(c *gin.Context) {
	ctx := logging.WithActor(c.Request.Context(), actorFrom(c))
	tx, result, err := h.analyzer.AnalyzeOne(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx, "result": result})
}

// ExportRequest selects a dataset and output format.
type ExportRequest struct {
	Dataset string `json:"dataset" binding:"required"` // transactions | alerts | anomalies | audit
	Format  string `json:"format" binding:"required"`  // csv | json
	Search  string `json:"search"`
	Risk    string `json:"risk"`
	Status  string `json:"status"`
}

// Export handles POST /admin/fraud/export
func (h *Handler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	format, err := export.ParseFormat(req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_format", "message": err.Error()})
		return
	}

	p := Predicates{Search: validation.Sanitize(req.Search), RiskLevel: req.Risk, Status: req.Status}
	ds, err := h.dataset(c, req.Dataset, p)
	if err != nil {
		writeError(c, err)
		return
	}
	if ds == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_dataset", "message": fmt.Sprintf("unknown dataset %q", req.Dataset)})
		return
	}

	payload, err := export.Encode(ds, format)
	if err != nil {
		if errors.Is(err, export.ErrEmptyExport) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "empty_export", "message": err.Error()})
			return
		}
		writeError(c, err)
		return
	}

	metrics.ExportsTotal.WithLabelValues(string(format)).Inc()
	filename := fmt.Sprintf("fraud-%s-%s.%s", req.Dataset, time.Now().Format("20060102-150405"), format.Extension())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, format.ContentType(), payload)
}

func (h *Handler) dataset(c *gin.Context, name string, p Predicates) (*export.Dataset, error) {
	ctx := c.Request.Context()
	switch name {
	case "transactions":
		txns, err := h.svc.ListTransactions(ctx)
		if err != nil {
			return nil, err
		}
		return TransactionDataset(FilterTransactions(txns, p)), nil
	case "alerts":
		alerts, err := h.svc.ListAlerts(ctx)
		if err != nil {
			return nil, err
		}
		return AlertDataset(FilterAlerts(alerts, p)), nil
	case "anomalies":
		anomalies, err := h.svc.ListAnomalies(ctx)
		if err != nil {
			return nil, err
		}
		return AnomalyDataset(FilterAnomalies(anomalies, p)), nil
	case "audit":
		entries, err := h.svc.ListAudit(ctx)
		if err != nil {
			return nil, err
		}
		return AuditDataset(FilterAudit(entries, p)), nil
	default:
		return nil, nil
	}
}
