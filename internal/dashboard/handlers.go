// Package dashboard provides the fraud console overview endpoint. It serves
// a cached snapshot of aggregate counts; when the store is unreachable it
// degrades to an empty snapshot instead of failing the page.
package dashboard

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rewards360/fraudwatch/internal/fraud"
	"github.com/rewards360/fraudwatch/internal/logging"
)

const snapshotTTL = 15 * time.Second

// Snapshot is the aggregate view the console header renders.
type Snapshot struct {
	Transactions struct {
		Total   int `json:"total"`
		Cleared int `json:"cleared"`
		Review  int `json:"review"`
		Blocked int `json:"blocked"`
	} `json:"transactions"`
	Alerts struct {
		Total      int            `json:"total"`
		Open       int            `json:"open"`
		BySeverity map[string]int `json:"bySeverity"`
	} `json:"alerts"`
	Anomalies   int       `json:"anomalies"`
	AuditEvents int       `json:"auditEvents"`
	Degraded    bool      `json:"degraded"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Handler serves the overview snapshot.
type Handler struct {
	svc *fraud.Service

	mu      sync.RWMutex
	cached  *Snapshot
	expires time.Time
}

// NewHandler creates a dashboard handler.
func NewHandler(svc *fraud.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes sets up dashboard routes under the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/overview", h.Overview)
}

// Invalidate drops the cached snapshot. Wired to mutation events so the
// overview refreshes immediately after a write.
func (h *Handler) Invalidate() {
	h.mu.Lock()
	h.cached = nil
	h.mu.Unlock()
}

// Overview handles GET /admin/fraud/overview
func (h *Handler) Overview(c *gin.Context) {
	h.mu.RLock()
	if h.cached != nil && time.Now().Before(h.expires) {
		snap := h.cached
		h.mu.RUnlock()
		c.JSON(http.StatusOK, snap)
		return
	}
	h.mu.RUnlock()

	snap := h.build(c)
	if !snap.Degraded {
		h.mu.Lock()
		h.cached = snap
		h.expires = time.Now().Add(snapshotTTL)
		h.mu.Unlock()
	}
	c.JSON(http.StatusOK, snap)
}

func emptySnapshot(degraded bool) *Snapshot {
	snap := &Snapshot{Degraded: degraded, GeneratedAt: time.Now()}
	snap.Alerts.BySeverity = make(map[string]int)
	return snap
}

// build assembles a fresh snapshot. Any store failure yields an empty
// degraded snapshot; degraded snapshots are never cached.
func (h *Handler) build(c *gin.Context) *Snapshot {
	ctx := c.Request.Context()
	snap := emptySnapshot(false)

	txns, err := h.svc.ListTransactions(ctx)
	if err != nil {
		logging.L(ctx).Warn("overview degraded", "error", err)
		return emptySnapshot(true)
	}
	snap.Transactions.Total = len(txns)
	for _, tx := range txns {
		switch tx.Status {
		case fraud.StatusCleared:
			snap.Transactions.Cleared++
		case fraud.StatusReview:
			snap.Transactions.Review++
		case fraud.StatusBlocked:
			snap.Transactions.Blocked++
		}
	}

	alerts, err := h.svc.ListAlerts(ctx)
	if err != nil {
		logging.L(ctx).Warn("overview degraded", "error", err)
		return emptySnapshot(true)
	}
	snap.Alerts.Total = len(alerts)
	for _, alert := range alerts {
		if alert.Status == fraud.AlertOpen {
			snap.Alerts.Open++
		}
		if alert.Severity.Valid() {
			snap.Alerts.BySeverity[alert.Severity.Attrs().Label]++
		}
	}

	anomalies, err := h.svc.ListAnomalies(ctx)
	if err != nil {
		logging.L(ctx).Warn("overview degraded", "error", err)
		return emptySnapshot(true)
	}
	snap.Anomalies = len(anomalies)

	entries, err := h.svc.ListAudit(ctx)
	if err != nil {
		logging.L(ctx).Warn("overview degraded", "error", err)
		return emptySnapshot(true)
	}
	snap.AuditEvents = len(entries)

	return snap
}
