package fraud

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter() (*gin.Engine, *Service) {
	svc := NewService(NewMemoryStore(), NewEngine([]string{"crypto"}, nil))
	analyzer := NewAnalyzer(svc, "fraud-analyzer")
	handler := NewHandler(svc, analyzer)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/admin/fraud"))
	return router, svc
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "alice")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIngestAndListTransactions(t *testing.T) {
	router, _ := setupTestRouter()

	w := doJSON(t, router, http.MethodPost, "/admin/fraud/transactions", gin.H{
		"account_id":    "acct-1",
		"merchant_name": "Corner Grocery",
		"amount":        "42.17",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Transaction Transaction `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, strings.HasPrefix(created.Transaction.ID, "txn_"))
	assert.Equal(t, StatusCleared, created.Transaction.Status)

	w = doJSON(t, router, http.MethodGet, "/admin/fraud/transactions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Transactions []*Transaction `json:"transactions"`
		Count        int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
}

func TestIngestRejectsBadAmount(t *testing.T) {
	router, _ := setupTestRouter()

	w := doJSON(t, router, http.MethodPost, "/admin/fraud/transactions", gin.H{
		"account_id":    "acct-1",
		"merchant_name": "Corner Grocery",
		"amount":        "-5; DROP TABLE",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_amount")
}

func TestListTransactionsAppliesQueryFilters(t *testing.T) {
	router, svc := setupTestRouter()
	ctx := context.Background()

	a := ingestOne(t, svc, "acct-1", "42.17")
	b := ingestOne(t, svc, "acct-2", "99.00")
	_, err := svc.Review(ctx, b.ID, "alice")
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodGet, "/admin/fraud/transactions?status=REVIEW", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Transactions []*Transaction `json:"transactions"`
		Count        int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, b.ID, list.Transactions[0].ID)
	assert.NotEqual(t, a.ID, list.Transactions[0].ID)
}

func TestTransactionStatusEndpoints(t *testing.T) {
	router, svc := setupTestRouter()

	tx := ingestOne(t, svc, "acct-1", "42.17")

	w := doJSON(t, router, http.MethodPost, "/admin/fraud/transactions/"+tx.ID+"/review", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/admin/fraud/transactions/"+tx.ID+"/block", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Blocked is terminal: further transitions conflict.
	w = doJSON(t, router, http.MethodPost, "/admin/fraud/transactions/"+tx.ID+"/review", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_transition")

	w = doJSON(t, router, http.MethodPost, "/admin/fraud/transactions/txn_missing/review", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAlertStatusEndpoint(t *testing.T) {
	router, svc := setupTestRouter()
	ctx := context.Background()

	tx := ingestOne(t, svc, "acct-1", "15000")
	alert, err := svc.CreateAlert(ctx, tx, svc.Engine().Evaluate(tx, nil))
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPost, "/admin/fraud/alerts/"+alert.ID+"/status",
		gin.H{"status": "ACKNOWLEDGED"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/admin/fraud/alerts/"+alert.ID+"/status",
		gin.H{"status": "SNOOZED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/admin/fraud/alerts/"+alert.ID+"/status",
		gin.H{"status": "OPEN"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAnalyzeAllEndpoint(t *testing.T) {
	router, svc := setupTestRouter()

	ingestOne(t, svc, "acct-1", "42.17")
	ingestOne(t, svc, "acct-2", "60000.00")

	w := doJSON(t, router, http.MethodPost, "/admin/fraud/analyze-all", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Summary Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Summary.TotalAnalyzed)
	assert.Equal(t, 1, resp.Summary.Cleared)
	assert.Equal(t, 1, resp.Summary.Blocked)
}

func TestAuditEndpointRecordsActorFromHeader(t *testing.T) {
	router, svc := setupTestRouter()

	tx := ingestOne(t, svc, "acct-1", "42.17")
	w := doJSON(t, router, http.MethodPost, "/admin/fraud/transactions/"+tx.ID+"/review", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/admin/fraud/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Entries []*AuditEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "alice", resp.Entries[1].Actor)
	assert.Equal(t, ActionReview, resp.Entries[1].Action)
}

func TestExportCSV(t *testing.T) {
	router, svc := setupTestRouter()

	ingestOne(t, svc, "acct-1", "42.17")

	w := doJSON(t, router, http.MethodPost, "/admin/fraud/export", gin.H{
		"dataset": "transactions",
		"format":  "csv",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimRight(w.Body.String(), "\n"), "\n")
	require.Len(t, lines, 2) // header + one row
	assert.Contains(t, lines[0], `"Merchant"`)
	assert.Contains(t, lines[1], `"Test Merchant"`)
}

func TestExportEmptyDatasetRejected(t *testing.T) {
	router, _ := setupTestRouter()

	w := doJSON(t, router, http.MethodPost, "/admin/fraud/export", gin.H{
		"dataset": "alerts",
		"format":  "csv",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "empty_export")
}

func TestExportJSONRoundTrips(t *testing.T) {
	router, svc := setupTestRouter()

	ingestOne(t, svc, "acct-1", "42.17")
	ingestOne(t, svc, "acct-2", "99.00")

	w := doJSON(t, router, http.MethodPost, "/admin/fraud/export", gin.H{
		"dataset": "transactions",
		"format":  "json",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var decoded []*Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "acct-1", decoded[0].AccountID)
	assert.Equal(t, "acct-2", decoded[1].AccountID)
}

func TestExportUnknownDataset(t *testing.T) {
	router, _ := setupTestRouter()

	w := doJSON(t, router, http.MethodPost, "/admin/fraud/export", gin.H{
		"dataset": "everything",
		"format":  "csv",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_dataset")
}
