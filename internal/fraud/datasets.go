package fraud

import (
	"strconv"
	"strings"
	"time"

	"github.com/rewards360/fraudwatch/internal/export"
)

// Dataset builders turn filtered entity slices into export datasets. Row
// order follows the input; the JSON payload carries the structs themselves.

func TransactionDataset(txns []*Transaction) *export.Dataset {
	rows := make([][]string, 0, len(txns))
	for _, tx := range txns {
		rows = append(rows, []string{
			tx.ID, tx.AccountID, tx.MerchantName, tx.MerchantCategory,
			tx.Location, tx.Country, tx.Amount, tx.Currency,
			string(tx.Status), string(tx.RiskLevel),
			strings.Join(tx.RiskReasons, "; "),
			tx.CreatedAt.Format(time.RFC3339),
		})
	}
	return &export.Dataset{
		Name: "transactions",
		Headers: []string{"ID", "Account", "Merchant", "Category", "Location",
			"Country", "Amount", "Currency", "Status", "Risk Level", "Risk Reasons", "Created At"},
		Rows:    rows,
		Records: txns,
	}
}

func AlertDataset(alerts []*Alert) *export.Dataset {
	rows := make([][]string, 0, len(alerts))
	for _, alert := range alerts {
		rows = append(rows, []string{
			alert.ID, string(alert.Severity), string(alert.Status),
			alert.Title, alert.Description, alert.TransactionID,
			alert.CreatedAt.Format(time.RFC3339),
		})
	}
	return &export.Dataset{
		Name:    "alerts",
		Headers: []string{"ID", "Severity", "Status", "Title", "Description", "Transaction", "Created At"},
		Rows:    rows,
		Records: alerts,
	}
}

func AnomalyDataset(anomalies []*Anomaly) *export.Dataset {
	rows := make([][]string, 0, len(anomalies))
	for _, anomaly := range anomalies {
		rows = append(rows, []string{
			anomaly.ID, anomaly.TransactionID, anomaly.AnomalyType,
			string(anomaly.Severity),
			strconv.FormatFloat(anomaly.Score, 'f', 2, 64),
			anomaly.FlaggedReason,
			anomaly.DetectedAt.Format(time.RFC3339),
		})
	}
	return &export.Dataset{
		Name:    "anomalies",
		Headers: []string{"ID", "Transaction", "Type", "Severity", "Score", "Reason", "Detected At"},
		Rows:    rows,
		Records: anomalies,
	}
}

func AuditDataset(entries []*AuditEntry) *export.Dataset {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.ID, entry.Actor, entry.Action, entry.EntityType,
			entry.EntityID, entry.Details,
			entry.CreatedAt.Format(time.RFC3339),
		})
	}
	return &export.Dataset{
		Name:    "audit",
		Headers: []string{"ID", "Actor", "Action", "Entity Type", "Entity", "Details", "Created At"},
		Rows:    rows,
		Records: entries,
	}
}
