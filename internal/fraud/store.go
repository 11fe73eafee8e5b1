package fraud

import (
	"context"
	"time"
)

// Store persists the fraud core's four collections. Implementations must
// preserve insertion order on every List method and must never return
// pointers into internal state.
//
// TransitionTransaction and TransitionAlert apply a status change together
// with its audit entry atomically: either both are persisted or neither is.
// Both fail with ErrConcurrentModification when expectVersion no longer
// matches the stored row.
type Store interface {
	// Transactions
	InsertTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	ListTransactions(ctx context.Context) ([]*Transaction, error)
	RecentByAccount(ctx context.Context, accountID string, since time.Time) ([]*Transaction, error)
	TransitionTransaction(ctx context.Context, id string, to TransactionStatus, expectVersion int64, entry *AuditEntry) (*Transaction, error)
	UpdateTransactionRisk(ctx context.Context, id string, result Result) error

	// Alerts
	InsertAlert(ctx context.Context, alert *Alert) error
	GetAlert(ctx context.Context, id string) (*Alert, error)
	ListAlerts(ctx context.Context) ([]*Alert, error)
	TransitionAlert(ctx context.Context, id string, to AlertStatus, expectVersion int64, entry *AuditEntry) (*Alert, error)

	// Anomalies (append-only)
	InsertAnomaly(ctx context.Context, anomaly *Anomaly) error
	ListAnomalies(ctx context.Context) ([]*Anomaly, error)

	// Audit log (append-only)
	AppendAudit(ctx context.Context, entry *AuditEntry) error
	ListAudit(ctx context.Context) ([]*AuditEntry, error)
}
