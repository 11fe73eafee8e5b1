// Package fraud implements the fraud monitoring and transaction-risk core.
//
// Flow:
//  1. Transactions are ingested into the ledger with status CLEARED
//  2. The rule engine scores each transaction against its account history
//  3. The batch analyzer applies results: alerts, anomalies, status changes
//  4. Operators disposition flagged transactions and alerts; every status
//     change lands in the append-only audit log
package fraud

import (
	"errors"
	"time"

	"github.com/rewards360/fraudwatch/internal/severity"
)

var (
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrConcurrentModification = errors.New("entity was modified concurrently")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrAlertNotFound          = errors.New("alert not found")
	ErrTimeout                = errors.New("store operation timed out")
	ErrUnavailable            = errors.New("store unavailable")
)

// TransactionStatus is the disposition state of a transaction.
type TransactionStatus string

const (
	StatusCleared TransactionStatus = "CLEARED"
	StatusReview  TransactionStatus = "REVIEW"
	StatusBlocked TransactionStatus = "BLOCKED" // terminal
)

// AlertStatus is the triage state of an alert.
type AlertStatus string

const (
	AlertOpen         AlertStatus = "OPEN"
	AlertAcknowledged AlertStatus = "ACKNOWLEDGED"
	AlertClosed       AlertStatus = "CLOSED"
)

// Audit action codes.
const (
	ActionReview      = "REVIEW"
	ActionBlock       = "BLOCK"
	ActionAcknowledge = "ACKNOWLEDGE"
	ActionClose       = "CLOSE"
	ActionIngest      = "INGEST"
)

// Audit entity types.
const (
	EntityTransaction = "TRANSACTION"
	EntityAlert       = "ALERT"
)

// Transaction is one ledger record. Core fields are immutable after
// ingestion; only Status, RiskLevel, RiskReasons and Version change.
type Transaction struct {
	ID               string            `json:"id"`
	ExternalID       string            `json:"externalId,omitempty"`
	AccountID        string            `json:"accountId"`
	MerchantName     string            `json:"merchantName"`
	MerchantCategory string            `json:"merchantCategory"`
	Location         string            `json:"location,omitempty"`
	Country          string            `json:"country"`
	Amount           string            `json:"amount"` // decimal string
	Currency         string            `json:"currency"`
	Status           TransactionStatus `json:"status"`
	RiskLevel        severity.Level    `json:"riskLevel"`
	RiskReasons      []string          `json:"riskReasons,omitempty"`
	Version          int64             `json:"version"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// Clone returns a deep copy so callers never alias store-internal state.
func (t *Transaction) Clone() *Transaction {
	cp := *t
	cp.RiskReasons = append([]string(nil), t.RiskReasons...)
	return &cp
}

// Alert is a risk event surfaced for human disposition.
type Alert struct {
	ID            string         `json:"id"`
	Severity      severity.Level `json:"severity"`
	Status        AlertStatus    `json:"status"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	TransactionID string         `json:"transactionId,omitempty"`
	Version       int64          `json:"version"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Clone returns a copy of the alert.
func (a *Alert) Clone() *Alert {
	cp := *a
	return &cp
}

// Anomaly is a system-detected irregularity. Append-only.
type Anomaly struct {
	ID            string         `json:"id"`
	TransactionID string         `json:"transactionId"`
	AnomalyType   string         `json:"anomalyType"` // AMOUNT_SPIKE, VELOCITY, GEO_MISMATCH, ...
	Severity      severity.Level `json:"severity"`
	Score         float64        `json:"score"` // 0.0 - 1.0
	FlaggedReason string         `json:"flaggedReason"`
	DetectedAt    time.Time      `json:"detectedAt"`
}

// AuditEntry records one state-changing action. Append-only.
type AuditEntry struct {
	ID         string    `json:"id"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Valid reports whether the status is a known transaction status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusCleared, StatusReview, StatusBlocked:
		return true
	}
	return false
}

// Valid reports whether the status is a known alert status.
func (s AlertStatus) Valid() bool {
	switch s {
	case AlertOpen, AlertAcknowledged, AlertClosed:
		return true
	}
	return false
}

// transactionTransitions is the forward-only transaction state machine.
// BLOCKED is terminal; nothing leaves it.
var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	StatusCleared: {StatusReview, StatusBlocked},
	StatusReview:  {StatusBlocked},
	StatusBlocked: {},
}

// alertTransitions is the alert triage state machine.
var alertTransitions = map[AlertStatus][]AlertStatus{
	AlertOpen:         {AlertAcknowledged, AlertClosed},
	AlertAcknowledged: {AlertClosed},
	AlertClosed:       {},
}

// CanTransition reports whether a transaction may move from one status to
// another. Self-transitions are not allowed; they are rejected rather than
// silently succeeding so callers cannot mask a lost update.
func CanTransition(from, to TransactionStatus) bool {
	for _, next := range transactionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionAlert reports whether an alert may move from one status to
// another.
func CanTransitionAlert(from, to AlertStatus) bool {
	for _, next := range alertTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ActionForStatus maps a target transaction status to its audit action code.
func ActionForStatus(to TransactionStatus) string {
	switch to {
	case StatusReview:
		return ActionReview
	case StatusBlocked:
		return ActionBlock
	default:
		return ""
	}
}

// ActionForAlertStatus maps a target alert status to its audit action code.
func ActionForAlertStatus(to AlertStatus) string {
	switch to {
	case AlertAcknowledged:
		return ActionAcknowledge
	case AlertClosed:
		return ActionClose
	default:
		return ""
	}
}
