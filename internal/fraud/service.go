package fraud

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rewards360/fraudwatch/internal/idgen"
	"github.com/rewards360/fraudwatch/internal/logging"
	"github.com/rewards360/fraudwatch/internal/metrics"
	"github.com/rewards360/fraudwatch/internal/severity"
	"github.com/rewards360/fraudwatch/internal/syncutil"
	"github.com/rewards360/fraudwatch/internal/traces"
)

// EventEmitter receives notifications after successful mutations. The
// realtime hub implements this; a nil emitter disables notifications.
type EventEmitter interface {
	TransactionUpdated(tx *Transaction)
	AlertCreated(alert *Alert)
	AlertUpdated(alert *Alert)
	AnomalyDetected(anomaly *Anomaly)
}

// Service coordinates transaction mutations, alert lifecycle and the audit
// trail. Mutations on the same entity are serialized through per-ID locks
// so concurrent reviewers observe ErrConcurrentModification instead of
// silently overwriting each other.
type Service struct {
	store   Store
	engine  *Engine
	locks   *syncutil.ShardedMutex
	emitter EventEmitter
}

// NewService creates a fraud service on top of the given store and rule engine.
func NewService(store Store, engine *Engine) *Service {
	return &Service{
		store:  store,
		engine: engine,
		locks:  syncutil.NewShardedMutex(),
	}
}

// SetEmitter attaches an event emitter. Call before serving traffic.
func (s *Service) SetEmitter(e EventEmitter) {
	s.emitter = e
}

// Store exposes the underlying store for read-path consumers.
func (s *Service) Store() Store {
	return s.store
}

// Engine exposes the rule engine.
func (s *Service) Engine() *Engine {
	return s.engine
}

// IngestInput describes an incoming transaction record.
type IngestInput struct {
	ExternalID       string `json:"external_id"`
	AccountID        string `json:"account_id"`
	MerchantName     string `json:"merchant_name"`
	MerchantCategory string `json:"merchant_category"`
	Location         string `json:"location"`
	Country          string `json:"country"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	OccurredAt       string `json:"occurred_at"`
}

// Validate checks the required ingest fields.
func (in *IngestInput) Validate() error {
	if strings.TrimSpace(in.AccountID) == "" {
		return fmt.Errorf("account_id is required")
	}
	if strings.TrimSpace(in.MerchantName) == "" {
		return fmt.Errorf("merchant_name is required")
	}
	if strings.TrimSpace(in.Amount) == "" {
		return fmt.Errorf("amount is required")
	}
	return nil
}

// Ingest records a new transaction. It enters the ledger CLEARED with an
// unknown risk level until the analyzer evaluates it.
func (s *Service) Ingest(ctx context.Context, in *IngestInput, actor string) (*Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	createdAt := time.Now()
	if in.OccurredAt != "" {
		if t, err := time.Parse(time.RFC3339, in.OccurredAt); err == nil {
			createdAt = t
		}
	}
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	tx := &Transaction{
		ID:               idgen.WithPrefix(idgen.PrefixTransaction),
		ExternalID:       in.ExternalID,
		AccountID:        in.AccountID,
		MerchantName:     in.MerchantName,
		MerchantCategory: in.MerchantCategory,
		Location:         in.Location,
		Country:          in.Country,
		Amount:           in.Amount,
		Currency:         currency,
		Status:           StatusCleared,
		RiskLevel:        severity.Low,
		CreatedAt:        createdAt,
	}
	if err := s.store.InsertTransaction(ctx, tx); err != nil {
		return nil, err
	}

	entry := &AuditEntry{
		ID:         idgen.WithPrefix(idgen.PrefixAudit),
		Actor:      actor,
		Action:     ActionIngest,
		EntityType: EntityTransaction,
		EntityID:   tx.ID,
		Details:    fmt.Sprintf("ingested %s %s at %s", tx.Amount, tx.Currency, tx.MerchantName),
		CreatedAt:  time.Now(),
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		return nil, err
	}

	metrics.TransactionsIngested.Inc()
	logging.L(ctx).Info("transaction ingested",
		"transaction_id", tx.ID, "account_id", tx.AccountID, "amount", tx.Amount)
	return tx, nil
}

// GetTransaction returns a transaction by ID.
func (s *Service) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// ListTransactions returns all transactions in insertion order.
func (s *Service) ListTransactions(ctx context.Context) ([]*Transaction, error) {
	return s.store.ListTransactions(ctx)
}

// UpdateStatus moves a transaction through the status machine and records
// the change in the audit log atomically. Illegal moves return
// ErrInvalidTransition; a lost version race returns ErrConcurrentModification.
func (s *Service) UpdateStatus(ctx context.Context, id string, to TransactionStatus, actor string) (*Transaction, error) {
	ctx, span := traces.StartSpan(ctx, "fraud.UpdateStatus",
		traces.TransactionID(id), traces.Actor(actor))
	defer span.End()

	unlock := s.locks.Lock(id)
	defer unlock()

	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(tx.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, tx.Status, to)
	}

	entry := &AuditEntry{
		ID:         idgen.WithPrefix(idgen.PrefixAudit),
		Actor:      actor,
		Action:     ActionForStatus(to),
		EntityType: EntityTransaction,
		EntityID:   id,
		Details:    fmt.Sprintf("status %s -> %s", tx.Status, to),
		CreatedAt:  time.Now(),
	}
	updated, err := s.store.TransitionTransaction(ctx, id, to, tx.Version, entry)
	if err != nil {
		return nil, err
	}

	metrics.StatusTransitionsTotal.WithLabelValues(string(to)).Inc()
	logging.L(ctx).Info("transaction status changed",
		"transaction_id", id, "from", tx.Status, "to", to, "actor", actor)
	if s.emitter != nil {
		s.emitter.TransactionUpdated(updated)
	}
	return updated, nil
}

// Review flags a transaction for manual review.
func (s *Service) Review(ctx context.Context, id, actor string) (*Transaction, error) {
	return s.UpdateStatus(ctx, id, StatusReview, actor)
}

// Block blocks a transaction. BLOCKED is terminal.
func (s *Service) Block(ctx context.Context, id, actor string) (*Transaction, error) {
	return s.UpdateStatus(ctx, id, StatusBlocked, actor)
}

// UpdateRisk persists a rule evaluation onto a transaction. Risk metadata
// changes are not audited; only status changes are.
func (s *Service) UpdateRisk(ctx context.Context, id string, result Result) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	return s.store.UpdateTransactionRisk(ctx, id, result)
}

// CreateAlert opens an alert for a flagged transaction.
func (s *Service) CreateAlert(ctx context.Context, tx *Transaction, result Result) (*Alert, error) {
	alert := &Alert{
		ID:            idgen.WithPrefix(idgen.PrefixAlert),
		Severity:      result.Level,
		Status:        AlertOpen,
		Title:         fmt.Sprintf("%s risk transaction at %s", result.Level, tx.MerchantName),
		Description:   fmt.Sprintf("rules triggered: %s", strings.Join(result.Reasons, ", ")),
		TransactionID: tx.ID,
		CreatedAt:     time.Now(),
	}
	if err := s.store.InsertAlert(ctx, alert); err != nil {
		return nil, err
	}
	metrics.AlertsTotal.WithLabelValues(string(alert.Severity)).Inc()
	if s.emitter != nil {
		s.emitter.AlertCreated(alert)
	}
	return alert, nil
}

// GetAlert returns an alert by ID.
func (s *Service) GetAlert(ctx context.Context, id string) (*Alert, error) {
	return s.store.GetAlert(ctx, id)
}

// ListAlerts returns all alerts in insertion order.
func (s *Service) ListAlerts(ctx context.Context) ([]*Alert, error) {
	return s.store.ListAlerts(ctx)
}

// SetAlertStatus moves an alert through its lifecycle with the same
// audit and concurrency guarantees as transaction transitions.
func (s *Service) SetAlertStatus(ctx context.Context, id string, to AlertStatus, actor string) (*Alert, error) {
	ctx, span := traces.StartSpan(ctx, "fraud.SetAlertStatus",
		traces.AlertID(id), traces.Actor(actor))
	defer span.End()

	unlock := s.locks.Lock(id)
	defer unlock()

	alert, err := s.store.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransitionAlert(alert.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, alert.Status, to)
	}

	entry := &AuditEntry{
		ID:         idgen.WithPrefix(idgen.PrefixAudit),
		Actor:      actor,
		Action:     ActionForAlertStatus(to),
		EntityType: EntityAlert,
		EntityID:   id,
		Details:    fmt.Sprintf("status %s -> %s", alert.Status, to),
		CreatedAt:  time.Now(),
	}
	updated, err := s.store.TransitionAlert(ctx, id, to, alert.Version, entry)
	if err != nil {
		return nil, err
	}

	logging.L(ctx).Info("alert status changed",
		"alert_id", id, "from", alert.Status, "to", to, "actor", actor)
	if s.emitter != nil {
		s.emitter.AlertUpdated(updated)
	}
	return updated, nil
}

// RecordAnomaly stores an anomaly derived from a rule evaluation.
func (s *Service) RecordAnomaly(ctx context.Context, tx *Transaction, result Result) (*Anomaly, error) {
	anomaly := &Anomaly{
		ID:            idgen.WithPrefix(idgen.PrefixAnomaly),
		TransactionID: tx.ID,
		AnomalyType:   AnomalyTypeFor(result),
		Severity:      result.Level,
		Score:         result.Score,
		FlaggedReason: strings.Join(result.Reasons, ", "),
		DetectedAt:    time.Now(),
	}
	if err := s.store.InsertAnomaly(ctx, anomaly); err != nil {
		return nil, err
	}
	metrics.AnomaliesTotal.WithLabelValues(anomaly.AnomalyType).Inc()
	if s.emitter != nil {
		s.emitter.AnomalyDetected(anomaly)
	}
	return anomaly, nil
}

// ListAnomalies returns all anomalies in insertion order.
func (s *Service) ListAnomalies(ctx context.Context) ([]*Anomaly, error) {
	return s.store.ListAnomalies(ctx)
}

// ListAudit returns the audit trail in append order.
func (s *Service) ListAudit(ctx context.Context) ([]*AuditEntry, error) {
	return s.store.ListAudit(ctx)
}
