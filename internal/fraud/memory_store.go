package fraud

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in memory for demo/testing. Insertion order
// is preserved by keeping slices alongside the lookup maps.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions []*Transaction
	txIndex      map[string]*Transaction
	alerts       []*Alert
	alertIndex   map[string]*Alert
	anomalies    []*Anomaly
	audit        []*AuditEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		txIndex:    make(map[string]*Transaction),
		alertIndex: make(map[string]*Alert),
	}
}

func (s *MemoryStore) InsertTransaction(_ context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := tx.Clone()
	s.transactions = append(s.transactions, cp)
	s.txIndex[cp.ID] = cp
	return nil
}

func (s *MemoryStore) GetTransaction(_ context.Context, id string) (*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.txIndex[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return tx.Clone(), nil
}

func (s *MemoryStore) ListTransactions(_ context.Context) ([]*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		result = append(result, tx.Clone())
	}
	return result, nil
}

func (s *MemoryStore) RecentByAccount(_ context.Context, accountID string, since time.Time) ([]*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Transaction
	for _, tx := range s.transactions {
		if tx.AccountID == accountID && !tx.CreatedAt.Before(since) {
			result = append(result, tx.Clone())
		}
	}
	return result, nil
}

func (s *MemoryStore) TransitionTransaction(_ context.Context, id string, to TransactionStatus, expectVersion int64, entry *AuditEntry) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txIndex[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	if tx.Version != expectVersion {
		return nil, ErrConcurrentModification
	}

	tx.Status = to
	tx.Version++
	s.appendAuditLocked(entry)
	return tx.Clone(), nil
}

func (s *MemoryStore) UpdateTransactionRisk(_ context.Context, id string, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txIndex[id]
	if !ok {
		return ErrTransactionNotFound
	}
	tx.RiskLevel = result.Level
	tx.RiskReasons = append([]string(nil), result.Reasons...)
	tx.Version++
	return nil
}

func (s *MemoryStore) InsertAlert(_ context.Context, alert *Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := alert.Clone()
	s.alerts = append(s.alerts, cp)
	s.alertIndex[cp.ID] = cp
	return nil
}

func (s *MemoryStore) GetAlert(_ context.Context, id string) (*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alert, ok := s.alertIndex[id]
	if !ok {
		return nil, ErrAlertNotFound
	}
	return alert.Clone(), nil
}

func (s *MemoryStore) ListAlerts(_ context.Context) ([]*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Alert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		result = append(result, alert.Clone())
	}
	return result, nil
}

func (s *MemoryStore) TransitionAlert(_ context.Context, id string, to AlertStatus, expectVersion int64, entry *AuditEntry) (*Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alertIndex[id]
	if !ok {
		return nil, ErrAlertNotFound
	}
	if alert.Version != expectVersion {
		return nil, ErrConcurrentModification
	}

	alert.Status = to
	alert.Version++
	s.appendAuditLocked(entry)
	return alert.Clone(), nil
}

func (s *MemoryStore) InsertAnomaly(_ context.Context, anomaly *Anomaly) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *anomaly
	s.anomalies = append(s.anomalies, &cp)
	return nil
}

func (s *MemoryStore) ListAnomalies(_ context.Context) ([]*Anomaly, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Anomaly, 0, len(s.anomalies))
	for _, anomaly := range s.anomalies {
		cp := *anomaly
		result = append(result, &cp)
	}
	return result, nil
}

func (s *MemoryStore) AppendAudit(_ context.Context, entry *AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendAuditLocked(entry)
	return nil
}

func (s *MemoryStore) ListAudit(_ context.Context) ([]*AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*AuditEntry, 0, len(s.audit))
	for _, entry := range s.audit {
		cp := *entry
		result = append(result, &cp)
	}
	return result, nil
}

// appendAuditLocked appends an audit entry under the write lock so status
// mutations and their audit records commit together.
func (s *MemoryStore) appendAuditLocked(entry *AuditEntry) {
	if entry == nil {
		return
	}
	cp := *entry
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.audit = append(s.audit, &cp)
}
