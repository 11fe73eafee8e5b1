package fraud

import "strings"

// Predicates narrow a listing. Empty or "All" fields match everything, so
// the zero value is a passthrough. Search is a case-insensitive substring
// match over an entity's identifying text fields. All set predicates must
// match (AND semantics).
type Predicates struct {
	Search    string
	RiskLevel string
	Status    string
}

func matchAll(want, got string) bool {
	return want == "" || strings.EqualFold(want, "All") || strings.EqualFold(want, got)
}

func matchSearch(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// FilterTransactions returns the transactions matching p, preserving order.
// The result is always a fresh slice; the input is never mutated.
func FilterTransactions(txns []*Transaction, p Predicates) []*Transaction {
	result := make([]*Transaction, 0, len(txns))
	for _, tx := range txns {
		if !matchAll(p.RiskLevel, string(tx.RiskLevel)) {
			continue
		}
		if !matchAll(p.Status, string(tx.Status)) {
			continue
		}
		if !matchSearch(p.Search, tx.ID, tx.ExternalID, tx.AccountID, tx.MerchantName, tx.Location, tx.Country) {
			continue
		}
		result = append(result, tx)
	}
	return result
}

// FilterAlerts returns the alerts matching p, preserving order.
func FilterAlerts(alerts []*Alert, p Predicates) []*Alert {
	result := make([]*Alert, 0, len(alerts))
	for _, alert := range alerts {
		if !matchAll(p.RiskLevel, string(alert.Severity)) {
			continue
		}
		if !matchAll(p.Status, string(alert.Status)) {
			continue
		}
		if !matchSearch(p.Search, alert.ID, alert.Title, alert.Description, alert.TransactionID) {
			continue
		}
		result = append(result, alert)
	}
	return result
}

// FilterAnomalies returns the anomalies matching p, preserving order.
// The status predicate matches the anomaly type.
func FilterAnomalies(anomalies []*Anomaly, p Predicates) []*Anomaly {
	result := make([]*Anomaly, 0, len(anomalies))
	for _, anomaly := range anomalies {
		if !matchAll(p.RiskLevel, string(anomaly.Severity)) {
			continue
		}
		if !matchAll(p.Status, anomaly.AnomalyType) {
			continue
		}
		if !matchSearch(p.Search, anomaly.ID, anomaly.TransactionID, anomaly.FlaggedReason) {
			continue
		}
		result = append(result, anomaly)
	}
	return result
}

// FilterAudit returns the audit entries matching p, preserving order.
// The status predicate matches the action code.
func FilterAudit(entries []*AuditEntry, p Predicates) []*AuditEntry {
	result := make([]*AuditEntry, 0, len(entries))
	for _, entry := range entries {
		if !matchAll(p.Status, entry.Action) {
			continue
		}
		if !matchSearch(p.Search, entry.ID, entry.Actor, entry.EntityID, entry.Details) {
			continue
		}
		result = append(result, entry)
	}
	return result
}
