package fraud

import (
	"testing"
)

func filterFixture() []*Transaction {
	return []*Transaction{
		{ID: "txn_1", AccountID: "acct-100", MerchantName: "Corner Grocery", Status: StatusCleared, RiskLevel: "LOW"},
		{ID: "txn_2", AccountID: "acct-200", MerchantName: "Moonlight Jewelers", Status: StatusReview, RiskLevel: "HIGH"},
		{ID: "txn_3", AccountID: "acct-100", MerchantName: "Apex Exchange", Status: StatusBlocked, RiskLevel: "CRITICAL"},
		{ID: "txn_4", AccountID: "acct-300", MerchantName: "Grocery Depot", Status: StatusReview, RiskLevel: "MEDIUM"},
	}
}

func TestFilterZeroValueMatchesEverything(t *testing.T) {
	txns := filterFixture()
	got := FilterTransactions(txns, Predicates{})
	if len(got) != len(txns) {
		t.Fatalf("zero predicates: got %d, want %d", len(got), len(txns))
	}
	for i := range txns {
		if got[i].ID != txns[i].ID {
			t.Errorf("order changed at %d: %s vs %s", i, got[i].ID, txns[i].ID)
		}
	}
}

func TestFilterAllSentinelMatchesEverything(t *testing.T) {
	txns := filterFixture()
	got := FilterTransactions(txns, Predicates{RiskLevel: "All", Status: "all"})
	if len(got) != len(txns) {
		t.Fatalf("All sentinel: got %d, want %d", len(got), len(txns))
	}
}

func TestFilterSearchIsCaseInsensitiveSubstring(t *testing.T) {
	got := FilterTransactions(filterFixture(), Predicates{Search: "GROCERY"})
	if len(got) != 2 {
		t.Fatalf("search: got %d matches, want 2", len(got))
	}
	if got[0].ID != "txn_1" || got[1].ID != "txn_4" {
		t.Errorf("search matched %s, %s", got[0].ID, got[1].ID)
	}

	// Search also hits IDs and account IDs.
	got = FilterTransactions(filterFixture(), Predicates{Search: "acct-200"})
	if len(got) != 1 || got[0].ID != "txn_2" {
		t.Errorf("account search failed: %v", got)
	}
}

func TestFilterPredicatesCombineWithAnd(t *testing.T) {
	got := FilterTransactions(filterFixture(), Predicates{
		Search: "acct-100",
		Status: "BLOCKED",
	})
	if len(got) != 1 || got[0].ID != "txn_3" {
		t.Fatalf("AND semantics: got %v", got)
	}

	// A predicate combination with no survivors yields an empty slice.
	got = FilterTransactions(filterFixture(), Predicates{
		RiskLevel: "LOW",
		Status:    "BLOCKED",
	})
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %v", got)
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	txns := filterFixture()
	_ = FilterTransactions(txns, Predicates{Status: "REVIEW"})
	if len(txns) != 4 {
		t.Fatalf("input mutated: %d", len(txns))
	}

	// Result is a fresh slice: appending must not touch the input.
	got := FilterTransactions(txns, Predicates{})
	got = append(got[:0], got[1:]...)
	if txns[0].ID != "txn_1" {
		t.Fatalf("aliasing detected")
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	p := Predicates{Status: "REVIEW"}
	once := FilterTransactions(filterFixture(), p)
	twice := FilterTransactions(once, p)
	if len(once) != len(twice) {
		t.Fatalf("idempotence: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("idempotence order at %d", i)
		}
	}
}

func TestFilterAlerts(t *testing.T) {
	alerts := []*Alert{
		{ID: "alr_1", Severity: "HIGH", Status: AlertOpen, Title: "High risk transaction"},
		{ID: "alr_2", Severity: "MEDIUM", Status: AlertClosed, Title: "Velocity burst"},
		{ID: "alr_3", Severity: "HIGH", Status: AlertClosed, Title: "Geo mismatch"},
	}

	got := FilterAlerts(alerts, Predicates{RiskLevel: "HIGH", Status: "CLOSED"})
	if len(got) != 1 || got[0].ID != "alr_3" {
		t.Fatalf("alert filter: %v", got)
	}

	got = FilterAlerts(alerts, Predicates{Search: "velocity"})
	if len(got) != 1 || got[0].ID != "alr_2" {
		t.Fatalf("alert search: %v", got)
	}
}

func TestFilterAnomaliesAndAudit(t *testing.T) {
	anomalies := []*Anomaly{
		{ID: "anm_1", AnomalyType: "VELOCITY", Severity: "HIGH", FlaggedReason: "velocity"},
		{ID: "anm_2", AnomalyType: "AMOUNT_SPIKE", Severity: "CRITICAL", FlaggedReason: "amount"},
	}
	got := FilterAnomalies(anomalies, Predicates{Status: "AMOUNT_SPIKE"})
	if len(got) != 1 || got[0].ID != "anm_2" {
		t.Fatalf("anomaly filter: %v", got)
	}

	entries := []*AuditEntry{
		{ID: "aud_1", Actor: "alice", Action: ActionReview, EntityID: "txn_1"},
		{ID: "aud_2", Actor: "bob", Action: ActionBlock, EntityID: "txn_2"},
	}
	gotA := FilterAudit(entries, Predicates{Search: "alice"})
	if len(gotA) != 1 || gotA[0].ID != "aud_1" {
		t.Fatalf("audit search: %v", gotA)
	}
	gotA = FilterAudit(entries, Predicates{Status: ActionBlock})
	if len(gotA) != 1 || gotA[0].ID != "aud_2" {
		t.Fatalf("audit action filter: %v", gotA)
	}
}
