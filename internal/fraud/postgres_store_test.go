package fraud

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewards360/fraudwatch/internal/testutil"
)

func pgStore(t *testing.T) *PostgresStore {
	t.Helper()

	db, cleanup := testutil.PGTest(t)
	t.Cleanup(cleanup)

	store := NewPostgresStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestPostgresTransactionRoundTrip(t *testing.T) {
	store := pgStore(t)
	ctx := context.Background()

	tx := &Transaction{
		ID:               "txn_pg-1",
		AccountID:        "acct-1",
		MerchantName:     "Corner Grocery",
		MerchantCategory: "groceries",
		Location:         "Seattle",
		Country:          "US",
		Amount:           "42.17",
		Currency:         "USD",
		Status:           StatusCleared,
		RiskLevel:        "LOW",
		RiskReasons:      []string{"amount"},
		CreatedAt:        time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.InsertTransaction(ctx, tx))

	got, err := store.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.AccountID, got.AccountID)
	assert.Equal(t, "42.17", got.Amount)
	assert.Equal(t, []string{"amount"}, got.RiskReasons)
	assert.Equal(t, StatusCleared, got.Status)

	_, err = store.GetTransaction(ctx, "txn_missing")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestPostgresListPreservesInsertionOrder(t *testing.T) {
	store := pgStore(t)
	ctx := context.Background()

	// Insert with descending timestamps; listing must still follow
	// insertion order, not created_at.
	now := time.Now().UTC()
	for i, id := range []string{"txn_pg-a", "txn_pg-b", "txn_pg-c"} {
		require.NoError(t, store.InsertTransaction(ctx, &Transaction{
			ID: id, AccountID: "acct-1", MerchantName: "M", Amount: "1",
			Currency: "USD", Status: StatusCleared, RiskLevel: "LOW",
			CreatedAt: now.Add(-time.Duration(i) * time.Hour),
		}))
	}

	txns, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, "txn_pg-a", txns[0].ID)
	assert.Equal(t, "txn_pg-b", txns[1].ID)
	assert.Equal(t, "txn_pg-c", txns[2].ID)
}

func TestPostgresTransitionIsAtomicWithAudit(t *testing.T) {
	store := pgStore(t)
	ctx := context.Background()

	tx := &Transaction{
		ID: "txn_pg-2", AccountID: "acct-1", MerchantName: "M", Amount: "10",
		Currency: "USD", Status: StatusCleared, RiskLevel: "LOW", CreatedAt: time.Now(),
	}
	require.NoError(t, store.InsertTransaction(ctx, tx))

	entry := &AuditEntry{
		ID: "aud_pg-1", Actor: "alice", Action: ActionReview,
		EntityType: EntityTransaction, EntityID: tx.ID,
	}
	updated, err := store.TransitionTransaction(ctx, tx.ID, StatusReview, 0, entry)
	require.NoError(t, err)
	assert.Equal(t, StatusReview, updated.Status)
	assert.Equal(t, int64(1), updated.Version)

	entries, err := store.ListAudit(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "aud_pg-1", entries[0].ID)

	// Stale version: no status change, no audit entry.
	_, err = store.TransitionTransaction(ctx, tx.ID, StatusBlocked, 0, &AuditEntry{
		ID: "aud_pg-2", Actor: "bob", Action: ActionBlock,
		EntityType: EntityTransaction, EntityID: tx.ID,
	})
	assert.ErrorIs(t, err, ErrConcurrentModification)

	entries, err = store.ListAudit(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPostgresRecentByAccount(t *testing.T) {
	store := pgStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, store.InsertTransaction(ctx, &Transaction{
		ID: "txn_pg-r1", AccountID: "acct-1", MerchantName: "M", Amount: "1",
		Currency: "USD", Status: StatusCleared, RiskLevel: "LOW", CreatedAt: base,
	}))
	require.NoError(t, store.InsertTransaction(ctx, &Transaction{
		ID: "txn_pg-r2", AccountID: "acct-1", MerchantName: "M", Amount: "1",
		Currency: "USD", Status: StatusCleared, RiskLevel: "LOW", CreatedAt: base.Add(-3 * time.Hour),
	}))

	recent, err := store.RecentByAccount(ctx, "acct-1", base.Add(-2*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "txn_pg-r1", recent[0].ID)
}

func TestPostgresAlertTransition(t *testing.T) {
	store := pgStore(t)
	ctx := context.Background()

	alert := &Alert{
		ID: "alr_pg-1", Severity: "HIGH", Status: AlertOpen,
		Title: "High risk transaction", TransactionID: "txn_pg-1", CreatedAt: time.Now(),
	}
	require.NoError(t, store.InsertAlert(ctx, alert))

	updated, err := store.TransitionAlert(ctx, alert.ID, AlertAcknowledged, 0, &AuditEntry{
		ID: "aud_pg-a1", Actor: "alice", Action: ActionAcknowledge,
		EntityType: EntityAlert, EntityID: alert.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, AlertAcknowledged, updated.Status)

	_, err = store.TransitionAlert(ctx, "alr_missing", AlertClosed, 0, nil)
	assert.ErrorIs(t, err, ErrAlertNotFound)
}

func TestPostgresAnomalyInsertAndList(t *testing.T) {
	store := pgStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertAnomaly(ctx, &Anomaly{
		ID: "anm_pg-1", TransactionID: "txn_pg-1", AnomalyType: "AMOUNT_SPIKE",
		Severity: "CRITICAL", Score: 0.5, FlaggedReason: "amount", DetectedAt: time.Now(),
	}))

	anomalies, err := store.ListAnomalies(ctx)
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, "AMOUNT_SPIKE", anomalies[0].AnomalyType)
	assert.InDelta(t, 0.5, anomalies[0].Score, 1e-9)
}
