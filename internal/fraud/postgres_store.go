package fraud

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresStore implements Store with PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed fraud store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the fraud tables.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fraud_transactions (
			id                VARCHAR(40) PRIMARY KEY,
			external_id       VARCHAR(64),
			account_id        VARCHAR(64) NOT NULL,
			merchant_name     VARCHAR(255) NOT NULL,
			merchant_category VARCHAR(64),
			location          VARCHAR(255),
			country           VARCHAR(64),
			amount            NUMERIC(20,2) NOT NULL,
			currency          VARCHAR(8) NOT NULL DEFAULT 'USD',
			status            VARCHAR(16) NOT NULL,
			risk_level        VARCHAR(16) NOT NULL,
			risk_reasons      TEXT[] NOT NULL DEFAULT '{}',
			version           BIGINT NOT NULL DEFAULT 0,
			seq               BIGSERIAL,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS fraud_alerts (
			id             VARCHAR(40) PRIMARY KEY,
			severity       VARCHAR(16) NOT NULL,
			status         VARCHAR(16) NOT NULL,
			title          VARCHAR(255) NOT NULL,
			description    TEXT,
			transaction_id VARCHAR(40),
			version        BIGINT NOT NULL DEFAULT 0,
			seq            BIGSERIAL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS fraud_anomalies (
			id             VARCHAR(40) PRIMARY KEY,
			transaction_id VARCHAR(40),
			anomaly_type   VARCHAR(32) NOT NULL,
			severity       VARCHAR(16) NOT NULL,
			score          DOUBLE PRECISION NOT NULL DEFAULT 0,
			flagged_reason TEXT,
			seq            BIGSERIAL,
			detected_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS fraud_audit_log (
			id          VARCHAR(40) PRIMARY KEY,
			actor       VARCHAR(128) NOT NULL,
			action      VARCHAR(32) NOT NULL,
			entity_type VARCHAR(32) NOT NULL,
			entity_id   VARCHAR(40) NOT NULL,
			details     TEXT,
			seq         BIGSERIAL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_fraud_tx_account ON fraud_transactions(account_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_fraud_tx_status ON fraud_transactions(status);
		CREATE INDEX IF NOT EXISTS idx_fraud_alerts_status ON fraud_alerts(status);
		CREATE INDEX IF NOT EXISTS idx_fraud_audit_entity ON fraud_audit_log(entity_type, entity_id);
	`)
	return mapErr(err)
}

const transactionColumns = `id, COALESCE(external_id, ''), account_id, merchant_name,
	COALESCE(merchant_category, ''), COALESCE(location, ''), COALESCE(country, ''),
	amount::text, currency, status, risk_level, risk_reasons, version, created_at`

func (p *PostgresStore) InsertTransaction(ctx context.Context, tx *Transaction) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO fraud_transactions
			(id, external_id, account_id, merchant_name, merchant_category,
			 location, country, amount, currency, status, risk_level, risk_reasons, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, tx.ID, tx.ExternalID, tx.AccountID, tx.MerchantName, tx.MerchantCategory,
		tx.Location, tx.Country, tx.Amount, tx.Currency, tx.Status, tx.RiskLevel,
		pq.Array(tx.RiskReasons), tx.Version, tx.CreatedAt)
	return mapErr(err)
}

func (p *PostgresStore) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM fraud_transactions WHERE id = $1
	`, id)

	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return tx, nil
}

func (p *PostgresStore) ListTransactions(ctx context.Context) ([]*Transaction, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM fraud_transactions ORDER BY seq
	`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func (p *PostgresStore) RecentByAccount(ctx context.Context, accountID string, since time.Time) ([]*Transaction, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM fraud_transactions
		WHERE account_id = $1 AND created_at >= $2
		ORDER BY seq
	`, accountID, since)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func (p *PostgresStore) TransitionTransaction(ctx context.Context, id string, to TransactionStatus, expectVersion int64, entry *AuditEntry) (*Transaction, error) {
	dbTx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, mapErr(err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx, `
		UPDATE fraud_transactions SET status = $1, version = version + 1
		WHERE id = $2 AND version = $3
	`, to, id, expectVersion)
	if err != nil {
		return nil, mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, mapErr(err)
	}
	if n == 0 {
		// Either the row is missing or someone updated it first.
		var exists bool
		if err := dbTx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM fraud_transactions WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, mapErr(err)
		}
		if !exists {
			return nil, ErrTransactionNotFound
		}
		return nil, ErrConcurrentModification
	}

	if entry != nil {
		if err := insertAudit(ctx, dbTx, entry); err != nil {
			return nil, err
		}
	}

	row := dbTx.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM fraud_transactions WHERE id = $1
	`, id)
	updated, err := scanTransaction(row)
	if err != nil {
		return nil, mapErr(err)
	}
	if err := dbTx.Commit(); err != nil {
		return nil, mapErr(err)
	}
	return updated, nil
}

func (p *PostgresStore) UpdateTransactionRisk(ctx context.Context, id string, result Result) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE fraud_transactions
		SET risk_level = $1, risk_reasons = $2, version = version + 1
		WHERE id = $3
	`, result.Level, pq.Array(result.Reasons), id)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (p *PostgresStore) InsertAlert(ctx context.Context, alert *Alert) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO fraud_alerts
			(id, severity, status, title, description, transaction_id, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, alert.ID, alert.Severity, alert.Status, alert.Title, alert.Description,
		alert.TransactionID, alert.Version, alert.CreatedAt)
	return mapErr(err)
}

func (p *PostgresStore) GetAlert(ctx context.Context, id string) (*Alert, error) {
	alert := &Alert{}
	err := p.db.QueryRowContext(ctx, `
		SELECT id, severity, status, title, COALESCE(description, ''),
		       COALESCE(transaction_id, ''), version, created_at
		FROM fraud_alerts WHERE id = $1
	`, id).Scan(&alert.ID, &alert.Severity, &alert.Status, &alert.Title,
		&alert.Description, &alert.TransactionID, &alert.Version, &alert.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return alert, nil
}

func (p *PostgresStore) ListAlerts(ctx context.Context) ([]*Alert, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, severity, status, title, COALESCE(description, ''),
		       COALESCE(transaction_id, ''), version, created_at
		FROM fraud_alerts ORDER BY seq
	`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var result []*Alert
	for rows.Next() {
		alert := &Alert{}
		if err := rows.Scan(&alert.ID, &alert.Severity, &alert.Status, &alert.Title,
			&alert.Description, &alert.TransactionID, &alert.Version, &alert.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		result = append(result, alert)
	}
	return result, mapErr(rows.Err())
}

func (p *PostgresStore) TransitionAlert(ctx context.Context, id string, to AlertStatus, expectVersion int64, entry *AuditEntry) (*Alert, error) {
	dbTx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, mapErr(err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx, `
		UPDATE fraud_alerts SET status = $1, version = version + 1
		WHERE id = $2 AND version = $3
	`, to, id, expectVersion)
	if err != nil {
		return nil, mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, mapErr(err)
	}
	if n == 0 {
		var exists bool
		if err := dbTx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM fraud_alerts WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, mapErr(err)
		}
		if !exists {
			return nil, ErrAlertNotFound
		}
		return nil, ErrConcurrentModification
	}

	if entry != nil {
		if err := insertAudit(ctx, dbTx, entry); err != nil {
			return nil, err
		}
	}

	alert := &Alert{}
	err = dbTx.QueryRowContext(ctx, `
		SELECT id, severity, status, title, COALESCE(description, ''),
		       COALESCE(transaction_id, ''), version, created_at
		FROM fraud_alerts WHERE id = $1
	`, id).Scan(&alert.ID, &alert.Severity, &alert.Status, &alert.Title,
		&alert.Description, &alert.TransactionID, &alert.Version, &alert.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	if err := dbTx.Commit(); err != nil {
		return nil, mapErr(err)
	}
	return alert, nil
}

func (p *PostgresStore) InsertAnomaly(ctx context.Context, anomaly *Anomaly) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO fraud_anomalies
			(id, transaction_id, anomaly_type, severity, score, flagged_reason, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, anomaly.ID, anomaly.TransactionID, anomaly.AnomalyType, anomaly.Severity,
		anomaly.Score, anomaly.FlaggedReason, anomaly.DetectedAt)
	return mapErr(err)
}

func (p *PostgresStore) ListAnomalies(ctx context.Context) ([]*Anomaly, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, COALESCE(transaction_id, ''), anomaly_type, severity, score,
		       COALESCE(flagged_reason, ''), detected_at
		FROM fraud_anomalies ORDER BY seq
	`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var result []*Anomaly
	for rows.Next() {
		anomaly := &Anomaly{}
		if err := rows.Scan(&anomaly.ID, &anomaly.TransactionID, &anomaly.AnomalyType,
			&anomaly.Severity, &anomaly.Score, &anomaly.FlaggedReason, &anomaly.DetectedAt); err != nil {
			return nil, mapErr(err)
		}
		result = append(result, anomaly)
	}
	return result, mapErr(rows.Err())
}

func (p *PostgresStore) AppendAudit(ctx context.Context, entry *AuditEntry) error {
	return insertAudit(ctx, p.db, entry)
}

func (p *PostgresStore) ListAudit(ctx context.Context) ([]*AuditEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, actor, action, entity_type, entity_id, COALESCE(details, ''), created_at
		FROM fraud_audit_log ORDER BY seq
	`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var result []*AuditEntry
	for rows.Next() {
		entry := &AuditEntry{}
		if err := rows.Scan(&entry.ID, &entry.Actor, &entry.Action, &entry.EntityType,
			&entry.EntityID, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		result = append(result, entry)
	}
	return result, mapErr(rows.Err())
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertAudit(ctx context.Context, db execer, entry *AuditEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO fraud_audit_log (id, actor, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.Actor, entry.Action, entry.EntityType, entry.EntityID, entry.Details, createdAt)
	return mapErr(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*Transaction, error) {
	tx := &Transaction{}
	err := row.Scan(&tx.ID, &tx.ExternalID, &tx.AccountID, &tx.MerchantName,
		&tx.MerchantCategory, &tx.Location, &tx.Country, &tx.Amount, &tx.Currency,
		&tx.Status, &tx.RiskLevel, pq.Array(&tx.RiskReasons), &tx.Version, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func collectTransactions(rows *sql.Rows) ([]*Transaction, error) {
	var result []*Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		result = append(result, tx)
	}
	return result, mapErr(rows.Err())
}

// mapErr translates driver-level failures into the package's sentinel errors.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, sql.ErrConnDone):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}
