package fraud

import (
	"context"
	"time"

	"github.com/rewards360/fraudwatch/internal/logging"
	"github.com/rewards360/fraudwatch/internal/metrics"
	"github.com/rewards360/fraudwatch/internal/severity"
	"github.com/rewards360/fraudwatch/internal/traces"
)

// Summary reports the outcome of a batch analysis run.
type Summary struct {
	TotalAnalyzed    int `json:"totalAnalyzed"`
	Cleared          int `json:"cleared"`
	FlaggedForReview int `json:"flaggedForReview"`
	Blocked          int `json:"blocked"`
}

// Analyzer runs the rule engine over the ledger and applies the resulting
// status changes through the service so every change is audited.
type Analyzer struct {
	svc   *Service
	actor string
}

// NewAnalyzer creates an analyzer acting as the given system actor.
func NewAnalyzer(svc *Service, actor string) *Analyzer {
	return &Analyzer{svc: svc, actor: actor}
}

// AnalyzeAll evaluates every transaction in the ledger. Blocked transactions
// are terminal and skipped. A transaction that fails to analyze is logged
// and skipped; the rest of the batch still runs.
func (a *Analyzer) AnalyzeAll(ctx context.Context) (*Summary, error) {
	ctx, span := traces.StartSpan(ctx, "analyzer.AnalyzeAll")
	defer span.End()

	metrics.AnalysisRunsTotal.Inc()
	defer func(start time.Time) {
		metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	}(time.Now())

	txns, err := a.svc.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, tx := range txns {
		// Skipped rows do not count toward the summary.
		if tx.Status == StatusBlocked {
			continue
		}

		result, err := a.analyze(ctx, tx)
		if err != nil {
			logging.L(ctx).Warn("skipping transaction in batch analysis",
				"transaction_id", tx.ID, "error", err)
			continue
		}

		summary.TotalAnalyzed++
		switch targetStatus(result.Level) {
		case StatusBlocked:
			summary.Blocked++
		case StatusReview:
			summary.FlaggedForReview++
		default:
			summary.Cleared++
		}
	}

	logging.L(ctx).Info("batch analysis complete",
		"analyzed", summary.TotalAnalyzed,
		"cleared", summary.Cleared,
		"flagged", summary.FlaggedForReview,
		"blocked", summary.Blocked)
	return summary, nil
}

// AnalyzeOne evaluates a single transaction by ID and applies the outcome.
func (a *Analyzer) AnalyzeOne(ctx context.Context, id string) (*Transaction, Result, error) {
	ctx, span := traces.StartSpan(ctx, "analyzer.AnalyzeOne", traces.TransactionID(id))
	defer span.End()

	tx, err := a.svc.GetTransaction(ctx, id)
	if err != nil {
		return nil, Result{}, err
	}
	if tx.Status == StatusBlocked {
		return tx, Result{Level: tx.RiskLevel, Reasons: tx.RiskReasons}, nil
	}

	result, err := a.analyze(ctx, tx)
	if err != nil {
		return nil, Result{}, err
	}

	updated, err := a.svc.GetTransaction(ctx, id)
	if err != nil {
		return nil, Result{}, err
	}
	return updated, result, nil
}

// analyze evaluates one transaction against its account history and applies
// the risk metadata, status change, alert and anomaly that follow from it.
func (a *Analyzer) analyze(ctx context.Context, tx *Transaction) (Result, error) {
	since := tx.CreatedAt.Add(-historyWindow)
	history, err := a.svc.Store().RecentByAccount(ctx, tx.AccountID, since)
	if err != nil {
		return Result{}, err
	}

	result := a.svc.Engine().Evaluate(tx, history)
	if err := a.svc.UpdateRisk(ctx, tx.ID, result); err != nil {
		return Result{}, err
	}

	target := targetStatus(result.Level)
	if target == tx.Status || !CanTransition(tx.Status, target) {
		// Low-risk re-evaluations never downgrade a transaction that a
		// reviewer already flagged.
		return result, nil
	}

	if _, err := a.svc.UpdateStatus(ctx, tx.ID, target, a.actor); err != nil {
		return Result{}, err
	}
	if result.WantsAlert() {
		if _, err := a.svc.CreateAlert(ctx, tx, result); err != nil {
			return Result{}, err
		}
	}
	if result.WantsAnomaly() {
		if _, err := a.svc.RecordAnomaly(ctx, tx, result); err != nil {
			return Result{}, err
		}
	}
	return result, nil
}

// targetStatus maps a risk level to the status the analyzer drives toward.
func targetStatus(level severity.Level) TransactionStatus {
	switch level {
	case severity.Critical:
		return StatusBlocked
	case severity.High, severity.Medium:
		return StatusReview
	default:
		return StatusCleared
	}
}
