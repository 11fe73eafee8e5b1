package fraud

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rewards360/fraudwatch/internal/severity"
)

// Rule thresholds. Amounts are account-currency units.
var (
	amountMedium   = decimal.NewFromInt(1_000)
	amountHigh     = decimal.NewFromInt(10_000)
	amountCritical = decimal.NewFromInt(50_000)
)

const (
	velocityWindow  = 30 * time.Minute
	velocityMaxTxns = 5 // including the transaction under evaluation
	geoWindow       = 2 * time.Hour

	// historyWindow is the widest lookback any rule needs.
	historyWindow = geoWindow
)

// Canonical flag reasons.
const (
	ReasonAmount           = "amount"
	ReasonVelocity         = "velocity"
	ReasonGeoMismatch      = "geo-mismatch"
	ReasonHighRiskCategory = "high-risk-category"
	ReasonHighRiskLocation = "high-risk-location"
)

// Result is the outcome of evaluating a single transaction.
type Result struct {
	Level   severity.Level `json:"level"`
	Reasons []string       `json:"reasons"`
	Score   float64        `json:"score"` // 0.0 - 1.0, for anomaly records
}

// WantsAlert reports whether the classification requires an alert.
func (r Result) WantsAlert() bool {
	return r.Level.Rank() >= severity.Medium.Rank()
}

// WantsAnomaly reports whether the classification requires an anomaly record.
func (r Result) WantsAnomaly() bool {
	return r.Level == severity.Critical
}

// Engine evaluates transactions against the fraud rules. Evaluation is a
// pure function of the transaction and its account history: no clock reads,
// no I/O, no stored state, so identical inputs always yield identical
// results.
type Engine struct {
	highRiskCategories map[string]bool
	highRiskCountries  map[string]bool
}

// NewEngine creates a rule engine flagging the given merchant categories.
// Countries may be empty; the location rule then never fires.
func NewEngine(categories, countries []string) *Engine {
	e := &Engine{
		highRiskCategories: make(map[string]bool, len(categories)),
		highRiskCountries:  make(map[string]bool, len(countries)),
	}
	for _, c := range categories {
		e.highRiskCategories[strings.ToLower(strings.TrimSpace(c))] = true
	}
	for _, c := range countries {
		e.highRiskCountries[strings.ToLower(strings.TrimSpace(c))] = true
	}
	return e
}

// Evaluate classifies one transaction given the account's recent history.
// Rules fire independently; the final level is the maximum across all fired
// rules. Malformed amount or timestamp fields disable the rules that depend
// on them and never abort evaluation.
func (e *Engine) Evaluate(tx *Transaction, history []*Transaction) Result {
	level := severity.Low
	var reasons []string
	var score float64

	if lvl, ok := e.amountRule(tx); ok {
		level = severity.Max(level, lvl)
		reasons = append(reasons, ReasonAmount)
		score += amountScore(lvl)
	}

	if e.velocityRule(tx, history) {
		level = severity.Max(level, severity.High)
		reasons = append(reasons, ReasonVelocity)
		score += 0.25
	}

	if e.geoRule(tx, history) {
		level = severity.Max(level, severity.High)
		reasons = append(reasons, ReasonGeoMismatch)
		score += 0.2
	}

	if e.categoryRule(tx) {
		level = severity.Max(level, severity.Medium)
		reasons = append(reasons, ReasonHighRiskCategory)
		score += 0.2
	}

	if e.locationRule(tx) {
		level = severity.Max(level, severity.Medium)
		reasons = append(reasons, ReasonHighRiskLocation)
		score += 0.15
	}

	if score > 1.0 {
		score = 1.0
	}

	return Result{Level: level, Reasons: reasons, Score: score}
}

// amountRule classifies by absolute amount. A malformed or missing amount
// contributes nothing.
func (e *Engine) amountRule(tx *Transaction) (severity.Level, bool) {
	amt, err := decimal.NewFromString(strings.TrimSpace(tx.Amount))
	if err != nil {
		return severity.Low, false
	}
	switch {
	case amt.GreaterThanOrEqual(amountCritical):
		return severity.Critical, true
	case amt.GreaterThanOrEqual(amountHigh):
		return severity.High, true
	case amt.GreaterThanOrEqual(amountMedium):
		return severity.Medium, true
	default:
		return severity.Low, false
	}
}

// velocityRule fires when the account has velocityMaxTxns or more
// transactions (including this one) inside the trailing window, measured
// from the evaluated transaction's own timestamp.
func (e *Engine) velocityRule(tx *Transaction, history []*Transaction) bool {
	if tx.CreatedAt.IsZero() {
		return false
	}
	cutoff := tx.CreatedAt.Add(-velocityWindow)
	count := 1 // the transaction under evaluation
	for _, h := range history {
		if h.ID == tx.ID || h.CreatedAt.IsZero() {
			continue
		}
		if h.CreatedAt.After(cutoff) && !h.CreatedAt.After(tx.CreatedAt) {
			count++
		}
	}
	return count >= velocityMaxTxns
}

// geoRule fires when another transaction on the account inside the trailing
// window carries a different country.
func (e *Engine) geoRule(tx *Transaction, history []*Transaction) bool {
	if tx.CreatedAt.IsZero() || tx.Country == "" {
		return false
	}
	cutoff := tx.CreatedAt.Add(-geoWindow)
	for _, h := range history {
		if h.ID == tx.ID || h.CreatedAt.IsZero() || h.Country == "" {
			continue
		}
		if h.CreatedAt.After(cutoff) && !h.CreatedAt.After(tx.CreatedAt) &&
			!strings.EqualFold(h.Country, tx.Country) {
			return true
		}
	}
	return false
}

func (e *Engine) categoryRule(tx *Transaction) bool {
	return e.highRiskCategories[strings.ToLower(strings.TrimSpace(tx.MerchantCategory))]
}

func (e *Engine) locationRule(tx *Transaction) bool {
	return e.highRiskCountries[strings.ToLower(strings.TrimSpace(tx.Country))]
}

// amountScore converts the amount classification into its score
// contribution.
func amountScore(lvl severity.Level) float64 {
	switch lvl {
	case severity.Critical:
		return 0.5
	case severity.High:
		return 0.3
	case severity.Medium:
		return 0.15
	default:
		return 0
	}
}

// AnomalyTypeFor picks the anomaly type code for a result, preferring the
// most specific fired rule.
func AnomalyTypeFor(r Result) string {
	for _, reason := range r.Reasons {
		switch reason {
		case ReasonVelocity:
			return "VELOCITY"
		case ReasonGeoMismatch:
			return "GEO_MISMATCH"
		}
	}
	return "AMOUNT_SPIKE"
}
