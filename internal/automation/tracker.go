package automation

import (
	"context"

	"sellerdesk-automation-api/internal/domain"

	"go.uber.org/zap"
)

// Tracker folds execution outcomes into per-rule statistics. Counter updates
// happen in a single SQL statement on the execution store, so concurrent
// message evaluations cannot lose increments.
type Tracker struct {
	executions ExecutionStore
	log        *zap.Logger
}

// NewTracker creates a Tracker.
func NewTracker(executions ExecutionStore, log *zap.Logger) *Tracker {
	return &Tracker{executions: executions, log: log}
}

// Record persists an outcome. Only claimed outcomes have a pending row to
// finalize: success and failed outcomes increment the rule's counters and
// stamp last_executed_at. Skipped outcomes and claim-stage failures leave
// no trace beyond the evaluation response. Persistence failures are logged,
// never propagated: statistics must not break evaluation.
func (t *Tracker) Record(ctx context.Context, rec domain.ExecutionRecord) {
	if !rec.Claimed {
		return
	}

	if err := t.executions.RecordExecution(ctx, rec); err != nil {
		t.log.Error("could not record execution outcome",
			zap.Error(err),
			zap.String("rule_id", rec.RuleID.String()),
			zap.String("message_id", rec.MessageID),
			zap.String("component", "tracker"))
	}
}

// SuccessRate returns successCount / (successCount + failureCount), and 0
// (not NaN) for a rule that has never executed, keeping downstream
// reporting total.
func SuccessRate(rule domain.AutomationRule) float64 {
	total := rule.SuccessCount + rule.FailureCount
	if total == 0 {
		return 0
	}
	return float64(rule.SuccessCount) / float64(total)
}

// StatsFor builds the read-only statistics view of a rule.
func StatsFor(rule domain.AutomationRule) domain.RuleStats {
	return domain.RuleStats{
		RuleID:         rule.ID,
		SuccessCount:   rule.SuccessCount,
		FailureCount:   rule.FailureCount,
		SuccessRate:    SuccessRate(rule),
		LastExecutedAt: rule.LastExecutedAt,
	}
}
