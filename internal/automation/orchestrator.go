package automation

import (
	"context"
	"errors"
	"fmt"

	"sellerdesk-automation-api/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RuleSource supplies candidate rules in deterministic evaluation order.
type RuleSource interface {
	ListEnabledRules(ctx context.Context) ([]domain.AutomationRule, error)
}

// Orchestrator is the engine entry point: it walks the enabled rules in
// repository order, matches, executes and records.
type Orchestrator struct {
	rules    RuleSource
	matcher  *Matcher
	executor *Executor
	tracker  *Tracker
	log      *zap.Logger
}

// NewOrchestrator wires the engine components around a rule source and the
// external collaborators.
func NewOrchestrator(
	rules RuleSource,
	templates TemplateStore,
	messages MessageStore,
	executions ExecutionStore,
	channel CommunicationChannel,
	log *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		rules:    rules,
		matcher:  NewMatcher(log),
		executor: NewExecutor(templates, messages, executions, channel, log),
		tracker:  NewTracker(executions, log),
		log:      log,
	}
}

// EvaluateMessage runs the enabled rules against one message and returns the
// execution records produced. In FirstMatchOnly mode the scan stops after
// the first executed action, whether it succeeded or failed; a skipped
// outcome is not a handled message, so the scan continues past it. One
// rule's failure never prevents evaluation of the next.
func (o *Orchestrator) EvaluateMessage(ctx context.Context, msg domain.Message, mode domain.EvaluationMode) ([]domain.ExecutionRecord, error) {
	// Anything that is not explicitly AllMatches evaluates as
	// FirstMatchOnly; a typo in the mode must not fan out sends.
	if mode != domain.AllMatches {
		mode = domain.FirstMatchOnly
	}

	rules, err := o.rules.ListEnabledRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not fetch enabled rules: %w", err)
	}

	records := []domain.ExecutionRecord{}
	for _, rule := range rules {
		if !o.matcher.Matches(rule, msg) {
			continue
		}

		o.log.Info("message matches rule",
			zap.String("rule_id", rule.ID.String()),
			zap.String("rule_name", rule.Name),
			zap.String("message_id", msg.ID),
			zap.String("component", "orchestrator"))

		rec := o.executor.Execute(ctx, rule, msg)
		o.tracker.Record(ctx, rec)
		records = append(records, rec)

		if mode == domain.FirstMatchOnly && rec.Status != domain.ExecutionSkipped {
			break
		}
	}

	return records, nil
}

// TestRule dry-runs a rule against a sample message. It reuses the matcher
// and renderer but performs no external side effect: nothing is sent, no
// counter moves, and missing bindings show up as unsubstituted placeholders
// in the preview.
func (o *Orchestrator) TestRule(ctx context.Context, rule domain.AutomationRule, msg domain.Message) domain.RulePreview {
	preview := domain.RulePreview{
		MatchedConditions: []string{},
		ActionSummary:     rule.Action.Describe(),
	}

	// A dry run should report on the rule as authored even when it is
	// currently disabled.
	candidate := rule
	candidate.Enabled = true

	preview.TriggerFired = o.matcher.TriggerFires(candidate.Trigger, msg)
	if preview.TriggerFired {
		preview.WouldMatch = true
		for _, cond := range candidate.Conditions {
			if o.matcher.conditionHolds(candidate, cond, msg) {
				preview.MatchedConditions = append(preview.MatchedConditions, cond.Describe())
				continue
			}
			preview.WouldMatch = false
			preview.FailedCondition = cond.Describe()
			break
		}
	}

	if rule.Action.Kind == domain.ActionSendTemplate && rule.Action.SendTemplate != nil {
		o.previewTemplate(ctx, rule.Action.SendTemplate.TemplateID, msg, &preview)
	}

	return preview
}

func (o *Orchestrator) previewTemplate(ctx context.Context, templateID string, msg domain.Message, preview *domain.RulePreview) {
	id, err := uuid.Parse(templateID)
	if err != nil {
		preview.ActionSummary += " (template not found)"
		return
	}

	tmpl, err := o.executor.templates.GetTemplateByID(ctx, id)
	if errors.Is(err, ErrTemplateNotFound) {
		preview.ActionSummary += " (template not found)"
		return
	}
	if err != nil {
		o.log.Warn("could not load template for preview",
			zap.String("template_id", templateID),
			zap.Error(err),
			zap.String("component", "orchestrator"))
		preview.ActionSummary += " (template unavailable)"
		return
	}

	bindings := MessageBindings(msg)
	if tmpl.Subject != nil {
		preview.RenderedSubject = Render(*tmpl.Subject, bindings)
	}
	preview.RenderedBody = Render(tmpl.Content, bindings)
}
