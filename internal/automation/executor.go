package automation

import (
	"context"
	"errors"
	"time"

	"sellerdesk-automation-api/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Error details surfaced on failed execution records.
const (
	ErrDetailTemplateNotFound = "TemplateNotFound"
	ErrDetailTimeout          = "timeout"
)

// ErrTemplateNotFound is what a TemplateStore returns when the requested
// template does not exist. Any other lookup error is an infrastructure
// problem and is surfaced as-is on the execution record.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateStore supplies reply templates to send_template actions.
type TemplateStore interface {
	GetTemplateByID(ctx context.Context, templateID uuid.UUID) (domain.Template, error)
	IncrementTemplateUsage(ctx context.Context, templateID uuid.UUID) error
}

// MessageStore mutates message metadata for mark_priority and assign_tag
// actions. The message records themselves are owned elsewhere.
type MessageStore interface {
	SetMessagePriority(ctx context.Context, messageID string, level domain.PriorityLevel) error
	AddMessageTag(ctx context.Context, messageID string, tag string) error
}

// ExecutionStore is the idempotency and outcome surface. ClaimExecution must
// be an atomic insert-if-absent on the (rule, message) pair.
type ExecutionStore interface {
	ClaimExecution(ctx context.Context, ruleID uuid.UUID, messageID string) (bool, error)
	RecordExecution(ctx context.Context, rec domain.ExecutionRecord) error
}

// CommunicationChannel delivers a rendered reply. Implemented outside this
// engine (email or marketplace-message transport).
type CommunicationChannel interface {
	Send(ctx context.Context, msg domain.Message, subject, body string) error
}

// Executor performs a matched rule's action and reports a structured
// outcome. It never executes the same (rule, message) pair twice: the claim
// on the execution store happens before any external side effect.
type Executor struct {
	templates  TemplateStore
	messages   MessageStore
	executions ExecutionStore
	channel    CommunicationChannel
	log        *zap.Logger
	now        func() time.Time
}

// NewExecutor creates an Executor.
func NewExecutor(
	templates TemplateStore,
	messages MessageStore,
	executions ExecutionStore,
	channel CommunicationChannel,
	log *zap.Logger,
) *Executor {
	return &Executor{
		templates:  templates,
		messages:   messages,
		executions: executions,
		channel:    channel,
		log:        log,
		now:        time.Now,
	}
}

// Execute runs the rule's action against the message. The returned record is
// skipped when the pair was already executed, failed when the action or a
// collaborator failed, success otherwise. Execute never returns an error:
// every outcome is expressed in the record so one rule's failure cannot
// abort evaluation of the next.
func (e *Executor) Execute(ctx context.Context, rule domain.AutomationRule, msg domain.Message) domain.ExecutionRecord {
	rec := domain.ExecutionRecord{
		RuleID:    rule.ID,
		MessageID: msg.ID,
		Timestamp: e.now(),
	}

	claimed, err := e.executions.ClaimExecution(ctx, rule.ID, msg.ID)
	if err != nil {
		rec.Status = domain.ExecutionFailed
		rec.ErrorDetail = "idempotency check failed: " + err.Error()
		return rec
	}
	if !claimed {
		e.log.Info("execution already recorded, skipping",
			zap.String("rule_id", rule.ID.String()),
			zap.String("message_id", msg.ID),
			zap.String("component", "executor"))
		rec.Status = domain.ExecutionSkipped
		return rec
	}
	rec.Claimed = true

	if err := e.performAction(ctx, rule, msg); err != nil {
		rec.Status = domain.ExecutionFailed
		rec.ErrorDetail = errorDetail(err)
		return rec
	}

	rec.Status = domain.ExecutionSuccess
	return rec
}

func (e *Executor) performAction(ctx context.Context, rule domain.AutomationRule, msg domain.Message) error {
	action := rule.Action
	switch action.Kind {
	case domain.ActionSendTemplate:
		return e.sendTemplate(ctx, action.SendTemplate, msg)

	case domain.ActionMarkPriority:
		if action.MarkPriority == nil {
			return errors.New("mark_priority action missing config")
		}
		return e.messages.SetMessagePriority(ctx, msg.ID, action.MarkPriority.Priority)

	case domain.ActionAssignTag:
		if action.AssignTag == nil {
			return errors.New("assign_tag action missing config")
		}
		return e.messages.AddMessageTag(ctx, msg.ID, action.AssignTag.Tag)

	default:
		return errors.New("unknown action kind: " + string(action.Kind))
	}
}

func (e *Executor) sendTemplate(ctx context.Context, conf *domain.SendTemplateAction, msg domain.Message) error {
	if conf == nil {
		return errors.New("send_template action missing config")
	}

	templateID, err := uuid.Parse(conf.TemplateID)
	if err != nil {
		return errors.New(ErrDetailTemplateNotFound)
	}

	tmpl, err := e.templates.GetTemplateByID(ctx, templateID)
	if errors.Is(err, ErrTemplateNotFound) {
		return errors.New(ErrDetailTemplateNotFound)
	}
	if err != nil {
		return err
	}

	bindings := MessageBindings(msg)
	subject := ""
	if tmpl.Subject != nil {
		subject = Render(*tmpl.Subject, bindings)
	}
	body := Render(tmpl.Content, bindings)

	if err := e.channel.Send(ctx, msg, subject, body); err != nil {
		return err
	}

	// Usage bookkeeping must not fail the already-delivered send.
	if err := e.templates.IncrementTemplateUsage(ctx, templateID); err != nil {
		e.log.Warn("could not increment template usage",
			zap.Error(err),
			zap.String("template_id", templateID.String()),
			zap.String("component", "executor"))
	}

	return nil
}

// errorDetail maps collaborator errors onto record details. A deadline hit
// on an external call is reported as a plain "timeout".
func errorDetail(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrDetailTimeout
	}
	return err.Error()
}
