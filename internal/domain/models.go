package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Condition is a secondary AND-combined filter refining a trigger match.
// Conditions never nest and never OR; that is a deliberate constraint of the
// rule model, not an oversight.
type Condition struct {
	Field    RuleField    `json:"field"`
	Operator RuleOperator `json:"operator"`
	Value    string       `json:"value"`
}

// Describe returns a short human-readable summary, used in dry-run previews.
func (c Condition) Describe() string {
	return fmt.Sprintf("%s %s %q", c.Field, c.Operator, c.Value)
}

// AutomationRule decides whether and how to react to an inbound message.
// SuccessCount, FailureCount and LastExecutedAt are owned by the execution
// tracker; the authoring path must never reset them.
type AutomationRule struct {
	BaseEntity
	Name           string      `db:"name"             json:"name"`
	Description    *string     `db:"description"      json:"description,omitempty"`
	Enabled        bool        `db:"enabled"          json:"enabled"`
	Priority       int         `db:"priority"         json:"priority"`
	Trigger        Trigger     `db:"trigger"          json:"trigger"`
	Conditions     []Condition `db:"conditions"       json:"conditions"`
	Action         Action      `db:"action"           json:"action"`
	SuccessCount   int64       `db:"success_count"    json:"success_count"`
	FailureCount   int64       `db:"failure_count"    json:"failure_count"`
	LastExecutedAt *time.Time  `db:"last_executed_at" json:"last_executed_at,omitempty"`
}

// Template is reusable reply text with {{name}} placeholders.
// Variables is derived from Content at save time, never authored directly.
type Template struct {
	BaseEntity
	Name       string   `db:"name"        json:"name"`
	Subject    *string  `db:"subject"     json:"subject,omitempty"`
	Content    string   `db:"content"     json:"content"`
	Variables  []string `db:"variables"   json:"variables"`
	UsageCount int64    `db:"usage_count" json:"usage_count"`
}

// Message is an inbound customer message. It is read-only to the automation
// engine except for the priority and tag metadata mutated by actions.
type Message struct {
	ID          string                  `db:"id"           json:"id"`
	Subject     string                  `db:"subject"      json:"subject"`
	Content     string                  `db:"content"      json:"content"`
	SenderName  string                  `db:"sender_name"  json:"sender_name"`
	SenderEmail string                  `db:"sender_email" json:"sender_email"`
	Type        MessageType             `db:"type"         json:"type"`
	Priority    PriorityLevel           `db:"priority"     json:"priority"`
	Tags        []string                `db:"tags"         json:"tags"`
	Context     map[string]string       `db:"context"      json:"context,omitempty"`
	Status      MessageProcessingStatus `db:"status"       json:"status"`
	ReceivedAt  time.Time               `db:"received_at"  json:"received_at"`
}

// ExecutionRecord is the outcome of running one rule against one message.
type ExecutionRecord struct {
	RuleID      uuid.UUID       `db:"rule_id"      json:"rule_id"`
	MessageID   string          `db:"message_id"   json:"message_id"`
	Status      ExecutionStatus `db:"status"       json:"status"`
	ErrorDetail string          `db:"error_detail" json:"error_detail,omitempty"`
	Timestamp   time.Time       `db:"timestamp"    json:"timestamp"`

	// Claimed is set when the executor won the idempotency claim for this
	// pair, meaning a pending row exists that can be finalized.
	Claimed bool `db:"-" json:"-"`
}

// RulePreview is the result of a dry run against a sample message.
// It never reflects a real send or counter mutation.
type RulePreview struct {
	WouldMatch        bool     `json:"would_match"`
	TriggerFired      bool     `json:"trigger_fired"`
	MatchedConditions []string `json:"matched_conditions"`
	FailedCondition   string   `json:"failed_condition,omitempty"`
	ActionSummary     string   `json:"action_summary"`
	RenderedSubject   string   `json:"rendered_subject,omitempty"`
	RenderedBody      string   `json:"rendered_body,omitempty"`
}

// RuleStats is the read-only statistics surface for one rule.
type RuleStats struct {
	RuleID         uuid.UUID  `json:"rule_id"`
	SuccessCount   int64      `json:"success_count"`
	FailureCount   int64      `json:"failure_count"`
	SuccessRate    float64    `json:"success_rate"`
	LastExecutedAt *time.Time `json:"last_executed_at,omitempty"`
}
