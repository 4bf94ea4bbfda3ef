package domain

import (
	"time"

	"github.com/google/uuid"
)

// --- ENUM Types ---

type MessageType string

const (
	MessageTypeEmail       MessageType = "email"
	MessageTypeMarketplace MessageType = "marketplace_message"
)

// IsValid checks if the message type is a known value.
func (t MessageType) IsValid() bool {
	switch t {
	case MessageTypeEmail, MessageTypeMarketplace:
		return true
	default:
		return false
	}
}

type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "low"
	PriorityNormal PriorityLevel = "normal"
	PriorityHigh   PriorityLevel = "high"
	PriorityUrgent PriorityLevel = "urgent"
)

// IsValid checks if the priority level is a known value.
func (p PriorityLevel) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
	ExecutionSkipped ExecutionStatus = "skipped"
)

// RuleField identifies the message field a condition inspects.
type RuleField string

const (
	FieldSubject     RuleField = "subject"
	FieldContent     RuleField = "content"
	FieldSender      RuleField = "sender"
	FieldMessageType RuleField = "messageType"
	FieldPriority    RuleField = "priority"
)

// RuleOperator is the comparison a condition applies to a field value.
type RuleOperator string

const (
	OperatorContains    RuleOperator = "contains"
	OperatorEquals      RuleOperator = "equals"
	OperatorStartsWith  RuleOperator = "startsWith"
	OperatorEndsWith    RuleOperator = "endsWith"
	OperatorNotContains RuleOperator = "notContains"
)

type MessageProcessingStatus string

const (
	MessagePending   MessageProcessingStatus = "pending"
	MessageProcessed MessageProcessingStatus = "processed"
)

// EvaluationMode controls how many matching rules the orchestrator executes
// for a single message.
type EvaluationMode string

const (
	FirstMatchOnly EvaluationMode = "first_match_only"
	AllMatches     EvaluationMode = "all_matches"
)

// IsValid reports whether m is a known evaluation mode.
func (m EvaluationMode) IsValid() bool {
	switch m {
	case FirstMatchOnly, AllMatches:
		return true
	}
	return false
}

// --- Base Structs ---

type BaseEntity struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
