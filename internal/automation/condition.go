// Package automation implements the customer-communication automation
// engine: trigger matching, condition evaluation, template rendering, action
// execution and outcome tracking.
package automation

import (
	"strings"

	"sellerdesk-automation-api/internal/domain"
)

// MessageField extracts the value a condition inspects from a message. The
// second return is false for an unknown field, which a matcher treats as a
// configuration problem rather than an empty value.
func MessageField(msg domain.Message, field domain.RuleField) (string, bool) {
	switch field {
	case domain.FieldSubject:
		return msg.Subject, true
	case domain.FieldContent:
		return msg.Content, true
	case domain.FieldSender:
		return msg.SenderEmail, true
	case domain.FieldMessageType:
		return string(msg.Type), true
	case domain.FieldPriority:
		return string(msg.Priority), true
	default:
		return "", false
	}
}

// EvaluateCondition reports whether fieldValue satisfies the condition.
// Comparison is case-insensitive on both sides. An unknown operator
// evaluates to false; it is the caller's job to surface the diagnostic.
// The function is pure and total.
func EvaluateCondition(cond domain.Condition, fieldValue string) bool {
	value := strings.ToLower(fieldValue)
	want := strings.ToLower(cond.Value)

	switch cond.Operator {
	case domain.OperatorContains:
		return strings.Contains(value, want)
	case domain.OperatorEquals:
		return value == want
	case domain.OperatorStartsWith:
		return strings.HasPrefix(value, want)
	case domain.OperatorEndsWith:
		return strings.HasSuffix(value, want)
	case domain.OperatorNotContains:
		return !strings.Contains(value, want)
	default:
		return false
	}
}
