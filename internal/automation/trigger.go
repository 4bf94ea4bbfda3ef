package automation

import (
	"strings"
	"time"

	"sellerdesk-automation-api/internal/domain"

	"go.uber.org/zap"
)

// Matcher decides whether a rule applies to a message. Matching is total:
// malformed configuration degrades to a non-match with a logged diagnostic,
// never a panic or an aborted batch.
type Matcher struct {
	log *zap.Logger
	now func() time.Time
}

// NewMatcher creates a Matcher using the wall clock for time-window triggers.
func NewMatcher(log *zap.Logger) *Matcher {
	return &Matcher{log: log, now: time.Now}
}

// Matches reports whether the rule's trigger fires for the message and every
// condition holds. Disabled rules never match. A rule with zero conditions
// matches on its trigger alone.
func (m *Matcher) Matches(rule domain.AutomationRule, msg domain.Message) bool {
	if !rule.Enabled {
		return false
	}

	if !m.TriggerFires(rule.Trigger, msg) {
		return false
	}

	for _, cond := range rule.Conditions {
		if !m.conditionHolds(rule, cond, msg) {
			return false
		}
	}

	return true
}

// TriggerFires evaluates only the trigger, ignoring conditions.
func (m *Matcher) TriggerFires(trigger domain.Trigger, msg domain.Message) bool {
	switch trigger.Kind {
	case domain.TriggerKeyword:
		if trigger.Keyword == nil || trigger.Keyword.Keyword == "" {
			m.warnConfig("keyword trigger missing keyword")
			return false
		}
		haystack := strings.ToLower(msg.Subject + " " + msg.Content)
		return strings.Contains(haystack, strings.ToLower(trigger.Keyword.Keyword))

	case domain.TriggerSenderDomain:
		if trigger.SenderDomain == nil || trigger.SenderDomain.Domain == "" {
			m.warnConfig("sender_domain trigger missing domain")
			return false
		}
		return strings.EqualFold(senderDomain(msg.SenderEmail), trigger.SenderDomain.Domain)

	case domain.TriggerMessageType:
		if trigger.MessageType == nil {
			m.warnConfig("message_type trigger missing type")
			return false
		}
		return msg.Type == trigger.MessageType.Type

	case domain.TriggerTimeWindow:
		if trigger.TimeWindow == nil {
			m.warnConfig("time_window trigger missing window")
			return false
		}
		return m.inWindow(*trigger.TimeWindow, m.now())

	default:
		m.warnConfig("unknown trigger kind", zap.String("kind", string(trigger.Kind)))
		return false
	}
}

func (m *Matcher) conditionHolds(rule domain.AutomationRule, cond domain.Condition, msg domain.Message) bool {
	fieldValue, ok := MessageField(msg, cond.Field)
	if !ok {
		m.warnConfig("condition references unknown field",
			zap.String("rule_id", rule.ID.String()),
			zap.String("field", string(cond.Field)))
		return false
	}

	switch cond.Operator {
	case domain.OperatorContains, domain.OperatorEquals, domain.OperatorStartsWith,
		domain.OperatorEndsWith, domain.OperatorNotContains:
	default:
		m.warnConfig("condition uses unknown operator",
			zap.String("rule_id", rule.ID.String()),
			zap.String("operator", string(cond.Operator)))
		return false
	}

	return EvaluateCondition(cond, fieldValue)
}

// inWindow checks whether now's wall-clock time falls inside the window.
// An end before the start means the window wraps past midnight.
func (m *Matcher) inWindow(window domain.TimeWindowTrigger, now time.Time) bool {
	start, err := parseClock(window.Start)
	if err != nil {
		m.warnConfig("time_window trigger has invalid start", zap.String("start", window.Start))
		return false
	}
	end, err := parseClock(window.End)
	if err != nil {
		m.warnConfig("time_window trigger has invalid end", zap.String("end", window.End))
		return false
	}

	minute := now.Hour()*60 + now.Minute()
	if start <= end {
		return minute >= start && minute <= end
	}
	return minute >= start || minute <= end
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// senderDomain returns the part after the last '@', empty when absent.
func senderDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}

func (m *Matcher) warnConfig(msg string, fields ...zap.Field) {
	fields = append(fields, zap.String("component", "matcher"))
	m.log.Warn(msg, fields...)
}
