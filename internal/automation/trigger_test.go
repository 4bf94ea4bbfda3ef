package automation

import (
	"testing"
	"time"

	"sellerdesk-automation-api/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	return NewMatcher(zap.NewNop())
}

func enabledRule(trigger domain.Trigger, conditions ...domain.Condition) domain.AutomationRule {
	return domain.AutomationRule{
		BaseEntity: domain.BaseEntity{ID: uuid.New()},
		Name:       "test rule",
		Enabled:    true,
		Trigger:    trigger,
		Conditions: conditions,
		Action:     domain.NewAssignTagAction("test"),
	}
}

func TestMatcher_KeywordTrigger(t *testing.T) {
	m := newTestMatcher(t)
	rule := enabledRule(domain.NewKeywordTrigger("refund"))

	t.Run("case-insensitive match in content", func(t *testing.T) {
		msg := domain.Message{ID: "m1", Content: "I need a REFUND please"}
		assert.True(t, m.Matches(rule, msg))
	})

	t.Run("match in subject", func(t *testing.T) {
		msg := domain.Message{ID: "m2", Subject: "Refund request"}
		assert.True(t, m.Matches(rule, msg))
	})

	t.Run("no match", func(t *testing.T) {
		msg := domain.Message{ID: "m3", Content: "great service"}
		assert.False(t, m.Matches(rule, msg))
	})
}

func TestMatcher_SenderDomainTrigger(t *testing.T) {
	m := newTestMatcher(t)
	rule := enabledRule(domain.NewSenderDomainTrigger("marketplace.example"))

	assert.True(t, m.Matches(rule, domain.Message{SenderEmail: "buyer@Marketplace.Example"}))
	assert.False(t, m.Matches(rule, domain.Message{SenderEmail: "buyer@elsewhere.example"}))
	assert.False(t, m.Matches(rule, domain.Message{SenderEmail: "no-at-sign"}))
}

func TestMatcher_MessageTypeTrigger(t *testing.T) {
	m := newTestMatcher(t)
	rule := enabledRule(domain.NewMessageTypeTrigger(domain.MessageTypeMarketplace))

	assert.True(t, m.Matches(rule, domain.Message{Type: domain.MessageTypeMarketplace}))
	assert.False(t, m.Matches(rule, domain.Message{Type: domain.MessageTypeEmail}))
}

func TestMatcher_TimeWindowTrigger(t *testing.T) {
	m := newTestMatcher(t)

	at := func(hour, minute int) func() time.Time {
		return func() time.Time {
			return time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
		}
	}

	rule := enabledRule(domain.NewTimeWindowTrigger("09:00", "17:00"))

	m.now = at(10, 30)
	assert.True(t, m.Matches(rule, domain.Message{}))

	m.now = at(20, 0)
	assert.False(t, m.Matches(rule, domain.Message{}))

	t.Run("window wrapping past midnight", func(t *testing.T) {
		night := enabledRule(domain.NewTimeWindowTrigger("22:00", "06:00"))

		m.now = at(23, 15)
		assert.True(t, m.Matches(night, domain.Message{}))

		m.now = at(3, 0)
		assert.True(t, m.Matches(night, domain.Message{}))

		m.now = at(12, 0)
		assert.False(t, m.Matches(night, domain.Message{}))
	})

	t.Run("invalid window never fires", func(t *testing.T) {
		broken := enabledRule(domain.NewTimeWindowTrigger("25:99", "17:00"))
		m.now = at(10, 0)
		assert.False(t, m.Matches(broken, domain.Message{}))
	})
}

func TestMatcher_Conditions(t *testing.T) {
	m := newTestMatcher(t)
	msg := domain.Message{
		Subject:     "order issue",
		Content:     "I need a refund for order 42",
		SenderEmail: "buyer@example.com",
		Type:        domain.MessageTypeEmail,
		Priority:    domain.PriorityNormal,
	}

	t.Run("zero conditions match on trigger alone", func(t *testing.T) {
		rule := enabledRule(domain.NewKeywordTrigger("refund"))
		assert.True(t, m.Matches(rule, msg))
	})

	t.Run("all conditions must hold", func(t *testing.T) {
		rule := enabledRule(domain.NewKeywordTrigger("refund"),
			domain.Condition{Field: domain.FieldSubject, Operator: domain.OperatorEquals, Value: "Order Issue"},
			domain.Condition{Field: domain.FieldSender, Operator: domain.OperatorEndsWith, Value: "@example.com"},
		)
		assert.True(t, m.Matches(rule, msg))
	})

	t.Run("one failing condition rejects the rule", func(t *testing.T) {
		rule := enabledRule(domain.NewKeywordTrigger("refund"),
			domain.Condition{Field: domain.FieldSubject, Operator: domain.OperatorEquals, Value: "Order Issue"},
			domain.Condition{Field: domain.FieldPriority, Operator: domain.OperatorEquals, Value: "urgent"},
		)
		assert.False(t, m.Matches(rule, msg))
	})

	t.Run("unknown operator degrades to non-match", func(t *testing.T) {
		rule := enabledRule(domain.NewKeywordTrigger("refund"),
			domain.Condition{Field: domain.FieldSubject, Operator: domain.RuleOperator("regex"), Value: ".*"},
		)
		assert.False(t, m.Matches(rule, msg))
	})
}

func TestMatcher_DisabledRuleNeverMatches(t *testing.T) {
	m := newTestMatcher(t)
	rule := enabledRule(domain.NewKeywordTrigger("refund"))
	rule.Enabled = false

	assert.False(t, m.Matches(rule, domain.Message{Content: "refund"}))
}

func TestMatcher_MalformedTriggerNeverMatches(t *testing.T) {
	m := newTestMatcher(t)

	// Kind set without its config: unrepresentable through the JSON
	// decoder, but matching must still be total.
	rule := enabledRule(domain.Trigger{Kind: domain.TriggerKeyword})
	assert.False(t, m.Matches(rule, domain.Message{Content: "anything"}))

	unknown := enabledRule(domain.Trigger{Kind: domain.TriggerKind("webhook")})
	assert.False(t, m.Matches(unknown, domain.Message{Content: "anything"}))
}
