package automation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"sellerdesk-automation-api/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRuleSource struct{ mock.Mock }

func (m *mockRuleSource) ListEnabledRules(ctx context.Context) ([]domain.AutomationRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AutomationRule), args.Error(1)
}

type orchestratorFixture struct {
	rules      *mockRuleSource
	templates  *mockTemplateStore
	messages   *mockMessageStore
	executions *mockExecutionStore
	channel    *mockChannel
	orch       *Orchestrator
}

func newOrchestratorFixture() *orchestratorFixture {
	f := &orchestratorFixture{
		rules:      new(mockRuleSource),
		templates:  new(mockTemplateStore),
		messages:   new(mockMessageStore),
		executions: new(mockExecutionStore),
		channel:    new(mockChannel),
	}
	f.orch = NewOrchestrator(f.rules, f.templates, f.messages, f.executions, f.channel, zap.NewNop())
	return f
}

func tagRule(name, keyword, tag string) domain.AutomationRule {
	return domain.AutomationRule{
		BaseEntity: domain.BaseEntity{ID: uuid.New()},
		Name:       name,
		Enabled:    true,
		Trigger:    domain.NewKeywordTrigger(keyword),
		Action:     domain.NewAssignTagAction(tag),
	}
}

func TestOrchestrator_FirstMatchOnlyStopsAfterExecution(t *testing.T) {
	f := newOrchestratorFixture()

	first := tagRule("first", "refund", "refunds")
	second := tagRule("second", "refund", "follow-up")
	msg := domain.Message{ID: "m1", Content: "refund please"}

	f.rules.On("ListEnabledRules", mock.Anything).Return([]domain.AutomationRule{first, second}, nil)
	f.executions.On("ClaimExecution", mock.Anything, first.ID, "m1").Return(true, nil)
	f.messages.On("AddMessageTag", mock.Anything, "m1", "refunds").Return(nil)
	f.executions.On("RecordExecution", mock.Anything, mock.MatchedBy(func(rec domain.ExecutionRecord) bool {
		return rec.RuleID == first.ID && rec.Status == domain.ExecutionSuccess
	})).Return(nil)

	records, err := f.orch.EvaluateMessage(context.Background(), msg, domain.FirstMatchOnly)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, first.ID, records[0].RuleID)
	f.executions.AssertNotCalled(t, "ClaimExecution", mock.Anything, second.ID, "m1")
	f.rules.AssertExpectations(t)
	f.executions.AssertExpectations(t)
	f.messages.AssertExpectations(t)
}

func TestOrchestrator_FirstMatchOnlyContinuesPastSkipped(t *testing.T) {
	f := newOrchestratorFixture()

	first := tagRule("first", "refund", "refunds")
	second := tagRule("second", "refund", "follow-up")
	msg := domain.Message{ID: "m2", Content: "refund please"}

	f.rules.On("ListEnabledRules", mock.Anything).Return([]domain.AutomationRule{first, second}, nil)
	// The first pair was executed earlier, so the claim loses and the scan
	// must move on to the next rule.
	f.executions.On("ClaimExecution", mock.Anything, first.ID, "m2").Return(false, nil)
	f.executions.On("ClaimExecution", mock.Anything, second.ID, "m2").Return(true, nil)
	f.messages.On("AddMessageTag", mock.Anything, "m2", "follow-up").Return(nil)
	f.executions.On("RecordExecution", mock.Anything, mock.MatchedBy(func(rec domain.ExecutionRecord) bool {
		return rec.RuleID == second.ID && rec.Status == domain.ExecutionSuccess
	})).Return(nil)

	records, err := f.orch.EvaluateMessage(context.Background(), msg, domain.FirstMatchOnly)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.ExecutionSkipped, records[0].Status)
	assert.Equal(t, domain.ExecutionSuccess, records[1].Status)
	f.executions.AssertExpectations(t)
}

func TestOrchestrator_FirstMatchOnlyStopsOnFailureToo(t *testing.T) {
	f := newOrchestratorFixture()

	first := tagRule("first", "refund", "refunds")
	second := tagRule("second", "refund", "follow-up")
	msg := domain.Message{ID: "m3", Content: "refund please"}

	f.rules.On("ListEnabledRules", mock.Anything).Return([]domain.AutomationRule{first, second}, nil)
	f.executions.On("ClaimExecution", mock.Anything, first.ID, "m3").Return(true, nil)
	f.messages.On("AddMessageTag", mock.Anything, "m3", "refunds").Return(errors.New("db down"))
	f.executions.On("RecordExecution", mock.Anything, mock.MatchedBy(func(rec domain.ExecutionRecord) bool {
		return rec.Status == domain.ExecutionFailed
	})).Return(nil)

	records, err := f.orch.EvaluateMessage(context.Background(), msg, domain.FirstMatchOnly)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ExecutionFailed, records[0].Status)
	f.executions.AssertNotCalled(t, "ClaimExecution", mock.Anything, second.ID, "m3")
}

func TestOrchestrator_UnrecognizedModeActsAsFirstMatchOnly(t *testing.T) {
	f := newOrchestratorFixture()

	first := tagRule("first", "refund", "refunds")
	second := tagRule("second", "refund", "follow-up")
	msg := domain.Message{ID: "m3b", Content: "refund please"}

	f.rules.On("ListEnabledRules", mock.Anything).Return([]domain.AutomationRule{first, second}, nil)
	f.executions.On("ClaimExecution", mock.Anything, first.ID, "m3b").Return(true, nil)
	f.messages.On("AddMessageTag", mock.Anything, "m3b", "refunds").Return(nil)
	f.executions.On("RecordExecution", mock.Anything, mock.Anything).Return(nil)

	// A mistyped mode must not fan out sends across every matching rule.
	records, err := f.orch.EvaluateMessage(context.Background(), msg, domain.EvaluationMode("firstMatch"))

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, first.ID, records[0].RuleID)
	f.executions.AssertNotCalled(t, "ClaimExecution", mock.Anything, second.ID, "m3b")
}

func TestOrchestrator_ClaimErrorLeavesCountersAlone(t *testing.T) {
	f := newOrchestratorFixture()

	rule := tagRule("tagger", "refund", "refunds")
	msg := domain.Message{ID: "m3c", Content: "refund please"}

	f.rules.On("ListEnabledRules", mock.Anything).Return([]domain.AutomationRule{rule}, nil)
	f.executions.On("ClaimExecution", mock.Anything, rule.ID, "m3c").
		Return(false, errors.New("connection reset"))

	records, err := f.orch.EvaluateMessage(context.Background(), msg, domain.FirstMatchOnly)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ExecutionFailed, records[0].Status)
	// No pending row exists for the pair, so there is nothing to finalize.
	f.executions.AssertNotCalled(t, "RecordExecution", mock.Anything, mock.Anything)
}

func TestOrchestrator_AllMatchesIsolatesFailures(t *testing.T) {
	f := newOrchestratorFixture()

	first := tagRule("first", "refund", "refunds")
	second := tagRule("second", "refund", "follow-up")
	third := tagRule("third", "shipping", "shipping")
	msg := domain.Message{ID: "m4", Content: "refund please"}

	f.rules.On("ListEnabledRules", mock.Anything).Return([]domain.AutomationRule{first, second, third}, nil)
	f.executions.On("ClaimExecution", mock.Anything, first.ID, "m4").Return(true, nil)
	f.messages.On("AddMessageTag", mock.Anything, "m4", "refunds").Return(errors.New("db down"))
	f.executions.On("ClaimExecution", mock.Anything, second.ID, "m4").Return(true, nil)
	f.messages.On("AddMessageTag", mock.Anything, "m4", "follow-up").Return(nil)
	f.executions.On("RecordExecution", mock.Anything, mock.Anything).Return(nil)

	records, err := f.orch.EvaluateMessage(context.Background(), msg, domain.AllMatches)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.ExecutionFailed, records[0].Status)
	assert.Equal(t, domain.ExecutionSuccess, records[1].Status)
	// The third rule's trigger does not fire, so no claim is attempted.
	f.executions.AssertNotCalled(t, "ClaimExecution", mock.Anything, third.ID, "m4")
}

func TestOrchestrator_NoMatchesYieldsEmptySlice(t *testing.T) {
	f := newOrchestratorFixture()

	f.rules.On("ListEnabledRules", mock.Anything).
		Return([]domain.AutomationRule{tagRule("r", "refund", "t")}, nil)

	records, err := f.orch.EvaluateMessage(context.Background(), domain.Message{ID: "m5", Content: "all good"}, domain.FirstMatchOnly)

	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestOrchestrator_RuleSourceErrorPropagates(t *testing.T) {
	f := newOrchestratorFixture()

	f.rules.On("ListEnabledRules", mock.Anything).Return(nil, errors.New("pool closed"))

	records, err := f.orch.EvaluateMessage(context.Background(), domain.Message{ID: "m6"}, domain.FirstMatchOnly)

	require.Error(t, err)
	assert.Nil(t, records)
	assert.Contains(t, err.Error(), "could not fetch enabled rules")
}

func TestOrchestrator_TestRuleHasNoSideEffects(t *testing.T) {
	f := newOrchestratorFixture()

	templateID := uuid.New()
	subject := "Re: {{subject}}"
	tmpl := domain.Template{
		BaseEntity: domain.BaseEntity{ID: templateID},
		Subject:    &subject,
		Content:    "Hi {{senderName}}, order {{orderId}} is handled.",
	}
	f.templates.On("GetTemplateByID", mock.Anything, templateID).Return(tmpl, nil)

	rule := domain.AutomationRule{
		BaseEntity: domain.BaseEntity{ID: uuid.New()},
		Name:       "refund reply",
		Enabled:    false,
		Trigger:    domain.NewKeywordTrigger("refund"),
		Conditions: []domain.Condition{
			{Field: domain.FieldSender, Operator: domain.OperatorEndsWith, Value: "@example.com"},
		},
		Action: domain.NewSendTemplateAction(templateID.String()),
	}
	msg := domain.Message{
		ID:          "m7",
		Subject:     "Refund",
		Content:     "refund please",
		SenderName:  "Ada",
		SenderEmail: "ada@example.com",
		Context:     map[string]string{"orderId": "42"},
	}

	preview := f.orch.TestRule(context.Background(), rule, msg)

	assert.True(t, preview.WouldMatch, "a disabled rule still previews as authored")
	assert.True(t, preview.TriggerFired)
	assert.Equal(t, []string{`sender endsWith "@example.com"`}, preview.MatchedConditions)
	assert.Empty(t, preview.FailedCondition)
	assert.Equal(t, "Re: Refund", preview.RenderedSubject)
	assert.Equal(t, "Hi Ada, order 42 is handled.", preview.RenderedBody)

	f.channel.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.executions.AssertNotCalled(t, "ClaimExecution", mock.Anything, mock.Anything, mock.Anything)
	f.executions.AssertNotCalled(t, "RecordExecution", mock.Anything, mock.Anything)
	f.templates.AssertNotCalled(t, "IncrementTemplateUsage", mock.Anything, mock.Anything)
}

func TestOrchestrator_TestRuleReportsFailedCondition(t *testing.T) {
	f := newOrchestratorFixture()

	rule := tagRule("tagger", "refund", "vip")
	rule.Conditions = []domain.Condition{
		{Field: domain.FieldSubject, Operator: domain.OperatorContains, Value: "order"},
		{Field: domain.FieldPriority, Operator: domain.OperatorEquals, Value: "urgent"},
	}
	msg := domain.Message{ID: "m8", Subject: "order issue", Content: "refund", Priority: domain.PriorityNormal}

	preview := f.orch.TestRule(context.Background(), rule, msg)

	assert.True(t, preview.TriggerFired)
	assert.False(t, preview.WouldMatch)
	assert.Equal(t, []string{`subject contains "order"`}, preview.MatchedConditions)
	assert.Equal(t, `priority equals "urgent"`, preview.FailedCondition)
	assert.Equal(t, fmt.Sprintf("assign tag %q", "vip"), preview.ActionSummary)
}

func TestOrchestrator_TestRuleMarksMissingTemplate(t *testing.T) {
	f := newOrchestratorFixture()

	templateID := uuid.New()
	f.templates.On("GetTemplateByID", mock.Anything, templateID).
		Return(domain.Template{}, ErrTemplateNotFound)

	rule := tagRule("replier", "refund", "ignored")
	rule.Action = domain.NewSendTemplateAction(templateID.String())
	msg := domain.Message{ID: "m9", Content: "refund"}

	preview := f.orch.TestRule(context.Background(), rule, msg)

	assert.Contains(t, preview.ActionSummary, "(template not found)")
	assert.Empty(t, preview.RenderedBody)
}

func TestOrchestrator_TestRuleMarksUnavailableTemplate(t *testing.T) {
	f := newOrchestratorFixture()

	templateID := uuid.New()
	f.templates.On("GetTemplateByID", mock.Anything, templateID).
		Return(domain.Template{}, errors.New("db query error: connection refused"))

	rule := tagRule("replier", "refund", "ignored")
	rule.Action = domain.NewSendTemplateAction(templateID.String())
	msg := domain.Message{ID: "m10", Content: "refund"}

	preview := f.orch.TestRule(context.Background(), rule, msg)

	assert.Contains(t, preview.ActionSummary, "(template unavailable)")
	assert.NotContains(t, preview.ActionSummary, "(template not found)")
	assert.Empty(t, preview.RenderedBody)
}
