package store

import (
	"context"

	"sellerdesk-automation-api/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of the Storer interface for testing.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateRule(ctx context.Context, arg CreateRuleParams) (domain.AutomationRule, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(domain.AutomationRule), args.Error(1)
}

func (m *MockStore) GetRuleByID(ctx context.Context, ruleID uuid.UUID) (domain.AutomationRule, error) {
	args := m.Called(ctx, ruleID)
	return args.Get(0).(domain.AutomationRule), args.Error(1)
}

func (m *MockStore) ListRules(ctx context.Context) ([]domain.AutomationRule, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.AutomationRule), args.Error(1)
}

func (m *MockStore) ListEnabledRules(ctx context.Context) ([]domain.AutomationRule, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.AutomationRule), args.Error(1)
}

func (m *MockStore) UpdateRule(ctx context.Context, arg UpdateRuleParams) (domain.AutomationRule, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(domain.AutomationRule), args.Error(1)
}

func (m *MockStore) SetRuleEnabled(ctx context.Context, ruleID uuid.UUID, enabled bool) (domain.AutomationRule, error) {
	args := m.Called(ctx, ruleID, enabled)
	return args.Get(0).(domain.AutomationRule), args.Error(1)
}

func (m *MockStore) CreateTemplate(ctx context.Context, arg CreateTemplateParams) (domain.Template, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(domain.Template), args.Error(1)
}

func (m *MockStore) GetTemplateByID(ctx context.Context, templateID uuid.UUID) (domain.Template, error) {
	args := m.Called(ctx, templateID)
	return args.Get(0).(domain.Template), args.Error(1)
}

func (m *MockStore) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Template), args.Error(1)
}

func (m *MockStore) UpdateTemplate(ctx context.Context, arg UpdateTemplateParams) (domain.Template, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(domain.Template), args.Error(1)
}

func (m *MockStore) IncrementTemplateUsage(ctx context.Context, templateID uuid.UUID) error {
	args := m.Called(ctx, templateID)
	return args.Error(0)
}

func (m *MockStore) ClaimExecution(ctx context.Context, ruleID uuid.UUID, messageID string) (bool, error) {
	args := m.Called(ctx, ruleID, messageID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) RecordExecution(ctx context.Context, rec domain.ExecutionRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStore) ListExecutions(ctx context.Context, ruleID *uuid.UUID, limit int) ([]domain.ExecutionRecord, error) {
	args := m.Called(ctx, ruleID, limit)
	return args.Get(0).([]domain.ExecutionRecord), args.Error(1)
}

func (m *MockStore) GetMessageByID(ctx context.Context, messageID string) (domain.Message, error) {
	args := m.Called(ctx, messageID)
	return args.Get(0).(domain.Message), args.Error(1)
}

func (m *MockStore) GetPendingMessages(ctx context.Context, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *MockStore) MarkMessageProcessed(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MockStore) SetMessagePriority(ctx context.Context, messageID string, level domain.PriorityLevel) error {
	args := m.Called(ctx, messageID, level)
	return args.Error(0)
}

func (m *MockStore) AddMessageTag(ctx context.Context, messageID string, tag string) error {
	args := m.Called(ctx, messageID, tag)
	return args.Error(0)
}
