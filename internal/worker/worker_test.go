package worker

import (
	"errors"
	"testing"
	"time"

	"sellerdesk-automation-api/internal/automation"
	"sellerdesk-automation-api/internal/domain"
	"sellerdesk-automation-api/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func newTestWorker(mockStore *store.MockStore) *Worker {
	log := zap.NewNop()
	engine := automation.NewOrchestrator(mockStore, mockStore, mockStore, mockStore,
		automation.NewLoggingChannel(log), log)
	return NewWorker(mockStore, engine, log)
}

func pendingMessage(id string) domain.Message {
	return domain.Message{
		ID:      id,
		Content: "refund please",
		Type:    domain.MessageTypeEmail,
		Status:  domain.MessagePending,
	}
}

func TestWorker_ProcessesPendingBatch(t *testing.T) {
	mockStore := &store.MockStore{}

	ruleID := uuid.New()
	rule := domain.AutomationRule{
		BaseEntity: domain.BaseEntity{ID: ruleID},
		Name:       "refund tagger",
		Enabled:    true,
		Trigger:    domain.NewKeywordTrigger("refund"),
		Action:     domain.NewAssignTagAction("refunds"),
	}

	messages := []domain.Message{pendingMessage("msg-1"), pendingMessage("msg-2")}
	mockStore.On("GetPendingMessages", mock.Anything, 100).Return(messages, nil)
	mockStore.On("ListEnabledRules", mock.Anything).Return([]domain.AutomationRule{rule}, nil)
	mockStore.On("ClaimExecution", mock.Anything, ruleID, mock.Anything).Return(true, nil)
	mockStore.On("AddMessageTag", mock.Anything, mock.Anything, "refunds").Return(nil)
	mockStore.On("RecordExecution", mock.Anything, mock.Anything).Return(nil)
	mockStore.On("MarkMessageProcessed", mock.Anything, "msg-1").Return(nil)
	mockStore.On("MarkMessageProcessed", mock.Anything, "msg-2").Return(nil)

	w := newTestWorker(mockStore)
	w.doWork()

	mockStore.AssertExpectations(t)
}

func TestWorker_LeavesMessagePendingOnEvaluationError(t *testing.T) {
	mockStore := &store.MockStore{}

	messages := []domain.Message{pendingMessage("msg-3")}
	mockStore.On("GetPendingMessages", mock.Anything, 100).Return(messages, nil)
	mockStore.On("ListEnabledRules", mock.Anything).
		Return([]domain.AutomationRule(nil), errors.New("pool closed"))

	w := newTestWorker(mockStore)
	w.doWork()

	// The message stays pending so the next cycle can retry.
	mockStore.AssertNotCalled(t, "MarkMessageProcessed", mock.Anything, "msg-3")
	mockStore.AssertExpectations(t)
}

func TestWorker_IdleCycleTouchesNothing(t *testing.T) {
	mockStore := &store.MockStore{}
	mockStore.On("GetPendingMessages", mock.Anything, 100).Return([]domain.Message{}, nil)

	w := newTestWorker(mockStore)
	w.doWork()

	mockStore.AssertNotCalled(t, "ListEnabledRules", mock.Anything)
	mockStore.AssertExpectations(t)
}

func TestWorker_StartStop(t *testing.T) {
	mockStore := &store.MockStore{}
	mockStore.On("GetPendingMessages", mock.Anything, 100).Return([]domain.Message{}, nil)

	w := newTestWorker(mockStore)
	w.interval = 10 * time.Millisecond
	w.Start()

	time.Sleep(35 * time.Millisecond)
	w.Stop()

	// At least the startup cycle plus one tick ran.
	assert.GreaterOrEqual(t, len(mockStore.Calls), 2)
}

func TestNewWorker_ReadsModeFromEnvironment(t *testing.T) {
	t.Setenv("EXECUTION_MODE", "all_matches")
	t.Setenv("WORKER_POLL_INTERVAL", "5s")

	w := newTestWorker(&store.MockStore{})

	assert.Equal(t, domain.AllMatches, w.mode)
	assert.Equal(t, 5*time.Second, w.interval)
}

func TestNewWorker_DefaultsOnInvalidInterval(t *testing.T) {
	t.Setenv("EXECUTION_MODE", "")
	t.Setenv("WORKER_POLL_INTERVAL", "soon")

	w := newTestWorker(&store.MockStore{})

	assert.Equal(t, domain.FirstMatchOnly, w.mode)
	assert.Equal(t, defaultPollInterval, w.interval)
}
