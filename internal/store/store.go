package store

import (
	"context"
	"errors"

	"sellerdesk-automation-api/internal/automation"
	"sellerdesk-automation-api/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Sentinel errors surfaced to handlers and the engine. ErrTemplateNotFound
// is the engine's sentinel so the executor can tell a missing template from
// a store outage with a single errors.Is.
var (
	ErrRuleNotFound     = errors.New("rule not found")
	ErrTemplateNotFound = automation.ErrTemplateNotFound
	ErrMessageNotFound  = errors.New("message not found")
)

// DBPool is the subset of pgxpool.Pool the store needs. Declared as an
// interface so unit tests can substitute a pgxmock pool.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Storer is the interface for all database interactions.
type Storer interface {
	CreateRule(ctx context.Context, arg CreateRuleParams) (domain.AutomationRule, error)
	GetRuleByID(ctx context.Context, ruleID uuid.UUID) (domain.AutomationRule, error)
	ListRules(ctx context.Context) ([]domain.AutomationRule, error)
	ListEnabledRules(ctx context.Context) ([]domain.AutomationRule, error)
	UpdateRule(ctx context.Context, arg UpdateRuleParams) (domain.AutomationRule, error)
	SetRuleEnabled(ctx context.Context, ruleID uuid.UUID, enabled bool) (domain.AutomationRule, error)

	CreateTemplate(ctx context.Context, arg CreateTemplateParams) (domain.Template, error)
	GetTemplateByID(ctx context.Context, templateID uuid.UUID) (domain.Template, error)
	ListTemplates(ctx context.Context) ([]domain.Template, error)
	UpdateTemplate(ctx context.Context, arg UpdateTemplateParams) (domain.Template, error)
	IncrementTemplateUsage(ctx context.Context, templateID uuid.UUID) error

	ClaimExecution(ctx context.Context, ruleID uuid.UUID, messageID string) (bool, error)
	RecordExecution(ctx context.Context, rec domain.ExecutionRecord) error
	ListExecutions(ctx context.Context, ruleID *uuid.UUID, limit int) ([]domain.ExecutionRecord, error)

	GetMessageByID(ctx context.Context, messageID string) (domain.Message, error)
	GetPendingMessages(ctx context.Context, limit int) ([]domain.Message, error)
	MarkMessageProcessed(ctx context.Context, messageID string) error
	SetMessagePriority(ctx context.Context, messageID string, level domain.PriorityLevel) error
	AddMessageTag(ctx context.Context, messageID string, tag string) error
}

// DBStore implements the Storer interface on Postgres.
type DBStore struct {
	pool DBPool
	log  *zap.Logger
}

// NewStore creates a new DBStore.
func NewStore(pool DBPool, log *zap.Logger) Storer {
	return &DBStore{pool: pool, log: log}
}
