package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sellerdesk-automation-api/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateRuleParams contains parameters for creating automation rules.
type CreateRuleParams struct {
	Name        string
	Description *string
	Priority    int
	Trigger     domain.Trigger
	Conditions  []domain.Condition
	Action      domain.Action
}

// UpdateRuleParams contains parameters for updating a rule's authoring
// fields. Execution counters and last_executed_at are deliberately absent:
// those columns are owned by the execution tracker.
type UpdateRuleParams struct {
	RuleID      uuid.UUID
	Name        string
	Description *string
	Priority    int
	Trigger     domain.Trigger
	Conditions  []domain.Condition
	Action      domain.Action
}

const ruleColumns = `id, name, description, enabled, priority, trigger, conditions, action,
       success_count, failure_count, last_executed_at, created_at, updated_at`

// scanRule scans a database row into an AutomationRule, decoding the JSONB
// trigger/conditions/action columns.
func scanRule(row pgx.Row) (domain.AutomationRule, error) {
	var rule domain.AutomationRule
	var triggerRaw, conditionsRaw, actionRaw []byte

	err := row.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Description,
		&rule.Enabled,
		&rule.Priority,
		&triggerRaw,
		&conditionsRaw,
		&actionRaw,
		&rule.SuccessCount,
		&rule.FailureCount,
		&rule.LastExecutedAt,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return domain.AutomationRule{}, err
	}

	if err := json.Unmarshal(triggerRaw, &rule.Trigger); err != nil {
		return domain.AutomationRule{}, fmt.Errorf("stored trigger for rule %s is invalid: %w", rule.ID, err)
	}
	if err := json.Unmarshal(conditionsRaw, &rule.Conditions); err != nil {
		return domain.AutomationRule{}, fmt.Errorf("stored conditions for rule %s are invalid: %w", rule.ID, err)
	}
	if err := json.Unmarshal(actionRaw, &rule.Action); err != nil {
		return domain.AutomationRule{}, fmt.Errorf("stored action for rule %s is invalid: %w", rule.ID, err)
	}
	if rule.Conditions == nil {
		rule.Conditions = []domain.Condition{}
	}

	return rule, nil
}

func encodeRuleConfig(trigger domain.Trigger, conditions []domain.Condition, action domain.Action) ([]byte, []byte, []byte, error) {
	triggerRaw, err := json.Marshal(trigger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not encode trigger: %w", err)
	}
	if conditions == nil {
		conditions = []domain.Condition{}
	}
	conditionsRaw, err := json.Marshal(conditions)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not encode conditions: %w", err)
	}
	actionRaw, err := json.Marshal(action)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not encode action: %w", err)
	}
	return triggerRaw, conditionsRaw, actionRaw, nil
}

// CreateRule creates a new automation rule.
func (s *DBStore) CreateRule(ctx context.Context, arg CreateRuleParams) (domain.AutomationRule, error) {
	triggerRaw, conditionsRaw, actionRaw, err := encodeRuleConfig(arg.Trigger, arg.Conditions, arg.Action)
	if err != nil {
		return domain.AutomationRule{}, err
	}

	query := `
    INSERT INTO automation_rules (
        name, description, priority, trigger, conditions, action
    ) VALUES (
        $1, $2, $3, $4, $5, $6
    )
    RETURNING ` + ruleColumns + `;
    `

	row := s.pool.QueryRow(ctx, query,
		arg.Name,
		arg.Description,
		arg.Priority,
		triggerRaw,
		conditionsRaw,
		actionRaw,
	)

	return scanRule(row)
}

// GetRuleByID fetches a single rule.
func (s *DBStore) GetRuleByID(ctx context.Context, ruleID uuid.UUID) (domain.AutomationRule, error) {
	query := `
    SELECT ` + ruleColumns + `
    FROM automation_rules
    WHERE id = $1;
    `

	rule, err := scanRule(s.pool.QueryRow(ctx, query, ruleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AutomationRule{}, ErrRuleNotFound
		}
		return domain.AutomationRule{}, fmt.Errorf("db scan error: %w", err)
	}

	return rule, nil
}

func (s *DBStore) queryRules(ctx context.Context, query string, args ...any) ([]domain.AutomationRule, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db query error: %w", err)
	}
	defer rows.Close()

	var rules []domain.AutomationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("db row scan error: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db rows error: %w", err)
	}

	return rules, nil
}

// ListRules returns every rule, enabled or not, in evaluation order.
func (s *DBStore) ListRules(ctx context.Context) ([]domain.AutomationRule, error) {
	query := `
    SELECT ` + ruleColumns + `
    FROM automation_rules
    ORDER BY priority DESC, id ASC;
    `
	return s.queryRules(ctx, query)
}

// ListEnabledRules returns the candidate rules for the orchestrator.
// The ordering is part of the engine contract: priority descending, with the
// rule id as a stable tie-break.
func (s *DBStore) ListEnabledRules(ctx context.Context) ([]domain.AutomationRule, error) {
	query := `
    SELECT ` + ruleColumns + `
    FROM automation_rules
    WHERE enabled = true
    ORDER BY priority DESC, id ASC;
    `
	return s.queryRules(ctx, query)
}

// UpdateRule updates a rule's authoring fields, leaving counters untouched.
func (s *DBStore) UpdateRule(ctx context.Context, arg UpdateRuleParams) (domain.AutomationRule, error) {
	triggerRaw, conditionsRaw, actionRaw, err := encodeRuleConfig(arg.Trigger, arg.Conditions, arg.Action)
	if err != nil {
		return domain.AutomationRule{}, err
	}

	query := `
    UPDATE automation_rules
    SET name = $1, description = $2, priority = $3,
        trigger = $4, conditions = $5, action = $6, updated_at = now()
    WHERE id = $7
    RETURNING ` + ruleColumns + `;
    `

	row := s.pool.QueryRow(ctx, query,
		arg.Name,
		arg.Description,
		arg.Priority,
		triggerRaw,
		conditionsRaw,
		actionRaw,
		arg.RuleID,
	)

	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AutomationRule{}, ErrRuleNotFound
		}
		return domain.AutomationRule{}, fmt.Errorf("db scan error: %w", err)
	}

	return rule, nil
}

// SetRuleEnabled flips a rule's enabled flag.
func (s *DBStore) SetRuleEnabled(ctx context.Context, ruleID uuid.UUID, enabled bool) (domain.AutomationRule, error) {
	query := `
    UPDATE automation_rules
    SET enabled = $1, updated_at = now()
    WHERE id = $2
    RETURNING ` + ruleColumns + `;
    `

	rule, err := scanRule(s.pool.QueryRow(ctx, query, enabled, ruleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AutomationRule{}, ErrRuleNotFound
		}
		return domain.AutomationRule{}, fmt.Errorf("db scan error: %w", err)
	}

	return rule, nil
}
