package domain

import (
	"encoding/json"
	"fmt"
)

// ActionKind enumerates the supported action variants.
type ActionKind string

const (
	ActionSendTemplate ActionKind = "send_template"
	ActionMarkPriority ActionKind = "mark_priority"
	ActionAssignTag    ActionKind = "assign_tag"
)

// SendTemplateAction replies to the message with a rendered template.
type SendTemplateAction struct {
	TemplateID string `json:"template_id"`
}

// MarkPriorityAction changes the message's priority level.
type MarkPriorityAction struct {
	Priority PriorityLevel `json:"priority"`
}

// AssignTagAction attaches a tag to the message.
type AssignTagAction struct {
	Tag string `json:"tag"`
}

// Action is a tagged variant: exactly one config matching Kind is set.
type Action struct {
	Kind         ActionKind
	SendTemplate *SendTemplateAction
	MarkPriority *MarkPriorityAction
	AssignTag    *AssignTagAction
}

// NewSendTemplateAction builds a send-template action.
func NewSendTemplateAction(templateID string) Action {
	return Action{Kind: ActionSendTemplate, SendTemplate: &SendTemplateAction{TemplateID: templateID}}
}

// NewMarkPriorityAction builds a mark-priority action.
func NewMarkPriorityAction(p PriorityLevel) Action {
	return Action{Kind: ActionMarkPriority, MarkPriority: &MarkPriorityAction{Priority: p}}
}

// NewAssignTagAction builds an assign-tag action.
func NewAssignTagAction(tag string) Action {
	return Action{Kind: ActionAssignTag, AssignTag: &AssignTagAction{Tag: tag}}
}

// Validate checks that exactly the config belonging to Kind is present.
func (a Action) Validate() error {
	switch a.Kind {
	case ActionSendTemplate:
		if a.SendTemplate == nil || a.SendTemplate.TemplateID == "" {
			return fmt.Errorf("send_template action requires a template id")
		}
	case ActionMarkPriority:
		if a.MarkPriority == nil || !a.MarkPriority.Priority.IsValid() {
			return fmt.Errorf("mark_priority action requires a valid priority level")
		}
	case ActionAssignTag:
		if a.AssignTag == nil || a.AssignTag.Tag == "" {
			return fmt.Errorf("assign_tag action requires a non-empty tag")
		}
	default:
		return fmt.Errorf("unknown action kind: %q", a.Kind)
	}
	return nil
}

// Describe returns a short human-readable summary, used in dry-run previews.
func (a Action) Describe() string {
	switch a.Kind {
	case ActionSendTemplate:
		if a.SendTemplate != nil {
			return fmt.Sprintf("send template %s", a.SendTemplate.TemplateID)
		}
	case ActionMarkPriority:
		if a.MarkPriority != nil {
			return fmt.Sprintf("mark priority %s", a.MarkPriority.Priority)
		}
	case ActionAssignTag:
		if a.AssignTag != nil {
			return fmt.Sprintf("assign tag %q", a.AssignTag.Tag)
		}
	}
	return "invalid action"
}

type actionEnvelope struct {
	Kind ActionKind      `json:"kind"`
	Conf json.RawMessage `json:"config"`
}

// MarshalJSON encodes the action as {"kind": ..., "config": {...}}.
func (a Action) MarshalJSON() ([]byte, error) {
	var conf interface{}
	switch a.Kind {
	case ActionSendTemplate:
		conf = a.SendTemplate
	case ActionMarkPriority:
		conf = a.MarkPriority
	case ActionAssignTag:
		conf = a.AssignTag
	default:
		return nil, fmt.Errorf("cannot marshal action with unknown kind %q", a.Kind)
	}

	raw, err := json.Marshal(conf)
	if err != nil {
		return nil, err
	}
	return json.Marshal(actionEnvelope{Kind: a.Kind, Conf: raw})
}

// UnmarshalJSON decodes the envelope and rejects kind/config mismatches.
func (a *Action) UnmarshalJSON(data []byte) error {
	var env actionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	out := Action{Kind: env.Kind}
	switch env.Kind {
	case ActionSendTemplate:
		out.SendTemplate = &SendTemplateAction{}
		if err := json.Unmarshal(env.Conf, out.SendTemplate); err != nil {
			return fmt.Errorf("invalid send_template action config: %w", err)
		}
	case ActionMarkPriority:
		out.MarkPriority = &MarkPriorityAction{}
		if err := json.Unmarshal(env.Conf, out.MarkPriority); err != nil {
			return fmt.Errorf("invalid mark_priority action config: %w", err)
		}
	case ActionAssignTag:
		out.AssignTag = &AssignTagAction{}
		if err := json.Unmarshal(env.Conf, out.AssignTag); err != nil {
			return fmt.Errorf("invalid assign_tag action config: %w", err)
		}
	default:
		return fmt.Errorf("unknown action kind: %q", env.Kind)
	}

	if err := out.Validate(); err != nil {
		return err
	}
	*a = out
	return nil
}
