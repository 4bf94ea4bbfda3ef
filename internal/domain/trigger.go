package domain

import (
	"encoding/json"
	"fmt"
)

// TriggerKind enumerates the supported trigger variants.
type TriggerKind string

const (
	TriggerKeyword      TriggerKind = "keyword"
	TriggerSenderDomain TriggerKind = "sender_domain"
	TriggerMessageType  TriggerKind = "message_type"
	TriggerTimeWindow   TriggerKind = "time_window"
)

// KeywordTrigger fires when the keyword occurs in the message subject or body.
type KeywordTrigger struct {
	Keyword string `json:"keyword"`
}

// SenderDomainTrigger fires when the sender's email domain equals Domain.
type SenderDomainTrigger struct {
	Domain string `json:"domain"`
}

// MessageTypeTrigger fires when the message type equals Type.
type MessageTypeTrigger struct {
	Type MessageType `json:"type"`
}

// TimeWindowTrigger fires when the evaluation clock falls inside the window.
// Start and End are "HH:MM" wall-clock times; End before Start means the
// window wraps past midnight.
type TimeWindowTrigger struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Trigger is a tagged variant: exactly one config matching Kind is set.
// The zero value is invalid.
type Trigger struct {
	Kind         TriggerKind
	Keyword      *KeywordTrigger
	SenderDomain *SenderDomainTrigger
	MessageType  *MessageTypeTrigger
	TimeWindow   *TimeWindowTrigger
}

// NewKeywordTrigger builds a keyword trigger.
func NewKeywordTrigger(keyword string) Trigger {
	return Trigger{Kind: TriggerKeyword, Keyword: &KeywordTrigger{Keyword: keyword}}
}

// NewSenderDomainTrigger builds a sender-domain trigger.
func NewSenderDomainTrigger(domain string) Trigger {
	return Trigger{Kind: TriggerSenderDomain, SenderDomain: &SenderDomainTrigger{Domain: domain}}
}

// NewMessageTypeTrigger builds a message-type trigger.
func NewMessageTypeTrigger(t MessageType) Trigger {
	return Trigger{Kind: TriggerMessageType, MessageType: &MessageTypeTrigger{Type: t}}
}

// NewTimeWindowTrigger builds a time-window trigger.
func NewTimeWindowTrigger(start, end string) Trigger {
	return Trigger{Kind: TriggerTimeWindow, TimeWindow: &TimeWindowTrigger{Start: start, End: end}}
}

// Validate checks that exactly the config belonging to Kind is present.
func (t Trigger) Validate() error {
	switch t.Kind {
	case TriggerKeyword:
		if t.Keyword == nil || t.Keyword.Keyword == "" {
			return fmt.Errorf("keyword trigger requires a non-empty keyword")
		}
	case TriggerSenderDomain:
		if t.SenderDomain == nil || t.SenderDomain.Domain == "" {
			return fmt.Errorf("sender_domain trigger requires a non-empty domain")
		}
	case TriggerMessageType:
		if t.MessageType == nil || !t.MessageType.Type.IsValid() {
			return fmt.Errorf("message_type trigger requires a valid message type")
		}
	case TriggerTimeWindow:
		if t.TimeWindow == nil || t.TimeWindow.Start == "" || t.TimeWindow.End == "" {
			return fmt.Errorf("time_window trigger requires start and end times")
		}
	default:
		return fmt.Errorf("unknown trigger kind: %q", t.Kind)
	}
	return nil
}

type triggerEnvelope struct {
	Kind TriggerKind     `json:"kind"`
	Conf json.RawMessage `json:"config"`
}

// MarshalJSON encodes the trigger as {"kind": ..., "config": {...}}.
func (t Trigger) MarshalJSON() ([]byte, error) {
	var conf interface{}
	switch t.Kind {
	case TriggerKeyword:
		conf = t.Keyword
	case TriggerSenderDomain:
		conf = t.SenderDomain
	case TriggerMessageType:
		conf = t.MessageType
	case TriggerTimeWindow:
		conf = t.TimeWindow
	default:
		return nil, fmt.Errorf("cannot marshal trigger with unknown kind %q", t.Kind)
	}

	raw, err := json.Marshal(conf)
	if err != nil {
		return nil, err
	}
	return json.Marshal(triggerEnvelope{Kind: t.Kind, Conf: raw})
}

// UnmarshalJSON decodes the envelope and rejects kind/config mismatches.
func (t *Trigger) UnmarshalJSON(data []byte) error {
	var env triggerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	out := Trigger{Kind: env.Kind}
	switch env.Kind {
	case TriggerKeyword:
		out.Keyword = &KeywordTrigger{}
		if err := json.Unmarshal(env.Conf, out.Keyword); err != nil {
			return fmt.Errorf("invalid keyword trigger config: %w", err)
		}
	case TriggerSenderDomain:
		out.SenderDomain = &SenderDomainTrigger{}
		if err := json.Unmarshal(env.Conf, out.SenderDomain); err != nil {
			return fmt.Errorf("invalid sender_domain trigger config: %w", err)
		}
	case TriggerMessageType:
		out.MessageType = &MessageTypeTrigger{}
		if err := json.Unmarshal(env.Conf, out.MessageType); err != nil {
			return fmt.Errorf("invalid message_type trigger config: %w", err)
		}
	case TriggerTimeWindow:
		out.TimeWindow = &TimeWindowTrigger{}
		if err := json.Unmarshal(env.Conf, out.TimeWindow); err != nil {
			return fmt.Errorf("invalid time_window trigger config: %w", err)
		}
	default:
		return fmt.Errorf("unknown trigger kind: %q", env.Kind)
	}

	if err := out.Validate(); err != nil {
		return err
	}
	*t = out
	return nil
}
