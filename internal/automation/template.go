package automation

import (
	"regexp"

	"sellerdesk-automation-api/internal/domain"
)

var placeholderPattern = regexp.MustCompile(`\{\{([a-zA-Z][a-zA-Z0-9_]*)\}\}`)

// ExtractVariables returns the distinct placeholder names in template text,
// in order of first appearance. It runs once at template-save time; the
// result is stored on the template, never recomputed per render.
func ExtractVariables(content string) []string {
	seen := make(map[string]struct{})
	variables := []string{}

	for _, match := range placeholderPattern.FindAllStringSubmatch(content, -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		variables = append(variables, name)
	}

	return variables
}

// Render substitutes bound values for {{name}} placeholders. A placeholder
// whose binding is absent or empty stays in the output verbatim: a missing
// substitution is a signal the caller should surface (e.g. in a rule
// preview), not something to drop silently. Rendering never fails.
func Render(text string, bindings map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(placeholder string) string {
		name := placeholderPattern.FindStringSubmatch(placeholder)[1]
		if value, ok := bindings[name]; ok && value != "" {
			return value
		}
		return placeholder
	})
}

// MessageBindings builds the render bindings for a message: sender details,
// subject, and any order/listing context supplied by the ingestion surface.
// Explicit message fields win over context keys of the same name.
func MessageBindings(msg domain.Message) map[string]string {
	bindings := make(map[string]string, len(msg.Context)+4)
	for k, v := range msg.Context {
		bindings[k] = v
	}

	bindings["senderName"] = msg.SenderName
	bindings["senderEmail"] = msg.SenderEmail
	bindings["subject"] = msg.Subject
	bindings["messageId"] = msg.ID

	return bindings
}
