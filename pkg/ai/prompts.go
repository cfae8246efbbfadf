package ai

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Prompts are shared across providers so switching the backend does not
// change classification behavior.

func buildClassifyPrompt(subject, body, sender string, labels []string) string {
	return fmt.Sprintf(`You are an email triage assistant for an outbound sales inbox.

Classify the email below into EXACTLY ONE of these categories:
%s

RULES:
- "category" must be copied verbatim from the list above.
- "confidence" is a number between 0 and 1.
- Respond with ONLY a JSON object: {"category": "...", "confidence": 0.0}

FROM: %s
SUBJECT: %s
BODY:
%s

JSON OUTPUT:`, strings.Join(labels, "\n"), sender, subject, body)
}

func buildReplyPrompt(knowledgeContext, emailText string) string {
	context := knowledgeContext
	if strings.TrimSpace(context) == "" {
		context = "(no reference material available)"
	}

	return fmt.Sprintf(`You are an email assistant drafting a reply on behalf of the inbox owner.

Use the reference material below when it is relevant. Keep the reply short,
professional and directly responsive to the email.

RULES:
- Respond with ONLY a JSON object: {"reply": "...", "confidence": 0.0}
- "confidence" is a number between 0 and 1.

REFERENCE MATERIAL:
%s

EMAIL:
%s

JSON OUTPUT:`, context, emailText)
}

// TruncateText shortens s to at most max bytes without splitting a UTF-8
// rune, so truncated prompt text never ends in a mangled character.
func TruncateText(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// extractJSONObject trims any chatter a model wraps around its JSON answer.
func extractJSONObject(s string) string {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start != -1 && end != -1 && end > start {
		return s[start : end+1]
	}
	return s
}
