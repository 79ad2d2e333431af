package payment

import (
	"regexp"
	"strings"
)

// sensitiveKeys are request fields that must never appear in logs: card
// tokens, raw card data, credentials and PII.
var sensitiveKeys = map[string]struct{}{
	"source_id":          {},
	"sourceid":           {},
	"token":              {},
	"card":               {},
	"cvv":                {},
	"card_number":        {},
	"verification_token": {},
	"email":              {},
	"user_email":         {},
	"wallet_address":     {},
	"phone":              {},
	"address":            {},
	"billing_address":    {},
	"shipping_address":   {},
	"cardholder_name":    {},
	"access_token":       {},
	"location_id":        {},
	"application_id":     {},
}

// SanitizeForLog returns a copy of data with sensitive values replaced by
// "[REDACTED]". Nested objects and arrays are sanitized recursively.
func SanitizeForLog(data map[string]any) map[string]any {
	sanitized := make(map[string]any, len(data))
	for key, value := range data {
		if _, sensitive := sensitiveKeys[strings.ToLower(key)]; sensitive {
			sanitized[key] = "[REDACTED]"
			continue
		}
		switch v := value.(type) {
		case map[string]any:
			sanitized[key] = SanitizeForLog(v)
		case []any:
			items := make([]any, len(v))
			for i, item := range v {
				if m, ok := item.(map[string]any); ok {
					items[i] = SanitizeForLog(m)
				} else {
					items[i] = item
				}
			}
			sanitized[key] = items
		default:
			sanitized[key] = value
		}
	}
	return sanitized
}

var noteSpecials = regexp.MustCompile(`[:\n\r\t]`)

// maxNoteValueLen bounds each note component sent upstream.
const maxNoteValueLen = 50

// SanitizeNoteValue strips characters that could desync the upstream's
// free-text note parsing and truncates the result. Truncation counts
// runes, so multi-byte text is never cut mid-sequence.
func SanitizeNoteValue(v string) string {
	cleaned := noteSpecials.ReplaceAllString(v, "")
	if runes := []rune(cleaned); len(runes) > maxNoteValueLen {
		cleaned = string(runes[:maxNoteValueLen])
	}
	return cleaned
}
