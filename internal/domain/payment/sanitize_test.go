package payment

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeForLog(t *testing.T) {
	t.Run("redacts sensitive keys case-insensitively", func(t *testing.T) {
		out := SanitizeForLog(map[string]any{
			"amount":    "10.99",
			"source_id": "cnon:card-nonce-ok",
			"sourceId":  "cnon:card-nonce-ok",
			"Email":     "buyer@example.com",
		})

		assert.Equal(t, "10.99", out["amount"])
		assert.Equal(t, "[REDACTED]", out["source_id"])
		assert.Equal(t, "[REDACTED]", out["sourceId"])
		assert.Equal(t, "[REDACTED]", out["Email"])
	})

	t.Run("recurses into nested objects and arrays", func(t *testing.T) {
		out := SanitizeForLog(map[string]any{
			"customer": map[string]any{
				"name":  "A Buyer",
				"email": "buyer@example.com",
			},
			"items": []any{
				map[string]any{"sku": "X1", "token": "tok_123"},
				"plain",
			},
		})

		customer := out["customer"].(map[string]any)
		assert.Equal(t, "A Buyer", customer["name"])
		assert.Equal(t, "[REDACTED]", customer["email"])

		items := out["items"].([]any)
		first := items[0].(map[string]any)
		assert.Equal(t, "X1", first["sku"])
		assert.Equal(t, "[REDACTED]", first["token"])
		assert.Equal(t, "plain", items[1])
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		in := map[string]any{"cvv": "123"}
		_ = SanitizeForLog(in)
		assert.Equal(t, "123", in["cvv"])
	})
}

func TestSanitizeNoteValue(t *testing.T) {
	assert.Equal(t, "highvalue", SanitizeNoteValue("high:value\n"))
	assert.Equal(t, "abc", SanitizeNoteValue("a\tb\rc"))

	long := strings.Repeat("x", 80)
	assert.Len(t, SanitizeNoteValue(long), 50)

	t.Run("truncates multi-byte text on rune boundaries", func(t *testing.T) {
		out := SanitizeNoteValue(strings.Repeat("é", 80))

		assert.True(t, utf8.ValidString(out))
		assert.Equal(t, 50, utf8.RuneCountInString(out))
	})
}
