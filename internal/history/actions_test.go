package history

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RCarmona53/amazon-word-cloud/models"
)

func TestFormatTable(t *testing.T) {
	assert.Equal(t, "No requests recorded\n", formatTable(nil))

	out := formatTable([]models.Access{
		{URL: "https://www.amazon.com/dp/A", Outcome: models.OutcomeComputed, WordCount: 12, Language: "en", AccessedAt: "2026-10-17T09:30:00Z"},
		{URL: "https://www.amazon.com/dp/B", Outcome: models.OutcomeFailed, ErrorType: "fetch_error", AccessedAt: "2026-10-17 09:31:00"},
	})

	assert.Contains(t, out, "https://www.amazon.com/dp/A")
	assert.Contains(t, out, "2026-10-17 09:30:00")
	assert.Contains(t, out, "fetch_error")
	assert.Contains(t, strings.ToLower(out), "2 requests")
}

func TestShortTime(t *testing.T) {
	assert.Equal(t, "2026-10-17 09:30:00", shortTime("2026-10-17T09:30:00.123456Z"))
	assert.Equal(t, "", shortTime(""))
}
