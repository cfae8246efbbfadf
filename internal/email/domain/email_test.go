package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		parsed, err := ParseCategory(string(c))
		assert.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestParseCategoryRejectsUnknownLabels(t *testing.T) {
	// The category set is closed: nothing gets coerced or defaulted.
	for _, label := range []string{"", "interested", "INTERESTED", "Maybe", "Interested ", "Meeting booked"} {
		_, err := ParseCategory(label)
		assert.Error(t, err, "label %q should be rejected", label)
	}
}
