package orders

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateNumber(t *testing.T) {
	at := time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)

	for i := 0; i < 100; i++ {
		number := GenerateNumber(at)
		assert.Len(t, number, 11)
		assert.True(t, NumberPattern.MatchString(number), "number %q", number)
		assert.True(t, strings.HasPrefix(number, "ORD2603"), "number %q", number)
	}
}

func TestGenerateNumberCentury(t *testing.T) {
	at := time.Date(2105, 12, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, strings.HasPrefix(GenerateNumber(at), "ORD0512"))
}
