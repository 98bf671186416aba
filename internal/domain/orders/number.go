package orders

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

// NumberPattern matches generated order numbers.
var NumberPattern = regexp.MustCompile(`^ORD\d{8}$`)

// GenerateNumber produces a human-readable order number:
// "ORD" + two-digit year + two-digit month + four random digits.
//
// The random suffix keeps numbers short but makes collisions possible
// within a month; callers MUST retry creation on DUPLICATE_ENTRY with a
// freshly generated number.
func GenerateNumber(at time.Time) string {
	return fmt.Sprintf("ORD%02d%02d%04d", at.Year()%100, int(at.Month()), rand.IntN(10000))
}
