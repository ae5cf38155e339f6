package feedback

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the default upper bound on submission length.
const DefaultMaxChars = 5000

// CleanText trims surrounding whitespace from a submission.
// Internal whitespace is preserved as submitted.
func CleanText(s string) string {
	return strings.TrimSpace(s)
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// CheckInput contains parameters for validating a submission.
type CheckInput struct {
	Text     string
	MaxChars int
}

// CheckResult describes why a submission is unacceptable, if it is.
type CheckResult struct {
	Empty       bool
	TooLarge    bool
	ActualChars int
	MaxChars    int
}

// Valid reports whether the checked text can be stored.
func (r CheckResult) Valid() bool {
	return !r.Empty && !r.TooLarge
}

// Check validates an already-cleaned submission.
// MaxChars <= 0 disables the size check.
func Check(input CheckInput) CheckResult {
	result := CheckResult{
		ActualChars: CountChars(input.Text),
		MaxChars:    input.MaxChars,
	}
	if input.Text == "" {
		result.Empty = true
	}
	if input.MaxChars > 0 && result.ActualChars > input.MaxChars {
		result.TooLarge = true
	}
	return result
}
