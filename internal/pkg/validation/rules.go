package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jdon/coffeechat/internal/domain/coffeechat"
	"github.com/jdon/coffeechat/internal/pkg/apperrors"
)

// Coffee chat field limits
var (
	TitleMaxLength   = 100
	ContentMaxLength = 2000

	// Open chat links must be absolute http(s) URLs
	OpenChatURLPattern = `^https?://[^\s/$.?#].[^\s]*$`
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	OpenChatURL *regexp.Regexp
}{
	OpenChatURL: regexp.MustCompile(OpenChatURLPattern),
}

// StringValidation checks one string field
type StringValidation struct {
	Field    string
	Value    string
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a required string validation
func NewStringValidation(field, value string) *StringValidation {
	return &StringValidation{
		Field:    field,
		Value:    value,
		Required: true,
	}
}

// WithMaxLength sets the maximum length in characters
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// Validate returns a message describing the first failed rule, or "" when the value is fine.
func (v *StringValidation) Validate() string {
	value := strings.TrimSpace(v.Value)
	if value == "" {
		if v.Required {
			return fmt.Sprintf("%s is required", v.Field)
		}
		return ""
	}

	if v.MaxLen > 0 && utf8.RuneCountInString(value) > v.MaxLen {
		return fmt.Sprintf("%s must be at most %d characters", v.Field, v.MaxLen)
	}

	if v.Pattern != nil && !v.Pattern.MatchString(value) {
		return fmt.Sprintf("%s has an invalid format", v.Field)
	}

	return ""
}

// ValidateChatFields checks the host-editable fields of a coffee chat
func ValidateChatFields(fields coffeechat.Fields) error {
	checks := []*StringValidation{
		NewStringValidation("title", fields.Title).WithMaxLength(TitleMaxLength),
		NewStringValidation("content", fields.Content).WithMaxLength(ContentMaxLength),
		NewStringValidation("openChatUrl", fields.OpenChatURL).WithPattern(CompiledPatterns.OpenChatURL),
	}

	var problems []string
	for _, check := range checks {
		if msg := check.Validate(); msg != "" {
			problems = append(problems, msg)
		}
	}
	if fields.JobCategoryID <= 0 {
		problems = append(problems, "jobCategoryId must be positive")
	}
	if fields.MeetDate.IsZero() {
		problems = append(problems, "meetDate is required")
	}

	if len(problems) > 0 {
		return apperrors.NewValidationError(strings.Join(problems, "; "))
	}
	return nil
}
