package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jdon/coffeechat/internal/domain/coffeechat"
	"github.com/jdon/coffeechat/internal/pkg/apperrors"
)

func validFields() coffeechat.Fields {
	return coffeechat.Fields{
		Title:         "Backend career talk",
		Content:       "Go, on-call and code review",
		JobCategoryID: 5,
		MeetDate:      time.Date(2025, 5, 1, 19, 0, 0, 0, time.UTC),
		OpenChatURL:   "https://open.kakao.com/o/abc123",
	}
}

func TestValidateChatFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *coffeechat.Fields)
		wantErr string
	}{
		{"valid", func(f *coffeechat.Fields) {}, ""},
		{"blank title", func(f *coffeechat.Fields) { f.Title = "   " }, "title is required"},
		{"long title", func(f *coffeechat.Fields) { f.Title = strings.Repeat("가", TitleMaxLength+1) }, "title must be at most"},
		{"multibyte title at limit", func(f *coffeechat.Fields) { f.Title = strings.Repeat("가", TitleMaxLength) }, ""},
		{"missing content", func(f *coffeechat.Fields) { f.Content = "" }, "content is required"},
		{"bad url", func(f *coffeechat.Fields) { f.OpenChatURL = "open.kakao.com" }, "openChatUrl has an invalid format"},
		{"no category", func(f *coffeechat.Fields) { f.JobCategoryID = 0 }, "jobCategoryId must be positive"},
		{"no meet date", func(f *coffeechat.Fields) { f.MeetDate = time.Time{} }, "meetDate is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFields()
			tt.mutate(&f)
			err := ValidateChatFields(f)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, apperrors.ErrValidationFailed) {
				t.Fatalf("err = %v, want validation failure", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestStringValidation_Optional(t *testing.T) {
	v := &StringValidation{Field: "note", MaxLen: 3}
	if msg := v.Validate(); msg != "" {
		t.Errorf("empty optional value: %q", msg)
	}
}
