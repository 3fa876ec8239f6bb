package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "CodeAndMessage",
			err:  New(ErrCodeExtraction, "empty visual tree"),
			want: "EXTRACTION_FAILED: empty visual tree",
		},
		{
			name: "WithStage",
			err:  New(ErrCodeLayout, "rank budget exceeded").WithStage("layout"),
			want: "LAYOUT_FAILED: layout: rank budget exceeded",
		},
		{
			name: "WithCause",
			err:  Wrap(ErrCodeRender, fmt.Errorf("connection refused"), "render flowchart"),
			want: "RENDER_FAILED: render flowchart: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsAndGetCode(t *testing.T) {
	base := New(ErrCodeClassification, "no rule matched cluster")
	wrapped := fmt.Errorf("converting: %w", base)

	if !Is(wrapped, ErrCodeClassification) {
		t.Error("Is() should find code through wrapping")
	}
	if Is(wrapped, ErrCodeExtraction) {
		t.Error("Is() matched wrong code")
	}
	if got := GetCode(wrapped); got != ErrCodeClassification {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeClassification)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(ErrCodeInternal, cause, "wrapping")
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}

func TestGetStage(t *testing.T) {
	err := New(ErrCodeBuild, "duplicate cell id").WithStage("build")
	if got := GetStage(fmt.Errorf("outer: %w", err)); got != "build" {
		t.Errorf("GetStage() = %q, want build", got)
	}
}

func TestRecoverable(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{ErrCodeClassification, true},
		{ErrCodeLayout, true},
		{ErrCodeExtraction, false},
		{ErrCodeRender, false},
		{ErrCodeTimeout, false},
		{ErrCodeUnsupportedType, false},
	}
	for _, tt := range tests {
		if got := Recoverable(New(tt.code, "x")); got != tt.want {
			t.Errorf("Recoverable(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
	if Recoverable(stderrors.New("plain")) {
		t.Error("plain errors are not recoverable")
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidSource, "diagram source cannot be empty")
	if got := UserMessage(err); strings.Contains(got, "INVALID") {
		t.Errorf("UserMessage should not include the code, got %q", got)
	}
}
