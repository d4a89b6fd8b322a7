package hxpage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pthm/hxpage/lib/encoding"
	"github.com/pthm/hxpage/lib/jscheck"
)

func TestSentinelErrors(t *testing.T) {
	// Verify sentinel errors are distinct
	errs := []error{
		ErrScriptRemovalFailed,
		ErrScriptNotFound,
		ErrUnknownHandler,
		ErrPublishDepth,
		ErrInvalidScript,
		ErrSignatureInvalid,
		ErrInvalidFormat,
		ErrNoSession,
		ErrIdentifierExhausted,
	}

	for i, err1 := range errs {
		for j, err2 := range errs {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestIsExhausted(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"nil error", nil, false},
		{"ErrIdentifierExhausted", ErrIdentifierExhausted, true},
		{"wrapped", fmt.Errorf("script id: %w", ErrIdentifierExhausted), true},
		{"other error", errors.New("other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExhausted(tt.err); got != tt.expect {
				t.Errorf("IsExhausted(%v) = %v, want %v", tt.err, got, tt.expect)
			}
		})
	}
}

func TestIsTokenError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"nil error", nil, false},
		{"ErrSignatureInvalid", ErrSignatureInvalid, true},
		{"ErrInvalidFormat", ErrInvalidFormat, true},
		{"wrapped ErrSignatureInvalid", fmt.Errorf("wrapped: %w", ErrSignatureInvalid), true},
		{"ErrUnknownHandler", ErrUnknownHandler, false},
		{"other error", errors.New("other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTokenError(tt.err); got != tt.expect {
				t.Errorf("IsTokenError(%v) = %v, want %v", tt.err, got, tt.expect)
			}
		})
	}
}

func TestWrapTokenError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"signature", encoding.ErrSignatureInvalid, ErrSignatureInvalid},
		{"decrypt", encoding.ErrDecryptFailed, ErrSignatureInvalid},
		{"format", fmt.Errorf("%w: bad base64", encoding.ErrInvalidFormat), ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapTokenError(tt.in); !errors.Is(got, tt.want) {
				t.Errorf("wrapTokenError(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if wrapTokenError(nil) != nil {
		t.Error("wrapTokenError(nil) should be nil")
	}
	other := errors.New("other")
	if wrapTokenError(other) != other {
		t.Error("unrelated errors pass through")
	}
}

func TestWrapScriptError(t *testing.T) {
	err := wrapScriptError(jscheck.Expression("h", "function("))
	if !errors.Is(err, ErrInvalidScript) || !errors.Is(err, jscheck.ErrSyntax) {
		t.Errorf("wrapScriptError should match both sentinels, got %v", err)
	}
	if wrapScriptError(nil) != nil {
		t.Error("wrapScriptError(nil) should be nil")
	}
}
