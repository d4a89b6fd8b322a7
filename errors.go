package hxpage

import (
	"errors"

	"github.com/pthm/hxpage/lib/encoding"
	"github.com/pthm/hxpage/lib/ident"
	"github.com/pthm/hxpage/lib/jscheck"
)

// Sentinel errors for framework operations.
var (
	ErrScriptRemovalFailed = errors.New("hxpage: script removal failed")
	ErrScriptNotFound      = errors.New("hxpage: script not found")
	ErrUnknownHandler      = errors.New("hxpage: unknown handler")
	ErrPublishDepth        = errors.New("hxpage: publish nesting too deep")
	ErrInvalidScript       = errors.New("hxpage: invalid script")
	ErrSignatureInvalid    = errors.New("hxpage: signature verification failed")
	ErrInvalidFormat       = errors.New("hxpage: invalid token format")
	ErrNoSession           = errors.New("hxpage: no session")
)

// ErrIdentifierExhausted is returned when no unique identifier could be drawn
// within the retry budget.
var ErrIdentifierExhausted = ident.ErrIdentifierExhausted

// IsExhausted checks if err is an identifier exhaustion error.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrIdentifierExhausted)
}

// IsTokenError checks if err is a dispatch token decoding or signature error.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrSignatureInvalid) || errors.Is(err, ErrInvalidFormat)
}

// wrapTokenError maps lib/encoding errors onto package sentinels.
func wrapTokenError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, encoding.ErrSignatureInvalid), errors.Is(err, encoding.ErrDecryptFailed):
		return ErrSignatureInvalid
	case errors.Is(err, encoding.ErrInvalidFormat):
		return ErrInvalidFormat
	}
	return err
}

// wrapScriptError maps lib/jscheck errors onto ErrInvalidScript.
func wrapScriptError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, jscheck.ErrSyntax) {
		return errors.Join(ErrInvalidScript, err)
	}
	return err
}
