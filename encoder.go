package hxpage

import (
	"github.com/pthm/hxpage/lib/encoding"
)

// Encoder signs dispatch tokens. Applications sharing an Encoder accept each
// other's tokens, but a token only resolves in the application that issued
// its handler.
type Encoder = encoding.Encoder

// NewEncoder creates an encoder with the given key. Keys shorter than 32
// bytes are stretched with SHA-256.
func NewEncoder(key []byte) (*Encoder, error) {
	return encoding.NewEncoder(key)
}
